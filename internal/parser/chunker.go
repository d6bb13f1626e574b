package parser

import (
	"medical-chatbot/internal/models"
)

const (
	DefaultChunkSize    = 1000 // runes
	DefaultChunkOverlap = 200  // runes
)

// ChunkText splits text into windows of at most size runes. Each window
// starts size-overlap runes after the previous one, so adjacent chunks share
// exactly overlap runes, and the last window ends at the end of the text.
// Empty text yields no chunks.
func ChunkText(text string, size, overlap int) []models.Chunk {
	// Handle edge cases
	if size <= 0 {
		size, overlap = DefaultChunkSize, DefaultChunkOverlap
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []models.Chunk{{Content: text, ChunkID: 1}}
	}

	var chunks []models.Chunk
	step := size - overlap
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, models.Chunk{
			Content: string(runes[start:end]),
			ChunkID: len(chunks) + 1,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
