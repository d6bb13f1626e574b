package models

// Chunk is one window of an uploaded document
type Chunk struct {
	Content string
	ChunkID int
}

// ScoredChunk is a chunk returned from a similarity query
type ScoredChunk struct {
	Chunk
	Similarity float32
}
