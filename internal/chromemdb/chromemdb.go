package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"medical-chatbot/internal/helper"
	"medical-chatbot/internal/models"
)

const (
	collectionName = "document"
	metaSource     = "source"
	metaChunkID    = "chunk_id"
)

// Index is the in-memory similarity index of one uploaded document. It is
// never modified after BuildIndex returns.
type Index struct {
	ID        string
	Source    string
	Chunks    int
	CreatedAt time.Time

	db         *chromem.DB
	collection *chromem.Collection
}

// BuildIndex embeds every chunk and loads the (chunk, vector) pairs into a
// fresh chromem collection. Queries are embedded with the same embedder.
func BuildIndex(ctx context.Context, embedder embeddings.Embedder, source string, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to index")
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, map[string]string{metaSource: source}, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s-%d", id, c.ChunkID),
			Content: c.Content,
			Metadata: map[string]string{
				metaSource:  source,
				metaChunkID: strconv.Itoa(c.ChunkID),
			},
			Embedding: vectors[i],
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	log.Debug().Str("index_id", id).Str("source", source).Int("chunks", len(docs)).Msg("Built document index")

	return &Index{
		ID:         id,
		Source:     source,
		Chunks:     len(docs),
		CreatedAt:  time.Now(),
		db:         db,
		collection: collection,
	}, nil
}

// Query returns up to k chunks ranked by cosine similarity to question.
func (idx *Index) Query(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	n := min(k, idx.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := idx.collection.Query(ctx, question, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	chunks := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunkID, _ := strconv.Atoi(r.Metadata[metaChunkID])
		chunks = append(chunks, models.ScoredChunk{
			Chunk:      models.Chunk{Content: r.Content, ChunkID: chunkID},
			Similarity: r.Similarity,
		})
	}
	return chunks, nil
}

func embeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}
