package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"medical-chatbot/internal/chromemdb"
	"medical-chatbot/internal/config"
	"medical-chatbot/internal/helper"
	"medical-chatbot/internal/llmservice"
	"medical-chatbot/internal/models"
	"medical-chatbot/internal/parser"
)

var (
	ErrUnsupportedFormat = parser.ErrUnsupportedFormat
	ErrNoDocument        = errors.New("no document uploaded")
	ErrEmptyDocument     = errors.New("document contains no extractable text")
	ErrNoCaseTitles      = errors.New("no case titles to summarize")
)

// RAG answers questions with a hosted model, optionally grounded on the most
// recently uploaded document.
type RAG struct {
	store    *chromemdb.Store
	embedder embeddings.Embedder
	llm      llms.Model
	cfg      *config.Config
}

func NewRAG(store *chromemdb.Store, embedder embeddings.Embedder, llm llms.Model, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, llm: llm, cfg: cfg}
}

// Chat answers question with the general medical prompt
func (r *RAG) Chat(ctx context.Context, question string) (string, error) {
	msgs, err := renderGeneral(question)
	if err != nil {
		return "", err
	}
	return r.generate(ctx, msgs)
}

// UploadDocument parses, chunks and indexes a document, then makes it the
// active document. The active index is left untouched on any failure.
func (r *RAG) UploadDocument(ctx context.Context, filename string, data []byte) (string, error) {
	logger := zerolog.Ctx(ctx)

	text, err := parser.ParseDocument(filename, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}

	chunks := parser.ChunkText(text, r.cfg.RAG.ChunkSize, r.cfg.RAG.ChunkOverlap)
	logger.Debug().Str("file", filename).Int("chunks", len(chunks)).Msg("Chunked document")

	idx, err := chromemdb.BuildIndex(ctx, r.embedder, filename, chunks)
	if err != nil {
		return "", err
	}
	if prev := r.store.Replace(idx); prev != nil {
		logger.Info().Str("previous", prev.Source).Str("index_id", idx.ID).Msg("Replaced document index")
	}

	logger.Info().Str("file", filename).Int("chunks", idx.Chunks).Msg("Document indexed")
	return fmt.Sprintf(models.UploadSuccessTemplate, filename), nil
}

// DocumentQnA answers question using the top matching chunks of the active
// document. When nothing usable is retrieved it answers like Chat.
func (r *RAG) DocumentQnA(ctx context.Context, question string) (string, error) {
	logger := zerolog.Ctx(ctx)

	idx := r.store.Current()
	if idx == nil {
		return "", ErrNoDocument
	}

	chunks, err := idx.Query(ctx, question, r.cfg.RAG.TopK)
	if err != nil {
		return "", err
	}

	docContext := buildContext(chunks)
	if docContext == "" {
		logger.Debug().Str("question", helper.Truncate(question, 80)).Msg("No usable context, falling back to general answer")
		return r.Chat(ctx, question)
	}

	for _, c := range chunks {
		logger.Debug().Int("chunk_id", c.ChunkID).Float32("similarity", c.Similarity).Msg("Retrieved chunk")
	}

	msgs, err := renderContext(docContext, question)
	if err != nil {
		return "", err
	}
	return r.generate(ctx, msgs)
}

// Summarize writes a short patient-facing summary of the given case titles.
// Blank titles are ignored.
func (r *RAG) Summarize(ctx context.Context, caseTitles []string) (string, error) {
	var titles []string
	for _, t := range caseTitles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return "", ErrNoCaseTitles
	}

	msgs, err := renderSummary(titles)
	if err != nil {
		return "", err
	}
	return r.generate(ctx, msgs)
}

func (r *RAG) generate(ctx context.Context, msgs []llms.MessageContent) (string, error) {
	return llmservice.GenerateContent(ctx, r.llm, msgs, llms.WithTemperature(r.cfg.LLM.Temperature))
}
