package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"medical-chatbot/internal/chromemdb"
	"medical-chatbot/internal/config"
	"medical-chatbot/internal/models"
)

var vocabulary = []string{"diabetes", "insulin", "asthma", "inhaler", "fracture"}

type fakeEmbedder struct {
	mu      sync.Mutex
	err     error
	queries int
}

func (e *fakeEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(text, w))
	}
	v[len(vocabulary)] = 0.1
	return v
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queries++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

// captureModel records the rendered messages of every call
type captureModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llms.MessageContent
}

func (m *captureModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, msgs)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *captureModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *captureModel) lastCall(t *testing.T) (system, human string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("Expected the model to be called")
	}
	for _, msg := range m.calls[len(m.calls)-1] {
		text := msg.Parts[0].(llms.TextContent).Text
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			system = text
		case llms.ChatMessageTypeHuman:
			human = text
		}
	}
	return system, human
}

func newTestRAG() (*RAG, *chromemdb.Store, *fakeEmbedder, *captureModel) {
	store := chromemdb.NewStore()
	emb := &fakeEmbedder{}
	model := &captureModel{reply: "**Treatment**\n- rest"}
	return NewRAG(store, emb, model, config.DefaultConfig()), store, emb, model
}

const medicalNote = "Diabetes care plan: take insulin before meals and check glucose daily. " +
	"Asthma action plan: keep the inhaler nearby during exercise."

func TestChat_UsesGeneralPrompt(t *testing.T) {
	r, _, _, model := newTestRAG()

	reply, err := r.Chat(context.Background(), "Should I avoid coffee?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "**Treatment**\n- rest" {
		t.Errorf("Unexpected reply %q", reply)
	}

	system, human := model.lastCall(t)
	if !strings.Contains(system, "knowledgeable and empathetic medical assistant") || !strings.Contains(system, "**What to avoid**") {
		t.Errorf("Expected the general system prompt, got %q", system)
	}
	if human != "Question: Should I avoid coffee?" {
		t.Errorf("Unexpected human message %q", human)
	}
}

func TestChat_ProviderError(t *testing.T) {
	r, _, _, model := newTestRAG()
	model.err = errors.New("groq unavailable")

	if _, err := r.Chat(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "groq unavailable") {
		t.Fatalf("Expected provider error, got %v", err)
	}
}

func TestDocumentQnA_NoDocument(t *testing.T) {
	r, _, emb, model := newTestRAG()

	_, err := r.DocumentQnA(context.Background(), "What does the document say?")
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("Expected ErrNoDocument, got %v", err)
	}
	if emb.queries != 0 {
		t.Errorf("Expected no retrieval, got %d embedding queries", emb.queries)
	}
	if len(model.calls) != 0 {
		t.Errorf("Expected no model calls")
	}
}

func TestUploadAndDocumentQnA_UsesContextPrompt(t *testing.T) {
	r, store, _, model := newTestRAG()
	ctx := context.Background()

	msg, err := r.UploadDocument(ctx, "care-plan.txt", []byte(medicalNote))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if msg != "✅ Document 'care-plan.txt' uploaded and indexed successfully!" {
		t.Errorf("Unexpected upload message %q", msg)
	}
	if idx := store.Current(); idx == nil || idx.Source != "care-plan.txt" {
		t.Fatalf("Expected the uploaded document to be active")
	}

	if _, err := r.DocumentQnA(ctx, "When should I take insulin?"); err != nil {
		t.Fatalf("DocumentQnA: %v", err)
	}

	system, human := model.lastCall(t)
	if !strings.Contains(system, "Here is the document context (if relevant):\n") {
		t.Errorf("Expected the context system prompt, got %q", system)
	}
	if !strings.Contains(system, "take insulin before meals") {
		t.Errorf("Expected retrieved context in the prompt, got %q", system)
	}
	if human != "When should I take insulin?" {
		t.Errorf("Unexpected human message %q", human)
	}
}

func TestDocumentQnA_BlankChunksFallBackToGeneralPrompt(t *testing.T) {
	r, store, emb, model := newTestRAG()
	ctx := context.Background()

	idx, err := chromemdb.BuildIndex(ctx, emb, "blank.txt", []models.Chunk{
		{ChunkID: 1, Content: "   "},
		{ChunkID: 2, Content: "\n\t"},
	})
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	store.Replace(idx)

	if _, err := r.DocumentQnA(ctx, "Is asthma hereditary?"); err != nil {
		t.Fatalf("DocumentQnA: %v", err)
	}

	system, human := model.lastCall(t)
	if strings.Contains(system, "document context") {
		t.Errorf("Expected the general prompt, got %q", system)
	}
	if human != "Question: Is asthma hereditary?" {
		t.Errorf("Unexpected human message %q", human)
	}
}

func TestUploadDocument_UnsupportedFormatKeepsIndex(t *testing.T) {
	r, store, _, _ := newTestRAG()
	ctx := context.Background()

	if _, err := r.UploadDocument(ctx, "care-plan.md", []byte(medicalNote)); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	before := store.Current()

	_, err := r.UploadDocument(ctx, "report.docx", []byte("PK\x03\x04"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if store.Current() != before {
		t.Errorf("Expected the active index to be unchanged")
	}
}

func TestUploadDocument_Failures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		embedErr error
		wantErr  error
	}{
		{"empty", "empty.txt", "", nil, ErrEmptyDocument},
		{"whitespace", "blank.md", " \n\t ", nil, ErrEmptyDocument},
		{"embedder down", "notes.txt", medicalNote, errors.New("ollama unreachable"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store, emb, _ := newTestRAG()
			emb.err = tt.embedErr

			_, err := r.UploadDocument(context.Background(), tt.filename, []byte(tt.data))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.embedErr != nil && !errors.Is(err, tt.embedErr) {
				t.Errorf("Expected %v, got %v", tt.embedErr, err)
			}
			if store.Current() != nil {
				t.Errorf("Expected no active index after a failed upload")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	r, _, _, model := newTestRAG()
	model.reply = "You have been treated for diabetes and asthma."

	summary, err := r.Summarize(context.Background(), []string{"Type 2 Diabetes", "  ", "Seasonal Asthma"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != model.reply {
		t.Errorf("Unexpected summary %q", summary)
	}

	system, human := model.lastCall(t)
	if !strings.Contains(system, "2 to 4 short, plain sentences") {
		t.Errorf("Expected the summary system prompt, got %q", system)
	}
	if human != "Medical case titles:\n- Type 2 Diabetes\n- Seasonal Asthma" {
		t.Errorf("Unexpected human message %q", human)
	}
}

func TestSummarize_NoTitles(t *testing.T) {
	for _, titles := range [][]string{nil, {}, {"", "  "}} {
		r, _, _, model := newTestRAG()
		if _, err := r.Summarize(context.Background(), titles); !errors.Is(err, ErrNoCaseTitles) {
			t.Errorf("Expected ErrNoCaseTitles for %q, got %v", titles, err)
		}
		if len(model.calls) != 0 {
			t.Errorf("Expected no model calls for %q", titles)
		}
	}
}
