package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"medical-chatbot/internal/config"
	"medical-chatbot/internal/helper"
	"medical-chatbot/internal/models"
	"medical-chatbot/internal/rag"
)

const uploadField = "file"

// Assistant is the request pipeline behind the HTTP handlers
type Assistant interface {
	Chat(ctx context.Context, question string) (string, error)
	UploadDocument(ctx context.Context, filename string, data []byte) (string, error)
	DocumentQnA(ctx context.Context, question string) (string, error)
	Summarize(ctx context.Context, caseTitles []string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type summaryRequest struct {
	CaseTitles []string `json:"caseTitles"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type uploadResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Server exposes the assistant over HTTP. Every response is JSON with status
// 200; failures are reported inside the body.
type Server struct {
	assistant Assistant
	cfg       config.ServerConfig
}

func New(assistant Assistant, cfg config.ServerConfig) *Server {
	return &Server{assistant: assistant, cfg: cfg}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("POST /upload-doc", s.uploadHandler)
	mux.HandleFunc("POST /doc-qna", s.docQnAHandler)
	mux.HandleFunc("POST /summarizer", s.summaryHandler)
	return requestLogger(enableCORS(s.cfg.AllowedOrigins, mux))
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, r, replyResponse{Reply: renderError(r.Context(), err, models.ErrorPrefix)})
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		reply = renderError(r.Context(), err, models.ErrorPrefix)
	}
	writeJSON(w, r, replyResponse{Reply: reply})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		writeJSON(w, r, uploadResponse{Error: renderError(r.Context(), err, models.ErrorPrefix)})
		return
	}

	msg, err := s.assistant.UploadDocument(r.Context(), filename, data)
	if err != nil {
		writeJSON(w, r, uploadResponse{Error: renderError(r.Context(), err, models.ErrorPrefix)})
		return
	}
	writeJSON(w, r, uploadResponse{Message: msg})
}

func (s *Server) docQnAHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, r, replyResponse{Reply: renderError(r.Context(), err, models.ErrorPrefix)})
		return
	}

	reply, err := s.assistant.DocumentQnA(r.Context(), req.Message)
	if err != nil {
		reply = renderError(r.Context(), err, models.ErrorPrefix)
	}
	writeJSON(w, r, replyResponse{Reply: reply})
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, r, summaryResponse{Summary: renderError(r.Context(), err, models.SummaryErrorPrefix)})
		return
	}

	summary, err := s.assistant.Summarize(r.Context(), req.CaseTitles)
	if err != nil {
		summary = renderError(r.Context(), err, models.SummaryErrorPrefix)
	}
	writeJSON(w, r, summaryResponse{Summary: summary})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return header.Filename, data, nil
}

// renderError turns a pipeline error into the text sent in the response body
func renderError(ctx context.Context, err error, prefix string) string {
	switch {
	case errors.Is(err, rag.ErrNoDocument):
		return models.NoDocumentReply
	case errors.Is(err, rag.ErrUnsupportedFormat):
		return models.UnsupportedFormatReply
	case errors.Is(err, rag.ErrNoCaseTitles):
		return models.NoCaseTitlesSummary
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("Request failed")
	return prefix + err.Error()
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error writing response")
	}
}

// requestLogger attaches a request scoped logger carrying a request id
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := helper.GenerateUUID()
		if err != nil {
			log.Warn().Err(err).Msg("Error generating request id")
		}
		logger := log.With().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Logger()
		w.Header().Set("X-Request-ID", id)

		logger.Debug().Msg("Request received")
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		logger.Debug().Msg("Request done")
	})
}
