package chromemdb

import (
	"context"
	"sync"

	"medical-chatbot/internal/models"
)

// Store holds the currently active document index, if any. Replacing and
// reading the index are serialized; queries run on the snapshot outside the
// lock.
type Store struct {
	mu      sync.RWMutex
	current *Index
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the active index or nil when no document was uploaded
func (s *Store) Current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace makes idx the active index and returns the previous one
func (s *Store) Replace(idx *Index) *Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = idx
	return prev
}

// Query searches the active index. Without an index it returns no chunks.
func (s *Store) Query(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	idx := s.Current()
	if idx == nil {
		return nil, nil
	}
	return idx.Query(ctx, question, k)
}
