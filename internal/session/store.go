// Package session keeps the paper currently under review for each client
// session. Saving a paper replaces whatever the session held before.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/pai-papers/internal/paper"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

// ErrNoPaper is returned when a session has no current paper.
var ErrNoPaper = errors.New("no paper in session")

// Paper is the working paper of a session.
type Paper struct {
	Questions   []questionbank.Question `json:"questions"`
	Constraints paper.Constraints       `json:"constraints"`
	Strategy    paper.Strategy          `json:"strategy,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Store holds one paper per session id.
type Store interface {
	Save(ctx context.Context, sessionID string, p Paper) error
	Load(ctx context.Context, sessionID string) (*Paper, error)
	Delete(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	papers map[string]Paper
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers: make(map[string]Paper),
	}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, p Paper) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	p.Questions = slices.Clone(p.Questions)

	s.mu.Lock()
	s.papers[sessionID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.papers[sessionID]
	if !ok {
		return nil, ErrNoPaper
	}
	p.Questions = slices.Clone(p.Questions)
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.papers, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.papers = make(map[string]Paper)
	s.mu.Unlock()
	return nil
}
