// Package questionbank persists ingested documents and the classified
// questions synthesized from them.
package questionbank

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/pai-papers/internal/bloom"
)

// ErrNotFound is returned when a document or question does not exist.
var ErrNotFound = errors.New("not found")

// Document is an uploaded source document.
type Document struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	Text         string    `json:"-"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Question is a classified question in the bank.
type Question struct {
	ID         int64            `json:"id"`
	DocumentID int64            `json:"document_id"`
	Unit       string           `json:"unit"`
	Text       string           `json:"question_text"`
	Marks      int              `json:"marks"`
	BloomLevel bloom.Level      `json:"bloom_level"`
	Difficulty bloom.Difficulty `json:"difficulty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Filter narrows a question query. Zero-valued fields match everything.
type Filter struct {
	Unit       string
	BloomLevel bloom.Level
	Difficulty bloom.Difficulty
	Marks      int
}

// Match reports whether q satisfies the filter.
func (f Filter) Match(q Question) bool {
	if f.Unit != "" && q.Unit != f.Unit {
		return false
	}
	if f.BloomLevel != "" && q.BloomLevel != f.BloomLevel {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Marks != 0 && q.Marks != f.Marks {
		return false
	}
	return true
}

// Store persists documents and questions. Questions are always returned in
// ascending id order.
type Store interface {
	SaveDocument(ctx context.Context, doc Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	// DeleteDocument removes a document and every question synthesized from it.
	DeleteDocument(ctx context.Context, id int64) error
	SaveQuestions(ctx context.Context, questions []Question) ([]Question, error)
	Questions(ctx context.Context, filter Filter) ([]Question, error)
	Question(ctx context.Context, id int64) (*Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	documents map[int64]Document
	questions []Question
	nextDocID int64
	nextQID   int64
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory question bank.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[int64]Document),
	}
}

func (s *MemoryStore) SaveDocument(_ context.Context, doc Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDocID++
	doc.ID = s.nextDocID
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	s.documents[doc.ID] = doc
	return doc.ID, nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id int64) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return &doc, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	delete(s.documents, id)
	s.questions = slices.DeleteFunc(s.questions, func(q Question) bool { return q.DocumentID == id })
	return nil
}

func (s *MemoryStore) SaveQuestions(_ context.Context, questions []Question) ([]Question, error) {
	for _, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	saved := make([]Question, len(questions))
	for i, q := range questions {
		s.nextQID++
		q.ID = s.nextQID
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		s.questions = append(s.questions, q)
		saved[i] = q
	}
	return saved, nil
}

func (s *MemoryStore) Questions(_ context.Context, filter Filter) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Question{}
	for _, q := range s.questions {
		if filter.Match(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *MemoryStore) Question(_ context.Context, id int64) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.questions, func(q Question) bool { return q.ID == id })
	if i < 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	s.questions = slices.Delete(s.questions, i, i+1)
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = make(map[int64]Document)
	s.questions = nil
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ComputeStats(s.questions), nil
}

func validateQuestion(q Question) error {
	if q.Text == "" {
		return fmt.Errorf("question text is required")
	}
	if q.Marks <= 0 {
		return fmt.Errorf("question marks must be positive, got %d", q.Marks)
	}
	if !q.BloomLevel.Valid() {
		return fmt.Errorf("invalid bloom level %q", q.BloomLevel)
	}
	return nil
}
