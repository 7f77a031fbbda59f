// Package pipeline wires extraction, question synthesis, classification,
// persistence and paper assembly into the operations the API exposes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/extract"
	"github.com/p-n-ai/pai-papers/internal/paper"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
	"github.com/p-n-ai/pai-papers/internal/questiongen"
	"github.com/p-n-ai/pai-papers/internal/render"
	"github.com/p-n-ai/pai-papers/internal/session"
	"github.com/p-n-ai/pai-papers/internal/syllabus"
)

const defaultExportDir = "exports"

// ServiceConfig holds dependencies for the service.
type ServiceConfig struct {
	Bank      questionbank.Store
	Sessions  session.Store
	Events    EventLogger
	Generator *questiongen.Generator
	Extractor *extract.Extractor
	ExportDir string
	// Seed fixes the random source. Zero seeds from the runtime.
	Seed uint64
	Now  func() time.Time
}

// Service runs the question paper pipeline.
type Service struct {
	bank      questionbank.Store
	sessions  session.Store
	events    EventLogger
	generator *questiongen.Generator
	extractor *extract.Extractor
	exportDir string
	now       func() time.Time

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// NewService creates a service. Nil dependencies fall back to in-memory
// implementations.
func NewService(cfg ServiceConfig) *Service {
	bank := cfg.Bank
	if bank == nil {
		bank = questionbank.NewMemoryStore()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	generator := cfg.Generator
	if generator == nil {
		generator = questiongen.NewGenerator(nil)
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.New(extract.DefaultMinTextLength)
	}
	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = defaultExportDir
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Service{
		bank:      bank,
		sessions:  sessions,
		events:    events,
		generator: generator,
		extractor: extractor,
		exportDir: exportDir,
		now:       now,
		seeds:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// newRand returns a random source for one operation. Each call gets its own
// generator so concurrent requests never share state.
func (s *Service) newRand() *rand.Rand {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewPCG(s.seeds.Uint64(), s.seeds.Uint64()))
}

// SynthesizeAndClassify generates questions from text and tags each with
// its classified Bloom level and difficulty. The returned questions have no
// id yet.
func (s *Service) SynthesizeAndClassify(text, documentType string) []questionbank.Question {
	drafts := s.generator.Generate(s.newRand(), text)

	questions := make([]questionbank.Question, 0, len(drafts))
	for _, d := range drafts {
		c := bloom.Classify(d.Text, d.Marks)
		questions = append(questions, questionbank.Question{
			Unit:       d.Unit,
			Text:       d.Text,
			Marks:      d.Marks,
			BloomLevel: c.BloomLevel,
			Difficulty: c.Difficulty,
		})
	}

	slog.Debug("questions synthesized",
		"document_type", documentType,
		"drafts", len(drafts),
	)
	return questions
}

// IngestRequest is an uploaded document.
type IngestRequest struct {
	SessionID    string
	Filename     string
	DocumentType string
	Data         []byte
}

// IngestResult reports what an upload added to the bank.
type IngestResult struct {
	DocumentID   int64                   `json:"document_id"`
	DocumentType string                  `json:"document_type"`
	Questions    []questionbank.Question `json:"questions"`
}

// Ingest extracts text from a document, synthesizes and classifies
// questions and stores both. Nothing is stored when extraction fails.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	text, err := s.extractor.Extract(req.Data)
	if err != nil {
		slog.Warn("extraction failed", "filename", req.Filename, "error", err)
		return nil, err
	}

	docType := req.DocumentType
	if docType == "" {
		docType = syllabus.DetectDocumentType(text)
	}

	docID, err := s.bank.SaveDocument(ctx, questionbank.Document{
		Filename:     req.Filename,
		DocumentType: docType,
		Text:         text,
		UploadedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	questions := s.SynthesizeAndClassify(text, docType)
	for i := range questions {
		questions[i].DocumentID = docID
	}
	saved, err := s.bank.SaveQuestions(ctx, questions)
	if err != nil {
		if derr := s.bank.DeleteDocument(ctx, docID); derr != nil {
			slog.Warn("failed to remove document after question save failed",
				"document_id", docID,
				"error", derr,
			)
		}
		return nil, fmt.Errorf("saving questions: %w", err)
	}

	slog.Info("document ingested",
		"document_id", docID,
		"document_type", docType,
		"filename", req.Filename,
		"questions", len(saved),
	)
	s.logEvent(ctx, Event{
		SessionID: req.SessionID,
		EventType: EventDocumentIngested,
		Data: map[string]any{
			"document_id":   docID,
			"document_type": docType,
			"questions":     len(saved),
		},
	})

	return &IngestResult{DocumentID: docID, DocumentType: docType, Questions: saved}, nil
}

// GenerateResult is a freshly assembled paper and its validation report.
type GenerateResult struct {
	Paper  session.Paper `json:"paper"`
	Report paper.Report  `json:"validation"`
}

// GeneratePaper assembles a paper from a snapshot of the bank and makes it
// the session's current paper.
func (s *Service) GeneratePaper(ctx context.Context, sessionID string, c paper.Constraints) (*GenerateResult, error) {
	pool, err := s.bank.Questions(ctx, questionbank.Filter{})
	if err != nil {
		return nil, fmt.Errorf("loading question pool: %w", err)
	}

	res, err := paper.Assemble(pool, c, s.newRand())
	if err != nil {
		slog.Warn("paper assembly failed",
			"session_id", sessionID,
			"pool", len(pool),
			"error", err,
		)
		return nil, err
	}

	now := s.now()
	p := session.Paper{
		Questions:   res.Questions,
		Constraints: c,
		Strategy:    res.Strategy,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, sessionID, p); err != nil {
		return nil, fmt.Errorf("saving paper: %w", err)
	}

	report := paper.Validate(p.Questions, c.TotalMarks, c.NumQuestions)
	slog.Info("paper generated",
		"session_id", sessionID,
		"strategy", res.Strategy,
		"attempts", res.Attempts,
		"questions", len(p.Questions),
		"marks", paper.TotalMarks(p.Questions),
		"valid", report.Valid,
	)
	s.logEvent(ctx, Event{
		SessionID: sessionID,
		EventType: EventPaperGenerated,
		Data: map[string]any{
			"strategy":  string(res.Strategy),
			"attempts":  res.Attempts,
			"questions": len(p.Questions),
			"marks":     paper.TotalMarks(p.Questions),
			"valid":     report.Valid,
		},
	})

	return &GenerateResult{Paper: p, Report: report}, nil
}

// CurrentPaper returns the session's current paper.
func (s *Service) CurrentPaper(ctx context.Context, sessionID string) (*session.Paper, error) {
	return s.sessions.Load(ctx, sessionID)
}

// ReplaceQuestion swaps one question of the current paper for an unused
// question with the same unit, Bloom level and marks.
func (s *Service) ReplaceQuestion(ctx context.Context, sessionID string, questionID int64) (*session.Paper, *questionbank.Question, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	var target *questionbank.Question
	for i := range p.Questions {
		if p.Questions[i].ID == questionID {
			target = &p.Questions[i]
			break
		}
	}
	if target == nil {
		return nil, nil, fmt.Errorf("question %d: %w", questionID, paper.ErrNotFound)
	}

	alternatives, err := s.bank.Questions(ctx, questionbank.Filter{
		Unit:       target.Unit,
		BloomLevel: target.BloomLevel,
		Marks:      target.Marks,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading alternatives: %w", err)
	}

	updated, replacement, err := paper.Replace(p.Questions, questionID, alternatives)
	if err != nil {
		return nil, nil, err
	}
	p.Questions = updated
	p.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sessionID, *p); err != nil {
		return nil, nil, fmt.Errorf("saving paper: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID: sessionID,
		EventType: EventQuestionReplaced,
		Data: map[string]any{
			"question_id":    questionID,
			"replacement_id": replacement.ID,
		},
	})
	return p, &replacement, nil
}

// RemoveQuestion drops one question from the current paper.
func (s *Service) RemoveQuestion(ctx context.Context, sessionID string, questionID int64) (*session.Paper, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := paper.Remove(p.Questions, questionID)
	if err != nil {
		return nil, err
	}
	p.Questions = updated
	p.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sessionID, *p); err != nil {
		return nil, fmt.Errorf("saving paper: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID: sessionID,
		EventType: EventQuestionRemoved,
		Data:      map[string]any{"question_id": questionID},
	})
	return p, nil
}

// Validation is a validation report plus, when the paper was generated with
// Bloom targets, whether its level mix is within tolerance of them.
type Validation struct {
	paper.Report
	BloomTargetMet *bool `json:"bloom_distribution_met,omitempty"`
}

// ValidatePaper checks the current paper against the constraints it was
// generated with. Both checks run on one loaded snapshot.
func (s *Service) ValidatePaper(ctx context.Context, sessionID string) (Validation, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Validation{}, err
	}

	v := Validation{Report: paper.Validate(p.Questions, p.Constraints.TotalMarks, p.Constraints.NumQuestions)}
	if len(p.Constraints.BloomPercent) > 0 {
		levels := make([]bloom.Level, 0, len(p.Questions))
		for _, q := range p.Questions {
			levels = append(levels, q.BloomLevel)
		}
		met := bloom.MeetsDistribution(levels, p.Constraints.BloomPercent)
		v.BloomTargetMet = &met
	}
	return v, nil
}

// Export renders the current paper and returns the file path.
func (s *Service) Export(ctx context.Context, sessionID string, format render.Format) (string, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	path, err := render.Render(format, p.Questions, s.exportDir, s.now())
	if err != nil {
		return "", err
	}
	slog.Info("paper exported", "session_id", sessionID, "format", format, "path", path)
	return path, nil
}

// Questions queries the bank.
func (s *Service) Questions(ctx context.Context, filter questionbank.Filter) ([]questionbank.Question, error) {
	return s.bank.Questions(ctx, filter)
}

// DeleteQuestion removes a question from the bank.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.bank.DeleteQuestion(ctx, id)
}

// Stats summarizes the bank.
func (s *Service) Stats(ctx context.Context) (questionbank.Stats, error) {
	return s.bank.Stats(ctx)
}

// Reset clears the bank, every session paper and all exported files.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if err := s.bank.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing question bank: %w", err)
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}

	exports, err := filepath.Glob(filepath.Join(s.exportDir, "question_paper_*"))
	if err != nil {
		return fmt.Errorf("listing exports: %w", err)
	}
	for _, path := range exports {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing export: %w", err)
		}
	}

	slog.Info("question bank reset", "session_id", sessionID, "exports_removed", len(exports))
	s.logEvent(ctx, Event{
		SessionID: sessionID,
		EventType: EventBankReset,
		Data:      map[string]any{"exports_removed": len(exports)},
	})
	return nil
}

func (s *Service) logEvent(ctx context.Context, event Event) {
	if event.SessionID == "" {
		return
	}
	if err := s.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to log event", "type", event.EventType, "error", err)
	}
}
