package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/extract"
	"github.com/p-n-ai/pai-papers/internal/paper"
	"github.com/p-n-ai/pai-papers/internal/pipeline"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
	"github.com/p-n-ai/pai-papers/internal/render"
	"github.com/p-n-ai/pai-papers/internal/session"
)

const syllabusText = `Course Syllabus for Data Structures.
UNIT 1: Linear Structures. A sequence of nodes is called Linked List. Stacks and Queues
support constant time operations. Arrays store elements contiguously.
UNIT 2: Trees and Graphs. Binary Search Trees keep keys ordered. Graph Traversal is known as
visiting every vertex. Shortest Paths are computed with Dijkstra.`

var fixedNow = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

// eventRecorder keeps logged events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (r *eventRecorder) LogEvent(_ context.Context, event pipeline.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) Events() []pipeline.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.Event(nil), r.events...)
}

// failingQuestionStore accepts documents but rejects every question batch.
type failingQuestionStore struct {
	*questionbank.MemoryStore
}

func (failingQuestionStore) SaveQuestions(context.Context, []questionbank.Question) ([]questionbank.Question, error) {
	return nil, errors.New("insert questions: connection reset")
}

type fixture struct {
	svc    *pipeline.Service
	bank   *questionbank.MemoryStore
	events *eventRecorder
	dir    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		bank:   questionbank.NewMemoryStore(),
		events: &eventRecorder{},
		dir:    filepath.Join(t.TempDir(), "exports"),
	}
	f.svc = pipeline.NewService(pipeline.ServiceConfig{
		Bank:      f.bank,
		Sessions:  session.NewMemoryStore(),
		Events:    f.events,
		ExportDir: f.dir,
		Seed:      42,
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

// seedBank stores ten 10-mark Understand questions, five per unit, with
// ids 1-10 in order.
func seedBank(t *testing.T, bank questionbank.Store) []questionbank.Question {
	t.Helper()
	var qs []questionbank.Question
	for i := 0; i < 10; i++ {
		unit := "U1"
		if i >= 5 {
			unit = "U2"
		}
		qs = append(qs, questionbank.Question{
			Unit:       unit,
			Text:       "Explain topic " + string(rune('A'+i)) + ".",
			Marks:      10,
			BloomLevel: bloom.Understand,
			Difficulty: bloom.Medium,
		})
	}
	saved, err := bank.SaveQuestions(context.Background(), qs)
	if err != nil {
		t.Fatalf("SaveQuestions() error = %v", err)
	}
	return saved
}

var fiveFromTwoUnits = paper.Constraints{
	TotalMarks:   50,
	NumQuestions: 5,
	UnitMarks:    map[string]float64{"U1": 25, "U2": 25},
	BloomPercent: map[bloom.Level]float64{bloom.Understand: 50},
}

func TestService_SynthesizeAndClassify(t *testing.T) {
	f := newFixture(t)

	questions := f.svc.SynthesizeAndClassify(syllabusText, "syllabus")
	if len(questions) != 16 {
		t.Fatalf("len(questions) = %d, want 16", len(questions))
	}
	for _, q := range questions {
		want := bloom.Classify(q.Text, q.Marks)
		if q.BloomLevel != want.BloomLevel || q.Difficulty != want.Difficulty {
			t.Errorf("%q tagged %s/%s, classifier says %s/%s",
				q.Text, q.BloomLevel, q.Difficulty, want.BloomLevel, want.Difficulty)
		}
		if q.ID != 0 {
			t.Errorf("synthesized question has id %d", q.ID)
		}
	}
}

func TestService_Ingest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, pipeline.IngestRequest{
		SessionID: "s1",
		Filename:  "ds.txt",
		Data:      []byte(syllabusText),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.DocumentType != "syllabus" {
		t.Errorf("DocumentType = %q, want syllabus", res.DocumentType)
	}
	if len(res.Questions) != 16 {
		t.Errorf("len(Questions) = %d, want 16", len(res.Questions))
	}
	for _, q := range res.Questions {
		if q.ID == 0 || q.DocumentID != res.DocumentID {
			t.Errorf("question not persisted against document: %+v", q)
		}
	}

	doc, err := f.bank.GetDocument(ctx, res.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Filename != "ds.txt" || !doc.UploadedAt.Equal(fixedNow) {
		t.Errorf("document = %+v", doc)
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].EventType != pipeline.EventDocumentIngested {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Data["questions"] != 16 {
		t.Errorf("event questions = %v, want 16", events[0].Data["questions"])
	}
}

func TestService_Ingest_ExtractionFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, pipeline.IngestRequest{SessionID: "s1", Filename: "tiny.txt", Data: []byte("UNIT 1: Arrays")})
	if !errors.Is(err, extract.ErrExtraction) {
		t.Fatalf("Ingest() error = %v, want ErrExtraction", err)
	}

	if _, err := f.bank.GetDocument(ctx, 1); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("document stored despite failed extraction: %v", err)
	}
	st, _ := f.svc.Stats(ctx)
	if st.Total != 0 {
		t.Errorf("Stats().Total = %d, want 0", st.Total)
	}
	if len(f.events.Events()) != 0 {
		t.Error("no event should be logged for a failed upload")
	}
}

func TestService_Ingest_SameSeedSameQuestions(t *testing.T) {
	a, b := newFixture(t), newFixture(t)
	ctx := context.Background()
	req := pipeline.IngestRequest{Filename: "ds.txt", DocumentType: "syllabus", Data: []byte(syllabusText)}

	ra, err := a.svc.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	rb, _ := b.svc.Ingest(ctx, req)
	for i := range ra.Questions {
		if ra.Questions[i].Text != rb.Questions[i].Text || ra.Questions[i].Marks != rb.Questions[i].Marks {
			t.Fatalf("question %d differs between identically seeded services", i)
		}
	}
}

func TestService_GeneratePaper(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedBank(t, f.bank)

	res, err := f.svc.GeneratePaper(ctx, "s1", fiveFromTwoUnits)
	if err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}
	if len(res.Paper.Questions) != 5 || paper.TotalMarks(res.Paper.Questions) != 50 {
		t.Errorf("paper = %d questions / %d marks, want 5 / 50",
			len(res.Paper.Questions), paper.TotalMarks(res.Paper.Questions))
	}
	if !res.Report.Valid {
		t.Errorf("Report = %+v, want valid", res.Report)
	}

	current, err := f.svc.CurrentPaper(ctx, "s1")
	if err != nil {
		t.Fatalf("CurrentPaper() error = %v", err)
	}
	if len(current.Questions) != 5 || current.Strategy != paper.StrategyGreedy {
		t.Errorf("current paper = %+v", current)
	}

	if _, err := f.svc.CurrentPaper(ctx, "s2"); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("CurrentPaper(other session) error = %v, want ErrNoPaper", err)
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].EventType != pipeline.EventPaperGenerated {
		t.Errorf("events = %+v", events)
	}
}

func TestService_GeneratePaper_EmptyBank(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GeneratePaper(context.Background(), "s1", fiveFromTwoUnits)
	if !errors.Is(err, paper.ErrEmptyPool) {
		t.Errorf("GeneratePaper() error = %v, want ErrEmptyPool", err)
	}
}

func TestService_ReplaceAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := seedBank(t, f.bank)

	if _, err := f.svc.GeneratePaper(ctx, "s1", fiveFromTwoUnits); err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}

	// The paper holds ids 1, 6, 2, 7, 3; the first unused U1 question is id 4.
	p, replacement, err := f.svc.ReplaceQuestion(ctx, "s1", saved[0].ID)
	if err != nil {
		t.Fatalf("ReplaceQuestion() error = %v", err)
	}
	if replacement.ID != saved[3].ID {
		t.Errorf("replacement id = %d, want %d", replacement.ID, saved[3].ID)
	}
	if p.Questions[0].ID != saved[3].ID {
		t.Errorf("paper[0] = %d, want %d", p.Questions[0].ID, saved[3].ID)
	}

	if _, _, err := f.svc.ReplaceQuestion(ctx, "s1", 999); !errors.Is(err, paper.ErrNotFound) {
		t.Errorf("ReplaceQuestion(missing) error = %v, want ErrNotFound", err)
	}

	// Leave only the U1 questions already in the paper (2, 3, 4).
	for _, q := range []questionbank.Question{saved[0], saved[4]} {
		if err := f.svc.DeleteQuestion(ctx, q.ID); err != nil {
			t.Fatalf("DeleteQuestion() error = %v", err)
		}
	}
	if _, _, err := f.svc.ReplaceQuestion(ctx, "s1", saved[1].ID); !errors.Is(err, paper.ErrNoAlternative) {
		t.Errorf("ReplaceQuestion(exhausted) error = %v, want ErrNoAlternative", err)
	}

	p, err = f.svc.RemoveQuestion(ctx, "s1", saved[5].ID)
	if err != nil {
		t.Fatalf("RemoveQuestion() error = %v", err)
	}
	if len(p.Questions) != 4 {
		t.Errorf("len(Questions) after remove = %d, want 4", len(p.Questions))
	}
	if _, err := f.svc.RemoveQuestion(ctx, "s1", saved[5].ID); !errors.Is(err, paper.ErrNotFound) {
		t.Errorf("RemoveQuestion(again) error = %v, want ErrNotFound", err)
	}

	report, err := f.svc.ValidatePaper(ctx, "s1")
	if err != nil {
		t.Fatalf("ValidatePaper() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("4 of 5 questions, 40 of 50 marks should still be valid: %+v", report)
	}

	var types []string
	for _, e := range f.events.Events() {
		types = append(types, e.EventType)
	}
	want := []string{
		pipeline.EventPaperGenerated,
		pipeline.EventQuestionReplaced,
		pipeline.EventQuestionRemoved,
	}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestService_NoPaperErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.ReplaceQuestion(ctx, "s1", 1); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("ReplaceQuestion() error = %v, want ErrNoPaper", err)
	}
	if _, err := f.svc.RemoveQuestion(ctx, "s1", 1); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("RemoveQuestion() error = %v, want ErrNoPaper", err)
	}
	if _, err := f.svc.ValidatePaper(ctx, "s1"); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("ValidatePaper() error = %v, want ErrNoPaper", err)
	}
	if _, err := f.svc.Export(ctx, "s1", render.FormatText); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("Export() error = %v, want ErrNoPaper", err)
	}
}

func TestService_ExportAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedBank(t, f.bank)

	if _, err := f.svc.GeneratePaper(ctx, "s1", fiveFromTwoUnits); err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}

	path, err := f.svc.Export(ctx, "s1", render.FormatText)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	if err := f.svc.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("export file still present after reset: %v", err)
	}
	if _, err := f.svc.CurrentPaper(ctx, "s1"); !errors.Is(err, session.ErrNoPaper) {
		t.Errorf("CurrentPaper() after reset error = %v, want ErrNoPaper", err)
	}
	all, _ := f.svc.Questions(ctx, questionbank.Filter{})
	if len(all) != 0 {
		t.Errorf("bank has %d questions after reset", len(all))
	}
}

func TestService_DeleteQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := seedBank(t, f.bank)

	if err := f.svc.DeleteQuestion(ctx, saved[0].ID); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if err := f.svc.DeleteQuestion(ctx, saved[0].ID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("DeleteQuestion(again) error = %v, want ErrNotFound", err)
	}
	st, _ := f.svc.Stats(ctx)
	if st.Total != 9 {
		t.Errorf("Stats().Total = %d, want 9", st.Total)
	}
}

func TestService_Ingest_QuestionSaveFailureRemovesDocument(t *testing.T) {
	bank := failingQuestionStore{questionbank.NewMemoryStore()}
	events := &eventRecorder{}
	svc := pipeline.NewService(pipeline.ServiceConfig{
		Bank:      bank,
		Events:    events,
		ExportDir: t.TempDir(),
		Seed:      42,
	})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, pipeline.IngestRequest{
		SessionID: "s1",
		Filename:  "ds.txt",
		Data:      []byte(syllabusText),
	}); err == nil {
		t.Fatal("Ingest() should fail when questions cannot be saved")
	}

	if _, err := bank.GetDocument(ctx, 1); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("GetDocument() error = %v, want the document removed", err)
	}
	if len(events.Events()) != 0 {
		t.Errorf("events = %+v, want none for a failed upload", events.Events())
	}
}

func TestService_ValidatePaper_BloomTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedBank(t, f.bank)

	// Every seeded question is Understand, so a 50% target is missed.
	if _, err := f.svc.GeneratePaper(ctx, "targets", fiveFromTwoUnits); err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}
	v, err := f.svc.ValidatePaper(ctx, "targets")
	if err != nil {
		t.Fatalf("ValidatePaper() error = %v", err)
	}
	if v.BloomTargetMet == nil || *v.BloomTargetMet {
		t.Errorf("BloomTargetMet = %v, want false", v.BloomTargetMet)
	}

	if _, err := f.svc.GeneratePaper(ctx, "plain", paper.Constraints{TotalMarks: 30, NumQuestions: 3}); err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}
	v, err = f.svc.ValidatePaper(ctx, "plain")
	if err != nil {
		t.Fatalf("ValidatePaper() error = %v", err)
	}
	if v.BloomTargetMet != nil {
		t.Errorf("BloomTargetMet = %v, want unset without targets", *v.BloomTargetMet)
	}
	if !v.Valid {
		t.Errorf("3 questions, 30 marks should be valid: %+v", v.Report)
	}
}

func TestService_Export_SessionsDoNotShareFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedBank(t, f.bank)

	if _, err := f.svc.GeneratePaper(ctx, "alice", fiveFromTwoUnits); err != nil {
		t.Fatalf("GeneratePaper(alice) error = %v", err)
	}
	if _, err := f.svc.GeneratePaper(ctx, "bob", paper.Constraints{TotalMarks: 30, NumQuestions: 3}); err != nil {
		t.Fatalf("GeneratePaper(bob) error = %v", err)
	}

	alicePath, err := f.svc.Export(ctx, "alice", render.FormatText)
	if err != nil {
		t.Fatalf("Export(alice) error = %v", err)
	}
	bobPath, err := f.svc.Export(ctx, "bob", render.FormatText)
	if err != nil {
		t.Fatalf("Export(bob) error = %v", err)
	}
	if alicePath == bobPath {
		t.Fatalf("both sessions exported to %q", alicePath)
	}

	for path, want := range map[string]string{
		alicePath: "Total Questions: 5",
		bobPath:   "Total Questions: 3",
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s does not contain %q", filepath.Base(path), want)
		}
	}

	// Reset still finds every export by its prefix.
	if err := f.svc.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	for _, path := range []string{alicePath, bobPath} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still present after reset", filepath.Base(path))
		}
	}
}
