package questionbank_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

func sampleQuestions(docID int64) []questionbank.Question {
	return []questionbank.Question{
		{DocumentID: docID, Unit: "Unit 1", Text: "Define Arrays.", Marks: 2, BloomLevel: bloom.Remember, Difficulty: bloom.Easy},
		{DocumentID: docID, Unit: "Unit 1", Text: "Explain Linked List.", Marks: 5, BloomLevel: bloom.Understand, Difficulty: bloom.Medium},
		{DocumentID: docID, Unit: "Unit 2", Text: "Design a Hash Table.", Marks: 10, BloomLevel: bloom.Create, Difficulty: bloom.Hard},
	}
}

func seed(t *testing.T, store questionbank.Store) []questionbank.Question {
	t.Helper()
	ctx := context.Background()

	docID, err := store.SaveDocument(ctx, questionbank.Document{
		Filename:     "ds.pdf",
		DocumentType: "syllabus",
		Text:         "UNIT 1: Arrays",
	})
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}

	saved, err := store.SaveQuestions(ctx, sampleQuestions(docID))
	if err != nil {
		t.Fatalf("SaveQuestions() error = %v", err)
	}
	return saved
}

func TestMemoryStore_SaveAssignsIncreasingIDs(t *testing.T) {
	store := questionbank.NewMemoryStore()
	saved := seed(t, store)

	for i := 1; i < len(saved); i++ {
		if saved[i].ID <= saved[i-1].ID {
			t.Errorf("ids not increasing: %d then %d", saved[i-1].ID, saved[i].ID)
		}
	}
	for _, q := range saved {
		if q.CreatedAt.IsZero() {
			t.Errorf("question %d has no CreatedAt", q.ID)
		}
	}
}

func TestMemoryStore_Questions_Filter(t *testing.T) {
	store := questionbank.NewMemoryStore()
	seed(t, store)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter questionbank.Filter
		want   int
	}{
		{"no filter", questionbank.Filter{}, 3},
		{"unit", questionbank.Filter{Unit: "Unit 1"}, 2},
		{"bloom level", questionbank.Filter{BloomLevel: bloom.Create}, 1},
		{"difficulty", questionbank.Filter{Difficulty: bloom.Medium}, 1},
		{"marks", questionbank.Filter{Marks: 2}, 1},
		{"combined", questionbank.Filter{Unit: "Unit 2", Marks: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Questions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Questions() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(Questions()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMemoryStore_QuestionAndDelete(t *testing.T) {
	store := questionbank.NewMemoryStore()
	saved := seed(t, store)
	ctx := context.Background()

	got, err := store.Question(ctx, saved[1].ID)
	if err != nil {
		t.Fatalf("Question() error = %v", err)
	}
	if got.Text != "Explain Linked List." {
		t.Errorf("Text = %q", got.Text)
	}

	if err := store.DeleteQuestion(ctx, saved[1].ID); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if _, err := store.Question(ctx, saved[1].ID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("Question() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteQuestion(ctx, saved[1].ID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("second DeleteQuestion() error = %v, want ErrNotFound", err)
	}

	all, _ := store.Questions(ctx, questionbank.Filter{})
	if len(all) != 2 || all[0].ID != saved[0].ID || all[1].ID != saved[2].ID {
		t.Errorf("remaining questions out of order: %+v", all)
	}
}

func TestMemoryStore_SaveQuestions_RejectsInvalid(t *testing.T) {
	store := questionbank.NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name string
		q    questionbank.Question
	}{
		{"zero marks", questionbank.Question{Text: "Define X.", Marks: 0, BloomLevel: bloom.Remember}},
		{"empty text", questionbank.Question{Marks: 2, BloomLevel: bloom.Remember}},
		{"bad level", questionbank.Question{Text: "Define X.", Marks: 2, BloomLevel: "Memorise"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.SaveQuestions(ctx, []questionbank.Question{tt.q}); err == nil {
				t.Error("SaveQuestions() should reject invalid question")
			}
		})
	}

	all, _ := store.Questions(ctx, questionbank.Filter{})
	if len(all) != 0 {
		t.Errorf("invalid questions persisted: %d", len(all))
	}
}

func TestMemoryStore_ClearAll(t *testing.T) {
	store := questionbank.NewMemoryStore()
	saved := seed(t, store)
	ctx := context.Background()

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	all, _ := store.Questions(ctx, questionbank.Filter{})
	if len(all) != 0 {
		t.Errorf("questions after ClearAll = %d, want 0", len(all))
	}
	if _, err := store.GetDocument(ctx, saved[0].DocumentID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("GetDocument() after ClearAll error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	store := questionbank.NewMemoryStore()
	seed(t, store)

	st, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != 3 {
		t.Errorf("Total = %d, want 3", st.Total)
	}
	if st.TotalMarks != 17 {
		t.Errorf("TotalMarks = %d, want 17", st.TotalMarks)
	}
	if st.ByUnit["Unit 1"] != 2 || st.ByUnit["Unit 2"] != 1 {
		t.Errorf("ByUnit = %v", st.ByUnit)
	}
	if st.ByBloomLevel[bloom.Create] != 1 {
		t.Errorf("ByBloomLevel = %v", st.ByBloomLevel)
	}
	if st.ByDifficulty[bloom.Easy] != 1 {
		t.Errorf("ByDifficulty = %v", st.ByDifficulty)
	}
	if st.ByMarks[10] != 1 {
		t.Errorf("ByMarks = %v", st.ByMarks)
	}
}

func TestMemoryStore_GetDocument(t *testing.T) {
	store := questionbank.NewMemoryStore()
	ctx := context.Background()

	id, _ := store.SaveDocument(ctx, questionbank.Document{Filename: "notes.pdf", DocumentType: "lecture_notes", Text: "Lecture 1"})
	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Filename != "notes.pdf" || doc.UploadedAt.IsZero() {
		t.Errorf("document = %+v", doc)
	}
}

func TestMemoryStore_DeleteDocument(t *testing.T) {
	store := questionbank.NewMemoryStore()
	ctx := context.Background()

	saved := seed(t, store)
	other := seed(t, store)
	docID := saved[0].DocumentID

	if err := store.DeleteDocument(ctx, docID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, err := store.GetDocument(ctx, docID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("GetDocument() after delete error = %v, want ErrNotFound", err)
	}
	all, _ := store.Questions(ctx, questionbank.Filter{})
	if len(all) != len(other) {
		t.Fatalf("%d questions left, want %d", len(all), len(other))
	}
	for _, q := range all {
		if q.DocumentID == docID {
			t.Errorf("question %d of the deleted document survived", q.ID)
		}
	}
	if err := store.DeleteDocument(ctx, docID); !errors.Is(err, questionbank.ErrNotFound) {
		t.Errorf("second DeleteDocument() error = %v, want ErrNotFound", err)
	}
}
