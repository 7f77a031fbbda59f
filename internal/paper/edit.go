package paper

import (
	"fmt"
	"slices"

	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

// Replace swaps the question with the given id for the first question in
// pool that shares its unit, Bloom level and marks and is not already in the
// paper. It returns the updated paper and the replacement.
func Replace(current []questionbank.Question, id int64, pool []questionbank.Question) ([]questionbank.Question, questionbank.Question, error) {
	i := indexOf(current, id)
	if i < 0 {
		return nil, questionbank.Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	target := current[i]

	inPaper := make(map[int64]bool, len(current))
	for _, q := range current {
		inPaper[q.ID] = true
	}

	for _, q := range pool {
		if inPaper[q.ID] {
			continue
		}
		if q.Unit == target.Unit && q.BloomLevel == target.BloomLevel && q.Marks == target.Marks {
			updated := slices.Clone(current)
			updated[i] = q
			return updated, q, nil
		}
	}
	return nil, questionbank.Question{}, fmt.Errorf("question %d: %w", id, ErrNoAlternative)
}

// Remove drops the question with the given id from the paper.
func Remove(current []questionbank.Question, id int64) ([]questionbank.Question, error) {
	i := indexOf(current, id)
	if i < 0 {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return slices.Delete(slices.Clone(current), i, i+1), nil
}

func indexOf(questions []questionbank.Question, id int64) int {
	return slices.IndexFunc(questions, func(q questionbank.Question) bool { return q.ID == id })
}
