// Package paper assembles question papers from a question pool under mark,
// count, unit and Bloom-level constraints, and validates the result.
package paper

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

var (
	// ErrEmptyPool is returned when assembly is attempted with no questions.
	ErrEmptyPool = errors.New("question pool is empty")
	// ErrInfeasible is returned when neither assembly strategy reaches the
	// minimum question count.
	ErrInfeasible = errors.New("could not generate a paper with the given constraints")
	// ErrNotFound is returned when a question id is not part of the paper.
	ErrNotFound = errors.New("question not in paper")
	// ErrNoAlternative is returned when no unselected question shares the
	// unit, Bloom level and marks of the question being replaced.
	ErrNoAlternative = errors.New("no alternative questions available")
)

// Constraints describe the paper a caller wants.
//
// UnitMarks maps a unit name to the marks it should contribute.
// BloomPercent maps a Bloom level to the percentage of TotalMarks it should
// contribute. Both are optional.
type Constraints struct {
	TotalMarks   int                     `json:"total_marks"`
	NumQuestions int                     `json:"num_questions"`
	UnitMarks    map[string]float64      `json:"unit_distribution,omitempty"`
	BloomPercent map[bloom.Level]float64 `json:"bloom_distribution,omitempty"`
}

// Validate checks that the constraints are usable.
func (c Constraints) Validate() error {
	if c.TotalMarks <= 0 {
		return fmt.Errorf("total_marks must be positive, got %d", c.TotalMarks)
	}
	if c.NumQuestions <= 0 {
		return fmt.Errorf("num_questions must be positive, got %d", c.NumQuestions)
	}
	for unit, marks := range c.UnitMarks {
		if marks < 0 {
			return fmt.Errorf("unit %q: marks must not be negative", unit)
		}
	}
	for level, pct := range c.BloomPercent {
		if !level.Valid() {
			return fmt.Errorf("unknown bloom level %q", level)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("bloom level %s: percentage must be within 0..100, got %v", level, pct)
		}
	}
	return nil
}

// TotalMarks sums the marks of a list of questions.
func TotalMarks(questions []questionbank.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}
