package paper

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

const (
	// maxAttempts bounds the greedy selection loop.
	maxAttempts = 1000
	// minQuestions is the smallest paper either strategy may return.
	minQuestions = 3
	// acceptRatio is the share of the requested count the greedy strategy
	// must reach before its paper is accepted.
	acceptRatio = 0.7
	// overageTolerance caps the relaxed strategy's total at 110% of the target.
	overageTolerance = 1.1

	quotaCap      = 10.0
	markFitWeight = 2.0
)

// Strategy names the selection strategy that produced a paper.
type Strategy string

const (
	StrategyGreedy  Strategy = "greedy"
	StrategyRelaxed Strategy = "relaxed"
)

// Result is an assembled paper with diagnostics.
type Result struct {
	Questions []questionbank.Question
	Strategy  Strategy
	// Attempts counts iterations of the greedy loop.
	Attempts int
}

// Assemble selects questions from pool to satisfy c.
//
// A greedy best-fit pass runs first. Each step picks the unselected question
// that fits the remaining marks and scores highest on unmet unit and Bloom
// quotas plus closeness to the remaining marks; ties go to the earliest
// question in pool order. If that pass yields fewer than max(3, 0.7·n)
// questions, a relaxed pass takes questions from a shuffled pool while the
// total stays within 110% of the target, and succeeds with at least 3.
//
// The caller's constraint maps are never modified.
func Assemble(pool []questionbank.Question, c Constraints, rng *rand.Rand) (Result, error) {
	if len(pool) == 0 {
		return Result{}, ErrEmptyPool
	}
	if err := c.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid constraints: %w", err)
	}

	selected, attempts := selectGreedy(pool, c)
	threshold := math.Max(minQuestions, acceptRatio*float64(c.NumQuestions))
	if float64(len(selected)) >= threshold {
		return Result{Questions: selected, Strategy: StrategyGreedy, Attempts: attempts}, nil
	}

	relaxed := selectRelaxed(pool, c, rng)
	if len(relaxed) >= minQuestions {
		return Result{Questions: relaxed, Strategy: StrategyRelaxed, Attempts: attempts}, nil
	}

	return Result{}, fmt.Errorf("%w: greedy selected %d, relaxed selected %d of %d requested",
		ErrInfeasible, len(selected), len(relaxed), c.NumQuestions)
}

func selectGreedy(pool []questionbank.Question, c Constraints) ([]questionbank.Question, int) {
	unitNeed := make(map[string]float64, len(c.UnitMarks))
	for unit, marks := range c.UnitMarks {
		unitNeed[unit] = marks
	}
	bloomNeed := make(map[bloom.Level]float64, len(c.BloomPercent))
	for level, pct := range c.BloomPercent {
		bloomNeed[level] = pct / 100 * float64(c.TotalMarks)
	}

	var (
		selected  []questionbank.Question
		chosen    = make(map[int64]bool)
		remaining = c.TotalMarks
		attempts  = 0
	)

	for len(selected) < c.NumQuestions && remaining > 0 && attempts < maxAttempts {
		attempts++

		best, bestScore := -1, 0.0
		for i, q := range pool {
			if chosen[q.ID] || q.Marks <= 0 || q.Marks > remaining {
				continue
			}
			score := fitness(q, remaining, unitNeed, bloomNeed)
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}

		q := pool[best]
		selected = append(selected, q)
		chosen[q.ID] = true
		remaining -= q.Marks
		if _, ok := unitNeed[q.Unit]; ok {
			unitNeed[q.Unit] -= float64(q.Marks)
		}
		if _, ok := bloomNeed[q.BloomLevel]; ok {
			bloomNeed[q.BloomLevel] -= float64(q.Marks)
		}
	}

	return selected, attempts
}

// fitness scores a candidate. remaining and q.Marks are both positive.
func fitness(q questionbank.Question, remaining int, unitNeed map[string]float64, bloomNeed map[bloom.Level]float64) float64 {
	marks := float64(q.Marks)
	score := 0.0
	if need, ok := unitNeed[q.Unit]; ok && need > 0 {
		score += math.Min(quotaCap, need/marks)
	}
	if need, ok := bloomNeed[q.BloomLevel]; ok && need > 0 {
		score += math.Min(quotaCap, need/marks)
	}
	rem := float64(remaining)
	score += markFitWeight * (1 - math.Abs(rem-marks)/rem)
	return score
}

func selectRelaxed(pool []questionbank.Question, c Constraints, rng *rand.Rand) []questionbank.Question {
	shuffled := slices.Clone(pool)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	limit := overageTolerance * float64(c.TotalMarks)
	var (
		selected []questionbank.Question
		chosen   = make(map[int64]bool)
		total    = 0
	)
	for _, q := range shuffled {
		if len(selected) >= c.NumQuestions {
			break
		}
		if chosen[q.ID] || q.Marks <= 0 {
			continue
		}
		if float64(total+q.Marks) <= limit {
			selected = append(selected, q)
			chosen[q.ID] = true
			total += q.Marks
		}
	}
	return selected
}
