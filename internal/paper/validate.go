package paper

import (
	"fmt"
	"math"

	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

const (
	minCountRatio = 0.8
	maxMarksDrift = 0.2
)

// Report is the outcome of validating a paper.
type Report struct {
	Valid  bool     `json:"is_valid"`
	Issues []string `json:"issues"`
}

// Validate checks a paper against the requested total marks and question
// count. Every check runs; the report lists all failures.
func Validate(questions []questionbank.Question, totalMarks, numQuestions int) Report {
	issues := []string{}

	if float64(len(questions)) < float64(numQuestions)*minCountRatio {
		issues = append(issues, fmt.Sprintf("Only %d questions generated (target: %d)", len(questions), numQuestions))
	}

	actual := TotalMarks(questions)
	if math.Abs(float64(actual-totalMarks)) > float64(totalMarks)*maxMarksDrift {
		issues = append(issues, fmt.Sprintf("Total marks %d differs significantly from target %d", actual, totalMarks))
	}

	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.Text] {
			issues = append(issues, "Duplicate questions detected")
			break
		}
		seen[q.Text] = true
	}

	return Report{Valid: len(issues) == 0, Issues: issues}
}
