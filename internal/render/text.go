package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

const lineWidth = 70

// Text renders the paper as plain text.
func Text(questions []questionbank.Question, now time.Time) string {
	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(rule)
	line(title)
	line(rule)
	line("")
	line("Generated: " + now.Format("January 02, 2006 15:04"))
	line(fmt.Sprintf("Total Marks: %d", totalMarks(questions)))
	line(fmt.Sprintf("Total Questions: %d", len(questions)))
	line("")

	line("INSTRUCTIONS:")
	line(thin)
	for _, s := range instructions {
		line(s)
	}
	line("")

	line("QUESTIONS:")
	line(thin)
	line("")
	for i, q := range questions {
		line(questionHeading(i+1, q))
		line("    " + q.Text)
		line("    " + annotation(q))
		line("")
	}

	levels, difficulties := tallies(questions)
	line(rule)
	line("PAPER STATISTICS:")
	line(thin)
	line("Bloom's Taxonomy Distribution:")
	for _, c := range levels {
		line(fmt.Sprintf("  %s: %d questions", c.Label, c.N))
	}
	line("")
	line("Difficulty Distribution:")
	for _, c := range difficulties {
		line(fmt.Sprintf("  %s: %d questions", c.Label, c.N))
	}
	line("")
	b.WriteString(rule)

	return b.String()
}
