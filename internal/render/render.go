// Package render exports a question paper as plain text, PDF or a
// spreadsheet.
package render

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

// Format is an export format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

const title = "EXAMINATION QUESTION PAPER"

var instructions = []string{
	"1. Answer all questions.",
	"2. Each question carries marks as indicated.",
	"3. Write clearly and legibly.",
}

// ParseFormat parses a format name. "txt" is accepted for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes the paper to a new file in dir and returns its path.
func Render(format Format, questions []questionbank.Question, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	switch format {
	case FormatPDF, FormatText, FormatXLSX:
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	// Concurrent exports in the same second must not share a file.
	f, err := os.CreateTemp(dir, fmt.Sprintf("question_paper_%s_*.%s", now.Format("20060102_150405"), format.Extension()))
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}

	switch format {
	case FormatPDF:
		err = PDF(questions, path, now)
	case FormatText:
		err = os.WriteFile(path, []byte(Text(questions, now)), 0o644)
	case FormatXLSX:
		err = XLSX(questions, path, now)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("rendering %s: %w", format, err)
	}
	return path, nil
}

func questionHeading(i int, q questionbank.Question) string {
	return fmt.Sprintf("Q%d. [%d marks] - %s", i, q.Marks, q.Unit)
}

func annotation(q questionbank.Question) string {
	return fmt.Sprintf("[Bloom's Level: %s, Difficulty: %s]", q.BloomLevel, q.Difficulty)
}

func totalMarks(questions []questionbank.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}

type count struct {
	Label string
	N     int
}

// tallies counts questions per Bloom level and per difficulty, in taxonomy
// and difficulty order, omitting empty rows.
func tallies(questions []questionbank.Question) (levels, difficulties []count) {
	byLevel := map[bloom.Level]int{}
	byDifficulty := map[bloom.Difficulty]int{}
	for _, q := range questions {
		byLevel[q.BloomLevel]++
		byDifficulty[q.Difficulty]++
	}
	for _, l := range bloom.Levels() {
		if n := byLevel[l]; n > 0 {
			levels = append(levels, count{string(l), n})
		}
	}
	for _, d := range bloom.Difficulties() {
		if n := byDifficulty[d]; n > 0 {
			difficulties = append(difficulties, count{string(d), n})
		}
	}
	return levels, difficulties
}
