package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

// PDF renders the paper as an A4 PDF at path.
func PDF(questions []questionbank.Question, path string, now time.Time) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	doc.Ln(5)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 8, "Generated: "+now.Format("January 02, 2006"), "", 1, "", false, 0, "")
	doc.CellFormat(0, 8, fmt.Sprintf("Total Marks: %d", totalMarks(questions)), "", 1, "", false, 0, "")
	doc.CellFormat(0, 8, fmt.Sprintf("Total Questions: %d", len(questions)), "", 1, "", false, 0, "")
	doc.Ln(5)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Instructions:", "", 1, "", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 6, strings.Join(instructions, "\n"), "", "", false)
	doc.Ln(5)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Questions:", "", 1, "", false, 0, "")
	doc.Ln(3)

	for i, q := range questions {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(0, 8, tr(questionHeading(i+1, q)), "", 1, "", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 6, tr(q.Text), "", "", false)
		doc.SetFont("Helvetica", "I", 8)
		doc.CellFormat(0, 5, tr(annotation(q)), "", 1, "", false, 0, "")
		doc.Ln(3)
	}

	levels, difficulties := tallies(questions)
	doc.Ln(2)
	tallyTable(doc, "Bloom's Taxonomy Distribution", levels)
	doc.Ln(4)
	tallyTable(doc, "Difficulty Distribution", difficulties)

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func tallyTable(doc *fpdf.Fpdf, heading string, rows []count) {
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 8, heading, "", 1, "", false, 0, "")
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(60, 7, "Category", "1", 0, "", false, 0, "")
	doc.CellFormat(30, 7, "Questions", "1", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		doc.CellFormat(60, 7, r.Label, "1", 0, "", false, 0, "")
		doc.CellFormat(30, 7, fmt.Sprintf("%d", r.N), "1", 1, "C", false, 0, "")
	}
}
