package render

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-papers/internal/questionbank"
)

const (
	paperSheet   = "Paper"
	summarySheet = "Summary"
)

var paperColumns = []string{"No.", "Unit", "Question", "Marks", "Bloom's Level", "Difficulty"}

// XLSX renders the paper as a workbook with a question sheet and a summary
// sheet.
func XLSX(questions []questionbank.Question, path string, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paperSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	for i, h := range paperColumns {
		if err := setCell(f, paperSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(paperSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	for i, q := range questions {
		row := i + 2
		values := []any{fmt.Sprintf("Q%d", i+1), q.Unit, q.Text, q.Marks, string(q.BloomLevel), string(q.Difficulty)}
		for col, v := range values {
			if err := setCell(f, paperSheet, col+1, row, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(paperSheet, "C", "C", 80); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	levels, difficulties := tallies(questions)
	rows := [][]any{
		{title},
		{"Generated", now.Format("January 02, 2006 15:04")},
		{"Total Marks", totalMarks(questions)},
		{"Total Questions", len(questions)},
		{},
		{"Bloom's Level", "Questions"},
	}
	for _, c := range levels {
		rows = append(rows, []any{c.Label, c.N})
	}
	rows = append(rows, []any{}, []any{"Difficulty", "Questions"})
	for _, c := range difficulties {
		rows = append(rows, []any{c.Label, c.N})
	}
	for r, values := range rows {
		for col, v := range values {
			if err := setCell(f, summarySheet, col+1, r+1, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
	}
	return nil
}
