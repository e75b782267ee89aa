package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX renders the report as a workbook with Summary, Chapters, Topics and
// Samples sheets.
func XLSX(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary.
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, fmt.Errorf("xlsx summary sheet: %w", err)
	}
	summary := [][]any{
		{"Report ID", r.ID},
		{"File", r.Filename},
		{"Total questions", r.TotalQuestions},
		{"Classified", r.TotalQuestions - r.UnclassifiedCount},
		{"Unclassified", r.UnclassifiedCount},
		{"Primary subject", r.PrimarySubject},
		{"Analysis method", string(r.Method)},
		{"Providers used", strings.Join(r.ProvidersUsed, ", ")},
		{"Pages", r.Pages},
		{"OCR pages", r.OCRPages},
		{"Generated", r.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if err := writeRows(f, "Summary", summary); err != nil {
		return nil, err
	}
	_ = f.SetColWidth("Summary", "A", "A", 18)
	_ = f.SetColWidth("Summary", "B", "B", 48)

	if err := writeCounts(f, "Chapters", "Chapter", r.RankedChapters()); err != nil {
		return nil, err
	}
	if err := writeCounts(f, "Topics", "Topic", r.RankedTopics()); err != nil {
		return nil, err
	}

	rows := [][]any{{"#", "Question", "Chapter", "Topics", "Source", "Confidence"}}
	for i, s := range r.Samples {
		conf := any("")
		if s.Confidence != nil {
			conf = *s.Confidence
		}
		rows = append(rows, []any{i + 1, s.Question, s.Chapter, strings.Join(s.Topics, ", "), string(s.Source), conf})
	}
	if _, err := f.NewSheet("Samples"); err != nil {
		return nil, fmt.Errorf("xlsx samples sheet: %w", err)
	}
	if err := writeRows(f, "Samples", rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth("Samples", "B", "B", 80)
	_ = f.SetColWidth("Samples", "C", "D", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCounts(f *excelize.File, sheet, label string, counts []Count) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx %s sheet: %w", sheet, err)
	}
	rows := [][]any{{"Rank", label, "Questions"}}
	for i, c := range counts {
		rows = append(rows, []any{i + 1, c.Name, c.Count})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "B", "B", 32)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
