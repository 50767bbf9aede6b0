// Package report renders a participant's attendance history as downloadable
// spreadsheets and PDFs.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	summarySheet = "summary"
	historySheet = "history"
)

var historyColumns = []string{"Date", "Program", "Check-in", "Check-out", "Note"}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename builds the attachment name for a participant export.
func Filename(p model.Participant, format string) string {
	return fmt.Sprintf("attendance-%d.%s", p.ID, format)
}

// HistoryXLSX renders entries into a workbook with a summary sheet and a
// history sheet.
func HistoryXLSX(p model.Participant, entries []model.AttendanceEntry, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Attendance History")
	_ = f.SetCellValue(summarySheet, "A3", "Participant")
	_ = f.SetCellValue(summarySheet, "B3", p.FullName)
	_ = f.SetCellValue(summarySheet, "A4", "Sessions")
	_ = f.SetCellValue(summarySheet, "B4", len(entries))
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", generated.Format(time.RFC3339))

	for i, col := range historyColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(historySheet, cell, col)
	}
	for i, e := range entries {
		row := i + 2
		_ = f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), e.Date)
		_ = f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), e.ProgramName)
		_ = f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), e.CheckIn)
		_ = f.SetCellValue(historySheet, fmt.Sprintf("D%d", row), e.CheckOut)
		_ = f.SetCellValue(historySheet, fmt.Sprintf("E%d", row), note(e))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HistoryPDF renders entries as a single table.
func HistoryPDF(p model.Participant, entries []model.AttendanceEntry, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Attendance History")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Participant: %s", p.FullName)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sessions: %d", len(entries)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC3339)))
	pdf.Ln(8)

	widths := []float64{28, 62, 28, 28, 44}
	pdf.SetFont("Arial", "B", 10)
	for i, col := range historyColumns {
		pdf.CellFormat(widths[i], 6, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, e := range entries {
		pdf.CellFormat(widths[0], 6, e.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(e.ProgramName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(e.CheckIn), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(e.CheckOut), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, tr(note(e)), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func note(e model.AttendanceEntry) string {
	if e.Record.Note == nil {
		return ""
	}
	return *e.Record.Note
}
