package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

func sampleEntries() (model.Participant, []model.AttendanceEntry) {
	note := "arrived with family"
	p := model.Participant{ID: 12, FullName: "Madhavi Dasi"}
	entries := []model.AttendanceEntry{
		{
			Record:      model.AttendanceRecord{Note: &note},
			ProgramName: "Sunday Feast",
			Date:        "2025-03-16",
			CheckIn:     "5:30 PM",
			CheckOut:    "—",
		},
		{
			ProgramName: "Bhagavad Gita Class",
			Date:        "2025-03-12",
			CheckIn:     "7:00 AM",
			CheckOut:    "8:30 AM",
		},
	}
	return p, entries
}

func TestHistoryXLSX(t *testing.T) {
	p, entries := sampleEntries()
	generated := time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)

	data, err := HistoryXLSX(p, entries, generated)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, historySheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Madhavi Dasi", name)

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, historyColumns, rows[0])
	assert.Equal(t, []string{"2025-03-16", "Sunday Feast", "5:30 PM", "—", "arrived with family"}, rows[1])
	assert.Equal(t, "8:30 AM", rows[2][3])
}

func TestHistoryPDF(t *testing.T) {
	p, entries := sampleEntries()

	data, err := HistoryPDF(p, entries, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	empty, err := HistoryPDF(p, nil, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestContentTypeAndFilename(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
	assert.Equal(t, "application/octet-stream", ContentType("csv"))
	assert.Equal(t, "attendance-12.xlsx", Filename(model.Participant{ID: 12}, FormatXLSX))
}
