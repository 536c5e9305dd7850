package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var generatedAt = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)

func testReport() Report {
	return Report{
		Records: []models.BatteryRecord{
			{ID: "r1", BatteryID: "B1", Timestamp: generatedAt.Add(-time.Hour).UnixMilli(), Voltage: models.Float(12.6), Temperature: models.Float(31.5), Status: models.StateIdle, Notes: "fresh, charged"},
			{ID: "r2", BatteryID: "B1", Timestamp: generatedAt.UnixMilli(), Voltage: models.Float(11.7), Current: models.Float(4.25), Status: models.StateDischarging},
		},
		Summaries: []models.BatterySummary{
			{BatteryID: "B1", CycleCount: 2, CurrentVoltage: models.Float(11.7), Health: models.HealthWarning, Warnings: []string{"low voltage"}, Trend: models.TrendDeclining, LastUsed: generatedAt.UnixMilli(), Location: "pit"},
		},
		GeneratedAt: generatedAt,
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "XLSX": FormatXLSX, " json ": FormatJSON, "": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnsupportedFormat, errors.CodeOf(err))
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "batteries-20250315-140000.xlsx", FormatXLSX.FileName(generatedAt))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "12.6", rows[1][4])
	assert.Equal(t, "", rows[1][5])
	assert.Equal(t, "fresh, charged", rows[1][11])
	assert.Equal(t, "4.25", rows[2][5])
	assert.Equal(t, "2025-03-15T14:00:00Z", rows[2][3])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Report{GeneratedAt: generatedAt}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, float64(generatedAt.UnixMilli()), doc["generatedAt"])
	assert.Equal(t, []any{}, doc["records"])
	assert.Equal(t, []any{}, doc["summaries"])
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, testReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{recordsSheet, summarySheet, infoSheet}, f.GetSheetList())

	battery, err := f.GetCellValue(recordsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "B1", battery)

	health, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "warning", health)

	total, err := f.GetCellValue(infoSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	voltageRange, err := f.GetCellValue(infoSheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "11.70V - 12.60V", voltageRange)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, Report{GeneratedAt: generatedAt}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(recordsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Recorded At", header)
}
