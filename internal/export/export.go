package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Report is everything an export contains.
type Report struct {
	Records     []models.BatteryRecord
	Summaries   []models.BatterySummary
	GeneratedAt time.Time
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", errors.New().WithData(errors.ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

func (f Format) FileName(at time.Time) string {
	return fmt.Sprintf("batteries-%s.%s", at.UTC().Format("20060102-150405"), f)
}

// Write renders report in format to w.
func Write(w io.Writer, format Format, report Report) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, report.Records)
	case FormatXLSX:
		return writeWorkbook(w, report)
	case FormatJSON:
		return writeJSON(w, report)
	default:
		return errors.New().WithData(errors.ErrUnsupportedFormat, string(format))
	}
}

func writeJSON(w io.Writer, report Report) error {
	doc := struct {
		GeneratedAt int64                   `json:"generatedAt"`
		Records     []models.BatteryRecord  `json:"records"`
		Summaries   []models.BatterySummary `json:"summaries"`
	}{
		GeneratedAt: report.GeneratedAt.UnixMilli(),
		Records:     nonNilRecords(report.Records),
		Summaries:   report.Summaries,
	}
	if doc.Summaries == nil {
		doc.Summaries = []models.BatterySummary{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func nonNilRecords(records []models.BatteryRecord) []models.BatteryRecord {
	if records == nil {
		return []models.BatteryRecord{}
	}
	return records
}
