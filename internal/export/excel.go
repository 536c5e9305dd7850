package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/analytics"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
	infoSheet    = "Info"

	dateLayout = "2006-01-02 15:04:05"

	// built-in excel number format "0.00"
	twoDecimals = 2
)

func writeWorkbook(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return err
	}
	if err := fillRecords(f, report.Records); err != nil {
		return err
	}

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return err
	}
	if err := fillSummary(f, report.Summaries); err != nil {
		return err
	}

	if _, err := f.NewSheet(infoSheet); err != nil {
		return err
	}
	if err := fillInfo(f, report); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	return f.Write(w)
}

func fillRecords(f *excelize.File, records []models.BatteryRecord) error {
	headers := []any{"Recorded At", "Battery", "Voltage (V)", "Current (A)", "Temperature (°C)", "Status", "Location", "Grade", "Tag", "Notes"}
	if err := f.SetSheetRow(recordsSheet, "A1", &headers); err != nil {
		return err
	}

	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: twoDecimals})
	if err != nil {
		return err
	}

	for i, r := range records {
		row := i + 2
		values := []any{
			time.UnixMilli(r.Timestamp).Format(dateLayout),
			r.BatteryID,
			cellFloat(r.Voltage),
			cellFloat(r.Current),
			cellFloat(r.Temperature),
			string(r.Status),
			r.Location,
			r.Grade,
			r.Tag,
			r.Notes,
		}
		if err := f.SetSheetRow(recordsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}

	last := len(records) + 1
	if len(records) > 0 {
		if err := f.SetCellStyle(recordsSheet, "C2", fmt.Sprintf("E%d", last), numberStyle); err != nil {
			return err
		}
		if err := highlight(f, recordsSheet, fmt.Sprintf("C2:C%d", last), "<", analytics.LowVoltage, "#FFCCCC"); err != nil {
			return err
		}
		if err := highlight(f, recordsSheet, fmt.Sprintf("E2:E%d", last), ">", analytics.HighTemperature, "#FFCCCC"); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(recordsSheet, "A", "J", 18); err != nil {
		return err
	}

	if len(records) > 1 {
		return addVoltageChart(f, last)
	}
	return nil
}

func fillSummary(f *excelize.File, summaries []models.BatterySummary) error {
	headers := []any{"Battery", "Health", "Warnings", "Cycles", "Voltage (V)", "Avg Voltage (V)", "Avg Temp (°C)", "Trend", "Last Used", "Location"}
	if err := f.SetSheetRow(summarySheet, "A1", &headers); err != nil {
		return err
	}

	for i, s := range summaries {
		values := []any{
			s.BatteryID,
			string(s.Health),
			strings.Join(s.Warnings, ", "),
			s.CycleCount,
			cellFloat(s.CurrentVoltage),
			analytics.Round2(s.AverageVoltage),
			analytics.Round2(s.AverageTemperature),
			string(s.Trend),
			time.UnixMilli(s.LastUsed).Format(dateLayout),
			s.Location,
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return f.SetColWidth(summarySheet, "A", "J", 18)
}

func fillInfo(f *excelize.File, report Report) error {
	rows := [][]any{
		{"Report Generated", report.GeneratedAt.Format(dateLayout)},
		{"Total Records", len(report.Records)},
		{"Batteries", len(report.Summaries)},
	}

	if len(report.Records) > 0 {
		first := time.UnixMilli(report.Records[0].Timestamp).Format(dateLayout)
		last := time.UnixMilli(report.Records[len(report.Records)-1].Timestamp).Format(dateLayout)
		rows = append(rows, []any{"Time Range", fmt.Sprintf("%s to %s", first, last)})

		if lo, hi, ok := voltageRange(report.Records); ok {
			rows = append(rows, []any{"Voltage Range", fmt.Sprintf("%.2fV - %.2fV", lo, hi)})
		}
	}

	for i, row := range rows {
		if err := f.SetSheetRow(infoSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(infoSheet, "A", "B", 24)
}

func addVoltageChart(f *excelize.File, lastRow int) error {
	return f.AddChart(recordsSheet, "L2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       "Voltage",
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", recordsSheet, lastRow),
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", recordsSheet, lastRow),
			},
		},
		Title: []excelize.RichTextRun{
			{Text: "Voltage Over Time"},
		},
		XAxis: excelize.ChartAxis{MajorGridLines: true},
		YAxis: excelize.ChartAxis{MajorGridLines: true},
		Dimension: excelize.ChartDimension{
			Width:  600,
			Height: 400,
		},
	})
}

func highlight(f *excelize.File, sheet, ref, criteria string, value float64, color string) error {
	style, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	if err != nil {
		return err
	}

	return f.SetConditionalFormat(sheet, ref, []excelize.ConditionalFormatOptions{
		{
			Type:     "cell",
			Criteria: criteria,
			Value:    fmt.Sprintf("%g", value),
			Format:   &style,
		},
	})
}

func voltageRange(records []models.BatteryRecord) (lo, hi float64, ok bool) {
	for _, r := range records {
		if r.Voltage == nil {
			continue
		}
		v := *r.Voltage
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, ok
}

// cellFloat leaves missing readings as empty cells.
func cellFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
