package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

var recordHeader = []string{
	"id", "batteryId", "timestamp", "recordedAt", "voltage", "current",
	"temperature", "status", "location", "grade", "tag", "notes",
}

func writeCSV(w io.Writer, records []models.BatteryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.ID,
			r.BatteryID,
			strconv.FormatInt(r.Timestamp, 10),
			time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339),
			formatFloat(r.Voltage),
			formatFloat(r.Current),
			formatFloat(r.Temperature),
			string(r.Status),
			r.Location,
			r.Grade,
			r.Tag,
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
