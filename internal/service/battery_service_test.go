package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/analytics"
	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/export"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceNow = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)

func newBatteryService(t *testing.T) BatteryService {
	t.Helper()

	clock := serviceNow
	repo := repository.NewBatteryRepository(
		filepath.Join(t.TempDir(), "batteries.json"),
		repository.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
	svc := NewBatteryService(repo).(*batteryService)
	svc.now = func() time.Time { return clock }
	return svc
}

func addReading(t *testing.T, svc BatteryService, id string, voltage, temp float64) models.BatteryRecord {
	t.Helper()
	record, err := svc.AddRecord(context.Background(), models.NewBatteryRecord{
		BatteryID:   id,
		Voltage:     models.Float(voltage),
		Temperature: models.Float(temp),
		Status:      models.StateDischarging,
	})
	require.NoError(t, err)
	return record
}

func TestAddRecordDefaultsAndTrims(t *testing.T) {
	svc := newBatteryService(t)

	record, err := svc.AddRecord(context.Background(), models.NewBatteryRecord{
		BatteryID: "  B-07 ",
		Voltage:   models.Float(12.6),
		Location:  " pit ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "B-07", record.BatteryID)
	assert.Equal(t, models.StateIdle, record.Status)
	assert.Equal(t, "pit", record.Location)
	assert.Equal(t, serviceNow.Add(time.Minute).UnixMilli(), record.Timestamp)
}

func TestAddRecordValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      models.NewBatteryRecord
		message string
	}{
		{
			name:    "missing id and voltage",
			in:      models.NewBatteryRecord{},
			message: "batteryId is required; voltage is required",
		},
		{
			name:    "negative voltage",
			in:      models.NewBatteryRecord{BatteryID: "B1", Voltage: models.Float(-1)},
			message: "voltage must be a non-negative number",
		},
		{
			name:    "nan temperature",
			in:      models.NewBatteryRecord{BatteryID: "B1", Voltage: models.Float(12), Temperature: models.Float(math.NaN())},
			message: "temperature must be a number",
		},
		{
			name:    "unknown status",
			in:      models.NewBatteryRecord{BatteryID: "B1", Voltage: models.Float(12), Status: "resting"},
			message: `status must be one of charging, discharging, idle (got "resting")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newBatteryService(t)

			_, err := svc.AddRecord(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrValidation))
			assert.Equal(t, tt.message, err.Error())

			records, err := svc.ListRecords(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestUpdateStatusPatchesLatestRecord(t *testing.T) {
	svc := newBatteryService(t)
	ctx := context.Background()

	addReading(t, svc, "B1", 12.8, 25)
	latest := addReading(t, svc, "B1", 12.5, 27)

	notes := "swapped at match 12"
	patched, err := svc.UpdateStatus(ctx, models.BatteryStatusUpdate{
		BatteryID: "B1",
		Status:    models.StateCharging,
		Notes:     &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, latest.ID, patched.ID)
	assert.Equal(t, models.StateCharging, patched.Status)
	assert.Equal(t, notes, patched.Notes)

	blank := "   "
	patched, err = svc.UpdateStatus(ctx, models.BatteryStatusUpdate{BatteryID: "B1", Status: models.StateIdle, Notes: &blank})
	require.NoError(t, err)
	assert.Equal(t, notes, patched.Notes)

	records, err := svc.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.StateDischarging, records[0].Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	svc := newBatteryService(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, models.BatteryStatusUpdate{Status: models.StateIdle})
	assert.True(t, errors.HasCode(err, errors.ErrValidation))

	_, err = svc.UpdateStatus(ctx, models.BatteryStatusUpdate{BatteryID: "B1", Status: "full"})
	assert.True(t, errors.HasCode(err, errors.ErrValidation))

	_, err = svc.UpdateStatus(ctx, models.BatteryStatusUpdate{BatteryID: "ghost", Status: models.StateIdle})
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))
}

func TestClearRecordsRequiresConfirmation(t *testing.T) {
	svc := newBatteryService(t)
	ctx := context.Background()
	addReading(t, svc, "B1", 12.8, 25)

	err := svc.ClearRecords(ctx, false)
	assert.True(t, errors.HasCode(err, errors.ErrConfirmationRequired))

	records, err := svc.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, svc.ClearRecords(ctx, true))
	records, err = svc.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummaries(t *testing.T) {
	svc := newBatteryService(t)
	ctx := context.Background()

	addReading(t, svc, "B2", 12.9, 25)
	addReading(t, svc, "B1", 12.4, 30)
	addReading(t, svc, "B1", 11.6, 52)

	summaries, err := svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "B1", summaries[0].BatteryID)
	assert.Equal(t, "B2", summaries[1].BatteryID)

	b1, err := svc.Summary(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, 2, b1.CycleCount)
	assert.Equal(t, 11.6, *b1.CurrentVoltage)
	assert.Equal(t, models.HealthCritical, b1.Health)
	assert.Equal(t, []string{analytics.WarnLowVoltage, analytics.WarnHighTemperature}, b1.Warnings)

	_, err = svc.Summary(ctx, "B9")
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))
}

func TestExportJSON(t *testing.T) {
	svc := newBatteryService(t)
	addReading(t, svc, "B1", 12.4, 30)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf, export.FormatJSON))

	var report struct {
		Records   []models.BatteryRecord  `json:"records"`
		Summaries []models.BatterySummary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Len(t, report.Records, 1)
	assert.Len(t, report.Summaries, 1)
}
