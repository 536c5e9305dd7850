package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/analytics"
	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/export"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/repository"
)

type BatteryService interface {
	AddRecord(ctx context.Context, in models.NewBatteryRecord) (models.BatteryRecord, error)
	ListRecords(ctx context.Context) ([]models.BatteryRecord, error)
	UpdateStatus(ctx context.Context, update models.BatteryStatusUpdate) (models.BatteryRecord, error)
	ClearRecords(ctx context.Context, confirmed bool) error
	Summaries(ctx context.Context) ([]models.BatterySummary, error)
	Summary(ctx context.Context, batteryID string) (models.BatterySummary, error)
	Export(ctx context.Context, w io.Writer, format export.Format) error
}

type batteryService struct {
	repo repository.BatteryRepository
	now  func() time.Time
}

func NewBatteryService(repo repository.BatteryRepository) BatteryService {
	return &batteryService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *batteryService) AddRecord(ctx context.Context, in models.NewBatteryRecord) (models.BatteryRecord, error) {
	record, err := validateNewRecord(in)
	if err != nil {
		return models.BatteryRecord{}, err
	}

	stored, err := s.repo.Append(ctx, record)
	if err != nil {
		return models.BatteryRecord{}, err
	}

	logger.Info().
		Str("battery", stored.BatteryID).
		Float64("voltage", *stored.Voltage).
		Str("status", string(stored.Status)).
		Msg("Battery record added")
	return stored, nil
}

func (s *batteryService) ListRecords(ctx context.Context) ([]models.BatteryRecord, error) {
	return s.repo.List(ctx)
}

func (s *batteryService) UpdateStatus(ctx context.Context, update models.BatteryStatusUpdate) (models.BatteryRecord, error) {
	errFactory := errors.New()

	batteryID := strings.TrimSpace(update.BatteryID)
	if batteryID == "" {
		return models.BatteryRecord{}, errFactory.WithMessage(errors.ErrValidation, "batteryId is required")
	}
	if !update.Status.Valid() {
		return models.BatteryRecord{}, errFactory.WithMessage(errors.ErrValidation,
			fmt.Sprintf("status must be one of charging, discharging, idle (got %q)", update.Status))
	}

	// empty notes leave the stored notes alone
	notes := update.Notes
	if notes != nil && strings.TrimSpace(*notes) == "" {
		notes = nil
	}

	patched, err := s.repo.PatchLatestForDevice(ctx, batteryID, update.Status, notes)
	if err != nil {
		return models.BatteryRecord{}, err
	}

	logger.Info().Str("battery", batteryID).Str("status", string(update.Status)).Msg("Battery status updated")
	return patched, nil
}

func (s *batteryService) ClearRecords(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return errors.New().WithMessage(errors.ErrConfirmationRequired,
			"clearing all battery records cannot be undone; confirm to proceed")
	}

	if err := s.repo.Clear(ctx); err != nil {
		return err
	}

	logger.Warn().Str("path", s.repo.Path()).Msg("All battery records cleared")
	return nil
}

func (s *batteryService) Summaries(ctx context.Context) ([]models.BatterySummary, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SortedSummaries(analytics.Summarize(records, s.now())), nil
}

func (s *batteryService) Summary(ctx context.Context, batteryID string) (models.BatterySummary, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return models.BatterySummary{}, err
	}

	summary, ok := analytics.Summarize(records, s.now())[batteryID]
	if !ok {
		return models.BatterySummary{}, errors.New().WithMessage(errors.ErrResourceNotFound,
			fmt.Sprintf("battery %q has no records", batteryID))
	}
	return summary, nil
}

func (s *batteryService) Export(ctx context.Context, w io.Writer, format export.Format) error {
	records, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	report := export.Report{
		Records:     records,
		Summaries:   analytics.SortedSummaries(analytics.Summarize(records, now)),
		GeneratedAt: now,
	}
	return export.Write(w, format, report)
}

// validateNewRecord is the boundary check for caller-supplied readings.
func validateNewRecord(in models.NewBatteryRecord) (models.BatteryRecord, error) {
	var problems []string

	batteryID := strings.TrimSpace(in.BatteryID)
	if batteryID == "" {
		problems = append(problems, "batteryId is required")
	}

	switch {
	case in.Voltage == nil:
		problems = append(problems, "voltage is required")
	case !isFinite(*in.Voltage) || *in.Voltage < 0:
		problems = append(problems, "voltage must be a non-negative number")
	}

	if in.Current != nil && !isFinite(*in.Current) {
		problems = append(problems, "current must be a number")
	}
	if in.Temperature != nil && !isFinite(*in.Temperature) {
		problems = append(problems, "temperature must be a number")
	}

	status := in.Status
	if status == "" {
		status = models.StateIdle
	}
	if !status.Valid() {
		problems = append(problems, fmt.Sprintf("status must be one of charging, discharging, idle (got %q)", in.Status))
	}

	if len(problems) > 0 {
		return models.BatteryRecord{}, errors.New().WithMessage(errors.ErrValidation, strings.Join(problems, "; "))
	}

	return models.BatteryRecord{
		BatteryID:   batteryID,
		Voltage:     in.Voltage,
		Current:     in.Current,
		Temperature: in.Temperature,
		Status:      status,
		Location:    strings.TrimSpace(in.Location),
		Grade:       strings.TrimSpace(in.Grade),
		Tag:         strings.TrimSpace(in.Tag),
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
