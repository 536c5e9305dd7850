package repository

import (
	"context"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"

	"gorm.io/gorm"
)

// SnapshotRepository archives successful upstream fetches.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.ScoutingSnapshot) error
	GetLatest(ctx context.Context, source, eventKey string) (*models.ScoutingSnapshot, error)
	GetBySource(ctx context.Context, source, eventKey string, limit int) ([]models.ScoutingSnapshot, error)
	GetByDateRange(ctx context.Context, source string, from, to time.Time) ([]models.ScoutingSnapshot, error)
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *models.ScoutingSnapshot) error {
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *snapshotRepository) GetLatest(ctx context.Context, source, eventKey string) (*models.ScoutingSnapshot, error) {
	var snapshot models.ScoutingSnapshot
	err := r.db.WithContext(ctx).
		Where("source = ? AND event_key = ?", source, eventKey).
		Order("fetched_at DESC").
		First(&snapshot).
		Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *snapshotRepository) GetBySource(ctx context.Context, source, eventKey string, limit int) ([]models.ScoutingSnapshot, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := r.db.WithContext(ctx).Where("source = ?", source)
	if eventKey != "" {
		query = query.Where("event_key = ?", eventKey)
	}

	var snapshots []models.ScoutingSnapshot
	err := query.
		Order("fetched_at DESC").
		Limit(limit).
		Find(&snapshots).
		Error
	return snapshots, err
}

func (r *snapshotRepository) GetByDateRange(ctx context.Context, source string, from, to time.Time) ([]models.ScoutingSnapshot, error) {
	var snapshots []models.ScoutingSnapshot
	err := r.db.WithContext(ctx).
		Where("source = ? AND fetched_at BETWEEN ? AND ?", source, from, to).
		Order("fetched_at DESC").
		Find(&snapshots).
		Error
	return snapshots, err
}

func (r *snapshotRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("fetched_at < ?", olderThan).
		Delete(&models.ScoutingSnapshot{})
	return result.RowsAffected, result.Error
}
