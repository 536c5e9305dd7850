package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/google/uuid"
)

// BatteryRepository is the append-only battery record store backed by a
// single JSON file.
type BatteryRepository interface {
	Append(ctx context.Context, record models.BatteryRecord) (models.BatteryRecord, error)
	List(ctx context.Context) ([]models.BatteryRecord, error)
	Clear(ctx context.Context) error
	PatchLatestForDevice(ctx context.Context, batteryID string, status models.BatteryState, notes *string) (models.BatteryRecord, error)
	Path() string
}

type batteryRepository struct {
	path  string
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

type BatteryRepositoryOption func(*batteryRepository)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) BatteryRepositoryOption {
	return func(r *batteryRepository) { r.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() string) BatteryRepositoryOption {
	return func(r *batteryRepository) { r.newID = newID }
}

func NewBatteryRepository(path string, opts ...BatteryRepositoryOption) BatteryRepository {
	r := &batteryRepository{
		path:  path,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *batteryRepository) Path() string {
	return r.path
}

func (r *batteryRepository) Append(ctx context.Context, record models.BatteryRecord) (models.BatteryRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.BatteryRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return models.BatteryRecord{}, err
	}

	record.ID = r.newID()
	record.Timestamp = r.now().UnixMilli()

	raw, err := json.Marshal(record)
	if err != nil {
		return models.BatteryRecord{}, errors.New().Wrap(errors.ErrStorageWrite, err)
	}

	if err := r.save(append(entries, raw)); err != nil {
		return models.BatteryRecord{}, err
	}

	return record, nil
}

// List never fails on a missing or unreadable file; both read as empty.
func (r *batteryRepository) List(ctx context.Context) ([]models.BatteryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	entries, err := r.load()
	r.mu.Unlock()

	if err != nil {
		logger.WarnWithCode(err).Str("path", r.path).Msg("Battery data unreadable, treating as empty")
		return []models.BatteryRecord{}, nil
	}

	records := make([]models.BatteryRecord, 0, len(entries))
	for i, raw := range entries {
		var rec models.BatteryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping malformed battery record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *batteryRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save(nil)
}

func (r *batteryRepository) PatchLatestForDevice(ctx context.Context, batteryID string, status models.BatteryState, notes *string) (models.BatteryRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.BatteryRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	entries, err := r.load()
	if err != nil {
		return models.BatteryRecord{}, err
	}

	idx := -1
	var latest models.BatteryRecord
	for i := len(entries) - 1; i >= 0; i-- {
		var rec models.BatteryRecord
		if json.Unmarshal(entries[i], &rec) == nil && rec.BatteryID == batteryID {
			idx, latest = i, rec
			break
		}
	}
	if idx < 0 {
		return models.BatteryRecord{}, errFactory.WithMessage(errors.ErrResourceNotFound,
			fmt.Sprintf("battery %q has no records", batteryID))
	}

	latest.Status = status
	latest.Timestamp = r.now().UnixMilli()

	changes := map[string]any{
		"status":    status,
		"timestamp": latest.Timestamp,
	}
	if notes != nil {
		latest.Notes = *notes
		changes["notes"] = *notes
	}

	patched, err := patchFields(entries[idx], changes)
	if err != nil {
		return models.BatteryRecord{}, errFactory.Wrap(errors.ErrStorageWrite, err)
	}

	out := make([]json.RawMessage, len(entries))
	copy(out, entries)
	out[idx] = patched

	if err := r.save(out); err != nil {
		return models.BatteryRecord{}, err
	}

	return latest, nil
}

// patchFields rewrites only the named keys of a stored object, keeping any
// fields this version does not know about.
func patchFields(raw json.RawMessage, changes map[string]any) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for key, value := range changes {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	return json.Marshal(fields)
}

// load must be called with mu held.
func (r *batteryRepository) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New().Wrap(errors.ErrStorageRead, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.New().Wrap(errors.ErrStorageRead, fmt.Errorf("decode %s: %w", r.path, err))
	}
	return entries, nil
}

// save must be called with mu held. The file is replaced atomically.
func (r *batteryRepository) save(entries []json.RawMessage) error {
	errFactory := errors.New()

	if entries == nil {
		entries = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".batteries-*.json")
	if err != nil {
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return errFactory.Wrap(errors.ErrStorageWrite, err)
	}
	return nil
}
