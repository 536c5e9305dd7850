package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	DSN        string
	SQLitePath string
	Debug      bool
}

// Connect opens the scouting archive database. It returns (nil, nil) for
// DriverNone.
func Connect(config Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch config.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverPostgres:
		dialector = postgres.Open(config.DSN)
	case DriverSQLite:
		if dir := filepath.Dir(config.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.New().Wrap(errors.ErrInitFailed, err)
			}
		}
		dialector = sqlite.Open(config.SQLitePath)
	default:
		return nil, errors.New().WithMessage(errors.ErrInvalidConfig, fmt.Sprintf("unknown database driver %q", config.Driver))
	}

	logMode := gormlogger.Warn
	if config.Debug {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, fmt.Errorf("failed to connect to database: %w", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, fmt.Errorf("failed to get sql.DB: %w", err))
	}

	if config.Driver == DriverSQLite {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Info().Str("driver", config.Driver).Msg("Database connected")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ScoutingSnapshot{}); err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, fmt.Errorf("failed to migrate models: %w", err))
	}

	if err := createIndexes(db); err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, fmt.Errorf("failed to create indexes: %w", err))
	}

	logger.Info().Msg("Database migration completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_scouting_snapshots_source_event_fetched ON scouting_snapshots(source, event_key, fetched_at DESC)").Error
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports pool usage and the archive size.
func Stats(ctx context.Context, db *gorm.DB) (map[string]any, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	var snapshots int64
	if err := db.WithContext(ctx).Model(&models.ScoutingSnapshot{}).Count(&snapshots).Error; err != nil {
		return nil, err
	}

	pool := sqlDB.Stats()
	return map[string]any{
		"dialect":          db.Dialector.Name(),
		"snapshots":        snapshots,
		"open_connections": pool.OpenConnections,
		"in_use":           pool.InUse,
		"idle":             pool.Idle,
		"wait_count":       pool.WaitCount,
	}, nil
}

func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
