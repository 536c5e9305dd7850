package cli

import (
	"context"
	"net/url"

	"github.com/dhruvbantval/3128-odyssey/internal/clients"
	"github.com/dhruvbantval/3128-odyssey/internal/config"
	"github.com/dhruvbantval/3128-odyssey/internal/handlers"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/repository"
	"github.com/dhruvbantval/3128-odyssey/internal/service"
	"github.com/dhruvbantval/3128-odyssey/internal/worker"
	"github.com/dhruvbantval/3128-odyssey/pkg/database"
	"github.com/dhruvbantval/3128-odyssey/pkg/redis"

	goredis "github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// app holds the wired services of a running server.
type app struct {
	cfg         *config.Config
	db          *gorm.DB
	redisClient *goredis.Client
	cache       repository.CacheRepository

	batteries service.BatteryService
	scouting  service.ScoutingService
	live      service.LiveService
}

func newBatteryService(cfg *config.Config) service.BatteryService {
	return service.NewBatteryService(repository.NewBatteryRepository(cfg.Battery.DataFile))
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := database.Connect(database.Config{
		Driver:     cfg.DB.Driver,
		DSN:        cfg.PostgresDSN(),
		SQLitePath: cfg.DB.SQLitePath,
		Debug:      cfg.App.Debug,
	})
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := database.Migrate(db); err != nil {
			database.Close(db)
			return nil, err
		}
	}
	a.db = db

	a.cache = repository.NewMemoryCacheRepository()
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.redisClient = client
		a.cache = repository.NewCacheRepository(client)
	}
	logger.Info().Str("backend", a.cache.Backend()).Msg("Response cache ready")

	var archive repository.SnapshotRepository
	if db != nil && cfg.Archive.Enabled {
		archive = repository.NewSnapshotRepository(db)
	}

	nexus := clients.NewNexusClient(clients.NexusConfig{
		BaseURL: cfg.Nexus.BaseURL,
		APIKey:  cfg.Nexus.APIKey,
		Timeout: cfg.Nexus.Timeout,
	})
	if !nexus.Enabled() {
		logger.Info().Msg("NEXUS_API_KEY not set, live queueing status disabled")
	}

	a.batteries = newBatteryService(cfg)
	a.scouting = service.NewScoutingService(
		clients.NewTBAClient(clients.TBAConfig{
			BaseURL: cfg.TBA.BaseURL,
			APIKey:  cfg.TBA.APIKey,
			Timeout: cfg.TBA.Timeout,
		}),
		clients.NewStatboticsClient(clients.StatboticsConfig{
			BaseURL: cfg.Statbotics.BaseURL,
			Timeout: cfg.Statbotics.Timeout,
		}),
		nexus,
		a.cache,
		archive,
		service.ScoutingConfig{
			StatboticsYear:   cfg.Statbotics.Year,
			MatchesTTL:       cfg.Cache.MatchesTTL,
			RankingsTTL:      cfg.Cache.RankingsTTL,
			TeamsTTL:         cfg.Cache.TeamsTTL,
			EPATTL:           cfg.Cache.EPATTL,
			StreamTTL:        cfg.Cache.StreamTTL,
			ArchiveRetention: cfg.Archive.Retention,
			StreamParent:     streamParent(cfg.App.FrontendURL),
		},
	)
	a.live = service.NewLiveService(a.batteries, a.scouting, worker.PollerConfig{
		Interval:    cfg.Live.Interval,
		MaxInterval: cfg.Live.MaxInterval,
		MaxFailures: cfg.Live.MaxFailures,
		HistorySize: cfg.Live.HistorySize,
	})

	return a, nil
}

// streamParent is the host Twitch embeds must name.
func streamParent(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Hostname() == "" {
		return "localhost"
	}
	return u.Hostname()
}

func (a *app) probes() []handlers.Probe {
	probes := []handlers.Probe{{
		Name: "cache",
		Stats: func(ctx context.Context) (any, error) {
			keys, err := a.cache.Keys(ctx, "*")
			if err != nil {
				return nil, err
			}
			return map[string]any{"backend": a.cache.Backend(), "keys": len(keys)}, nil
		},
	}}

	if a.db != nil {
		probes = append(probes, handlers.Probe{
			Name:  "database",
			Check: func(ctx context.Context) error { return database.Ping(ctx, a.db) },
			Stats: func(ctx context.Context) (any, error) { return database.Stats(ctx, a.db) },
		})
	}

	if a.redisClient != nil {
		probes = append(probes, handlers.Probe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return a.redisClient.Ping(ctx).Err() },
			Stats: func(ctx context.Context) (any, error) { return redis.GetStats(ctx, a.redisClient) },
		})
	}

	return probes
}

func (a *app) close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	database.Close(a.db)
}
