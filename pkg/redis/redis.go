package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func Connect(ctx context.Context, config Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.New().Wrap(errors.ErrInitFailed, fmt.Errorf("failed to connect to Redis at %s: %w", config.Addr, err))
	}

	version := ""
	if info, err := client.Info(ctx, "server").Result(); err == nil {
		version = parseInfo(info, "redis_version")["redis_version"]
	}
	logger.Info().Str("addr", config.Addr).Str("version", version).Msg("Redis connected")

	return client, nil
}

var statKeys = []string{
	"redis_version",
	"connected_clients",
	"used_memory_human",
	"used_memory_peak_human",
	"total_commands_processed",
	"keyspace_hits",
	"keyspace_misses",
	"uptime_in_seconds",
}

// GetStats returns selected INFO fields plus the cache hit rate.
func GetStats(ctx context.Context, client *redis.Client) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	info, err := client.Info(ctx).Result()
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrUnavailable, err)
	}

	stats := parseInfo(info, statKeys...)
	stats["hit_rate"] = hitRate(stats["keyspace_hits"], stats["keyspace_misses"])
	return stats, nil
}

// parseInfo extracts keys from the "key:value" lines of an INFO reply.
func parseInfo(info string, keys ...string) map[string]string {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	stats := make(map[string]string, len(keys))
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if found && wanted[key] {
			stats[key] = value
		}
	}
	return stats
}

func hitRate(hits, misses string) string {
	h, _ := strconv.ParseFloat(hits, 64)
	m, _ := strconv.ParseFloat(misses, 64)
	if h+m == 0 {
		return "0.00"
	}
	return strconv.FormatFloat(h/(h+m), 'f', 2, 64)
}
