package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port            string
		Debug           bool
		FrontendURL     string
		LogLevel        string
		LogPretty       bool
		ShutdownTimeout time.Duration
	}
	DB struct {
		Driver     string
		Host       string
		Port       string
		User       string
		Password   string
		DBName     string
		SSLMode    string
		SQLitePath string
	}
	Redis struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
	}
	Battery struct {
		DataFile string
	}
	TBA struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}
	Statbotics struct {
		BaseURL string
		Year    int
		Timeout time.Duration
	}
	Nexus struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}
	Live struct {
		AutoStart   bool
		EventKey    string
		TeamNumber  int
		Interval    time.Duration
		MaxInterval time.Duration
		MaxFailures int
		HistorySize int
	}
	Cache struct {
		MatchesTTL  time.Duration
		RankingsTTL time.Duration
		TeamsTTL    time.Duration
		EPATTL      time.Duration
		StreamTTL   time.Duration
	}
	Archive struct {
		Enabled   bool
		Retention time.Duration
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
	}
	Export struct {
		OutputDir string
	}
}

const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type setting struct {
	key string
	env string
	def any
}

var settings = []setting{
	// App
	{"app.port", "PORT", "8080"},
	{"app.debug", "DEBUG", false},
	{"app.frontend_url", "FRONTEND_URL", "http://localhost:3000"},
	{"app.log_level", "LOG_LEVEL", "info"},
	{"app.log_pretty", "LOG_PRETTY", false},
	{"app.shutdown_timeout", "SHUTDOWN_TIMEOUT", 10 * time.Second},

	// DB
	{"db.driver", "DB_DRIVER", DriverSQLite},
	{"db.host", "DB_HOST", "localhost"},
	{"db.port", "DB_PORT", "5432"},
	{"db.user", "DB_USER", "postgres"},
	{"db.password", "DB_PASSWORD", "postgres"},
	{"db.name", "DB_NAME", "narpit"},
	{"db.sslmode", "DB_SSLMODE", "disable"},
	{"db.sqlite_path", "DB_SQLITE_PATH", "./data/narpit.db"},

	// Redis
	{"redis.enabled", "REDIS_ENABLED", false},
	{"redis.host", "REDIS_HOST", "localhost"},
	{"redis.port", "REDIS_PORT", "6379"},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},

	// Battery
	{"battery.data_file", "BATTERY_DATA_FILE", "./data/batteries.json"},

	// Upstreams
	{"tba.base_url", "TBA_BASE_URL", "https://www.thebluealliance.com/api/v3"},
	{"tba.api_key", "TBA_API_KEY", ""},
	{"tba.timeout", "TBA_TIMEOUT", 10 * time.Second},
	{"statbotics.base_url", "STATBOTICS_BASE_URL", "https://api.statbotics.io/v3"},
	{"statbotics.year", "STATBOTICS_YEAR", 2025},
	{"statbotics.timeout", "STATBOTICS_TIMEOUT", 10 * time.Second},
	{"nexus.base_url", "NEXUS_BASE_URL", "https://frc.nexus/api/v1"},
	{"nexus.api_key", "NEXUS_API_KEY", ""},
	{"nexus.timeout", "NEXUS_TIMEOUT", 10 * time.Second},

	// Live polling
	{"live.auto_start", "LIVE_AUTO_START", false},
	{"live.event_key", "LIVE_EVENT_KEY", ""},
	{"live.team_number", "TEAM_NUMBER", 3128},
	{"live.interval", "LIVE_INTERVAL", 5 * time.Second},
	{"live.max_interval", "LIVE_MAX_INTERVAL", 60 * time.Second},
	{"live.max_failures", "LIVE_MAX_FAILURES", 3},
	{"live.history_size", "LIVE_HISTORY_SIZE", 100},

	// Cache
	{"cache.matches_ttl", "CACHE_MATCHES_TTL", 30 * time.Second},
	{"cache.rankings_ttl", "CACHE_RANKINGS_TTL", time.Minute},
	{"cache.teams_ttl", "CACHE_TEAMS_TTL", time.Hour},
	{"cache.epa_ttl", "CACHE_EPA_TTL", 10 * time.Minute},
	{"cache.stream_ttl", "CACHE_STREAM_TTL", 5 * time.Minute},

	// Archive
	{"archive.enabled", "ARCHIVE_ENABLED", true},
	{"archive.retention", "ARCHIVE_RETENTION", 7 * 24 * time.Hour},

	// Rate Limit
	{"rate_limit.rps", "RATE_LIMIT_RPS", 10},
	{"rate_limit.burst", "RATE_LIMIT_BURST", 20},

	// Export
	{"export.output_dir", "EXPORT_OUTPUT_DIR", "./data/exports"},
}

// Load reads .env, the optional config file and the environment, in
// increasing order of precedence.
func Load(configFile string) (*Config, error) {
	errFactory := errors.New()

	_ = godotenv.Load()

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, fmt.Errorf("read %s: %w", configFile, err))
		}
	}

	cfg := &Config{}

	// App
	cfg.App.Port = v.GetString("app.port")
	cfg.App.Debug = v.GetBool("app.debug")
	cfg.App.FrontendURL = v.GetString("app.frontend_url")
	cfg.App.LogLevel = v.GetString("app.log_level")
	cfg.App.LogPretty = v.GetBool("app.log_pretty")
	cfg.App.ShutdownTimeout = v.GetDuration("app.shutdown_timeout")

	// DB
	cfg.DB.Driver = strings.ToLower(v.GetString("db.driver"))
	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetString("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")
	cfg.DB.SSLMode = v.GetString("db.sslmode")
	cfg.DB.SQLitePath = v.GetString("db.sqlite_path")

	// Redis
	cfg.Redis.Enabled = v.GetBool("redis.enabled")
	cfg.Redis.Host = v.GetString("redis.host")
	cfg.Redis.Port = v.GetString("redis.port")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.Battery.DataFile = v.GetString("battery.data_file")

	// Upstreams
	cfg.TBA.BaseURL = strings.TrimRight(v.GetString("tba.base_url"), "/")
	cfg.TBA.APIKey = v.GetString("tba.api_key")
	cfg.TBA.Timeout = v.GetDuration("tba.timeout")
	cfg.Statbotics.BaseURL = strings.TrimRight(v.GetString("statbotics.base_url"), "/")
	cfg.Statbotics.Year = v.GetInt("statbotics.year")
	cfg.Statbotics.Timeout = v.GetDuration("statbotics.timeout")
	cfg.Nexus.BaseURL = strings.TrimRight(v.GetString("nexus.base_url"), "/")
	cfg.Nexus.APIKey = v.GetString("nexus.api_key")
	cfg.Nexus.Timeout = v.GetDuration("nexus.timeout")

	// Live polling
	cfg.Live.AutoStart = v.GetBool("live.auto_start")
	cfg.Live.EventKey = v.GetString("live.event_key")
	cfg.Live.TeamNumber = v.GetInt("live.team_number")
	cfg.Live.Interval = v.GetDuration("live.interval")
	cfg.Live.MaxInterval = v.GetDuration("live.max_interval")
	cfg.Live.MaxFailures = v.GetInt("live.max_failures")
	cfg.Live.HistorySize = v.GetInt("live.history_size")

	// Cache
	cfg.Cache.MatchesTTL = v.GetDuration("cache.matches_ttl")
	cfg.Cache.RankingsTTL = v.GetDuration("cache.rankings_ttl")
	cfg.Cache.TeamsTTL = v.GetDuration("cache.teams_ttl")
	cfg.Cache.EPATTL = v.GetDuration("cache.epa_ttl")
	cfg.Cache.StreamTTL = v.GetDuration("cache.stream_ttl")

	cfg.Archive.Enabled = v.GetBool("archive.enabled")
	cfg.Archive.Retention = v.GetDuration("archive.retention")

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = v.GetInt("rate_limit.rps")
	cfg.RateLimit.Burst = v.GetInt("rate_limit.burst")

	cfg.Export.OutputDir = v.GetString("export.output_dir")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.DB.Driver {
	case DriverNone, DriverPostgres, DriverSQLite:
	default:
		return errFactory.WithMessage(errors.ErrInvalidConfig, fmt.Sprintf("unknown database driver %q", c.DB.Driver))
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.App.LogLevel)
	}

	if c.Live.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "live.interval must be positive")
	}
	if c.Live.MaxInterval < c.Live.Interval {
		return errFactory.WithData(errors.ErrInvalidInterval, "live.max_interval must not be shorter than live.interval")
	}
	if c.Live.MaxFailures < 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "live.max_failures must be at least 1")
	}
	if c.Live.HistorySize < 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "live.history_size must be at least 1")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "rate limit values must be positive")
	}
	if c.Battery.DataFile == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "battery data file is required")
	}

	return nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.Port, c.DB.SSLMode)
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
