package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the server configuration, read from the environment
type Config struct {
	Environment string `env:"APP_ENV"   envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Host            string        `env:"HOST"             envDefault:""`
	Port            int           `env:"PORT"             envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envDefault:"http://localhost:3000,http://127.0.0.1:3000" envSeparator:","`

	StorageType          string        `env:"STORAGE_TYPE"           envDefault:"memory"`
	RedisURL             string        `env:"REDIS_URL"              envDefault:"redis://localhost:6379"`
	RedisPoolSize        int           `env:"REDIS_POOL_SIZE"        envDefault:"10"`
	RedisMinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS"   envDefault:"2"`
	StorageTimeout       time.Duration `env:"STORAGE_TIMEOUT"        envDefault:"5s"`
	StorageRetryInterval time.Duration `env:"STORAGE_RETRY_INTERVAL" envDefault:"5s"`

	IdentityRecentWindow time.Duration `env:"IDENTITY_RECENT_WINDOW"      envDefault:"24h"`
	DuplicateWindow      time.Duration `env:"DUPLICATE_SUBMISSION_WINDOW" envDefault:"60s"`
	UnverifiedScoreCap   int64         `env:"UNVERIFIED_SCORE_CAP"        envDefault:"100000"`
}

// Load reads configuration from the environment. Outside production the
// given dotenv files (default ".env") are loaded first; variables already
// set in the environment take precedence over file values.
func Load(envFiles ...string) (Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		if len(envFiles) == 0 {
			envFiles = []string{".env"}
		}
		for _, f := range envFiles {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageMemory, StorageRedis)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.StorageType == StorageRedis && c.RedisURL == "" {
		return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
	}
	if c.StorageRetryInterval <= 0 {
		return errors.New("STORAGE_RETRY_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment reports whether error responses may include internal detail
func (c Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
