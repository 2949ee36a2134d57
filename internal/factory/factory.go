package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/signmaze/internal/dependencies/clock"
	"github.com/mcoot/signmaze/internal/dependencies/random"
	"github.com/mcoot/signmaze/internal/services/identity"
	"github.com/mcoot/signmaze/internal/services/leaderboard"
	"github.com/mcoot/signmaze/internal/services/submission"
	"github.com/mcoot/signmaze/internal/storage"
	"github.com/mcoot/signmaze/internal/storage/memory"
	redisstorage "github.com/mcoot/signmaze/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IdentityService    *identity.Service
	SubmissionService  *submission.Service
	LeaderboardService *leaderboard.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Identity and Submission fall back to their package defaults when zero
	Identity   identity.Config
	Submission submission.Config
}

// New creates a new application with all dependencies wired.
// Redis connections are opened lazily, so New succeeds while Redis is down.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		IdentityService:    identity.New(store, clk, rnd, logger, cfg.Identity),
		SubmissionService:  submission.New(store, clk, logger, cfg.Submission),
		LeaderboardService: leaderboard.New(store),
	}
}

// Close releases storage connections
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
