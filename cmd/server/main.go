package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/signmaze/internal/api"
	"github.com/mcoot/signmaze/internal/config"
	"github.com/mcoot/signmaze/internal/factory"
	"github.com/mcoot/signmaze/internal/services/identity"
	"github.com/mcoot/signmaze/internal/services/submission"
	"github.com/mcoot/signmaze/internal/storage"
	redisstorage "github.com/mcoot/signmaze/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("environment", cfg.Environment))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve immediately; health reports storage state until it answers
	go func() {
		if err := storage.WaitReady(ctx, app.Storage, cfg.StorageRetryInterval, cfg.StorageTimeout, logger); err != nil {
			logger.Warn("storage readiness wait stopped", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Environment:        cfg.Environment,
		Development:        cfg.IsDevelopment(),
		CORSOrigins:        cfg.CORSOrigins,
		Clock:              app.Clock,
		Storage:            app.Storage,
		IdentityService:    app.IdentityService,
		SubmissionService:  app.SubmissionService,
		LeaderboardService: app.LeaderboardService,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	serverConfig.ShutdownTimeout = cfg.ShutdownTimeout
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// factoryConfig maps environment configuration onto the application factory
func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		Identity: identity.Config{
			RecentWindow: cfg.IdentityRecentWindow,
		},
		Submission: submission.Config{
			DuplicateWindow:    cfg.DuplicateWindow,
			UnverifiedScoreCap: cfg.UnverifiedScoreCap,
		},
	}
	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.PoolSize = cfg.RedisPoolSize
		redisCfg.MinIdleConns = cfg.RedisMinIdleConns
		redisCfg.OperationTimeout = cfg.StorageTimeout
		fc.RedisConfig = &redisCfg
	}
	return fc
}
