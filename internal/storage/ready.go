package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Pinger is implemented by storages that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitReady pings the storage until it answers, retrying forever at a fixed
// interval. It only gives up when ctx is cancelled.
func WaitReady(ctx context.Context, p Pinger, interval, pingTimeout time.Duration, logger *slog.Logger) error {
	attempt := 0
	operation := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return p.Ping(pingCtx)
	}

	notify := func(err error, next time.Duration) {
		logger.Warn("storage not reachable, retrying",
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt),
			slog.Duration("next_retry_in", next),
		)
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return err
	}

	logger.Info("storage connected", slog.Int("attempts", attempt))
	return nil
}
