package storage_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/signmaze/internal/storage"
	"github.com/mcoot/signmaze/internal/testutil"
)

type flakyPinger struct {
	failures int32
	calls    atomic.Int32
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	n := p.calls.Add(1)
	if n <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReadyRetriesUntilPingSucceeds(t *testing.T) {
	p := &flakyPinger{failures: 3}

	err := storage.WaitReady(context.Background(), p, time.Millisecond, time.Second, testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestWaitReadyStopsWhenContextCancelled(t *testing.T) {
	p := &flakyPinger{failures: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := storage.WaitReady(ctx, p, time.Millisecond, time.Second, testutil.NopLogger())
	require.Error(t, err)
	assert.Greater(t, p.calls.Load(), int32(1))
}
