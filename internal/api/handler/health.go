package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mcoot/signmaze/internal/api/response"
	"github.com/mcoot/signmaze/internal/dependencies/clock"
	"github.com/mcoot/signmaze/internal/storage"
)

// healthPingTimeout bounds the storage check made by the health endpoint
const healthPingTimeout = 2 * time.Second

// HealthHandler reports liveness and storage connectivity
type HealthHandler struct {
	clock       clock.Clock
	pinger      storage.Pinger
	startedAt   time.Time
	environment string
}

// NewHealthHandler creates a new health handler. Uptime is measured from creation.
func NewHealthHandler(clock clock.Clock, pinger storage.Pinger, environment string) *HealthHandler {
	return &HealthHandler{
		clock:       clock,
		pinger:      pinger,
		startedAt:   clock.Now(),
		environment: environment,
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:           "ok",
		Timestamp:        h.clock.Now(),
		Uptime:           h.clock.Since(h.startedAt).Seconds(),
		StorageConnected: h.pinger.Ping(ctx) == nil,
		Environment:      h.environment,
	})
}
