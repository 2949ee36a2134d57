package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/signmaze/internal/api/apierr"
	"github.com/mcoot/signmaze/internal/api/handler"
	apimiddleware "github.com/mcoot/signmaze/internal/api/middleware"
	"github.com/mcoot/signmaze/internal/dependencies/clock"
	"github.com/mcoot/signmaze/internal/middleware"
	"github.com/mcoot/signmaze/internal/services/identity"
	"github.com/mcoot/signmaze/internal/services/leaderboard"
	"github.com/mcoot/signmaze/internal/services/submission"
	"github.com/mcoot/signmaze/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Environment string
	Development bool
	CORSOrigins []string

	Clock              clock.Clock
	Storage            storage.Pinger
	IdentityService    *identity.Service
	SubmissionService  *submission.Service
	LeaderboardService *leaderboard.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	errs := apierr.NewWriter(cfg.Logger, cfg.Development)

	// Create handlers
	identityHandler := handler.NewIdentityHandler(cfg.IdentityService, errs)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService, cfg.SubmissionService, errs)
	healthHandler := handler.NewHealthHandler(cfg.Clock, cfg.Storage, cfg.Environment)

	// Outermost first: ids, logging, panics, CORS, then client resolution
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(apimiddleware.Recovery(cfg.Logger, errs))
	r.Use(apimiddleware.CORS(cfg.CORSOrigins))
	r.Use(apimiddleware.ClientInfo)

	api := r.PathPrefix("/api").Subrouter()

	// Identity routes
	api.HandleFunc("/user/identify", identityHandler.Identify).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/user/verify", identityHandler.Verify).Methods(http.MethodPost, http.MethodOptions)

	// Leaderboard routes
	api.HandleFunc("/leaderboard", leaderboardHandler.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/leaderboard", leaderboardHandler.Submit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/player/{deviceId}/stats", leaderboardHandler.Stats).Methods(http.MethodGet, http.MethodOptions)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet, http.MethodOptions)

	// Unmatched routes never reach r.Use middleware, so wrap them explicitly
	notFound := middleware.RequestID(middleware.Logging(cfg.Logger)(
		apimiddleware.CORS(cfg.CORSOrigins)(http.HandlerFunc(errs.NotFound))))
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}
