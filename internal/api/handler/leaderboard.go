package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/signmaze/internal/api/apierr"
	"github.com/mcoot/signmaze/internal/api/middleware"
	"github.com/mcoot/signmaze/internal/api/request"
	"github.com/mcoot/signmaze/internal/api/response"
	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/services/leaderboard"
	"github.com/mcoot/signmaze/internal/services/submission"
)

// LeaderboardHandler handles score submission, ranking and stats endpoints
type LeaderboardHandler struct {
	leaderboardService *leaderboard.Service
	submissionService  *submission.Service
	errs               *apierr.Writer
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(
	leaderboardService *leaderboard.Service,
	submissionService *submission.Service,
	errs *apierr.Writer,
) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		submissionService:  submissionService,
		errs:               errs,
	}
}

// List handles GET /api/leaderboard
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := queryInt(query.Get("page"), 1)
	limit := queryInt(query.Get("limit"), leaderboard.DefaultLimit)

	result, err := h.leaderboardService.GetLeaderboard(r.Context(), page, limit)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(result))
}

// Submit handles POST /api/leaderboard
func (h *LeaderboardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitScoreRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	if req.DeviceID == "" || req.Score == nil || req.Level == nil {
		h.errs.Write(w, r, apierr.NewInvalidRequestError("Missing required fields: deviceId, score, level"))
		return
	}

	record, err := h.submissionService.Submit(r.Context(), submission.Input{
		DeviceID:        model.DeviceID(req.DeviceID),
		Score:           *req.Score,
		Level:           *req.Level,
		GameTime:        valueOrZero(req.GameTime),
		EnemiesDefeated: valueOrZero(req.EnemiesDefeated),
		TreasuresFound:  valueOrZero(req.TreasuresFound),
		Client:          middleware.GetClient(r.Context()),
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ScoreFromModel(record))
}

// Stats handles GET /api/player/{deviceId}/stats
func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	deviceID := model.DeviceID(mux.Vars(r)["deviceId"])

	stats, err := h.leaderboardService.GetPlayerStats(r.Context(), deviceID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerStatsFromModel(stats))
}

// queryInt parses a positive integer query value, returning def otherwise
func queryInt(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
