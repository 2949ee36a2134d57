package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/signmaze/internal/api"
	"github.com/mcoot/signmaze/internal/api/apierr"
	"github.com/mcoot/signmaze/internal/api/response"
	"github.com/mcoot/signmaze/internal/factory"
	"github.com/mcoot/signmaze/internal/model"
)

type APISuite struct {
	suite.Suite
	app     *factory.TestApp
	handler http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	s.handler = api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Environment:        "test",
		CORSOrigins:        []string{"http://localhost:3000"},
		Clock:              s.app.Clock,
		Storage:            s.app.Storage,
		IdentityService:    s.app.IdentityService,
		SubmissionService:  s.app.SubmissionService,
		LeaderboardService: s.app.LeaderboardService,
	})
}

// device is a simulated client with a fixed address and user agent
type device struct {
	address   string
	userAgent string
}

var (
	alice = device{address: "203.0.113.10", userAgent: "Alice/1.0"}
	bob   = device{address: "203.0.113.20", userAgent: "Bob/1.0"}
)

func (s *APISuite) request(d device, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		s.Require().NoError(err)
		reqBody = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if d.address != "" {
		req.Header.Set("X-Forwarded-For", d.address)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *APISuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), "body: %s", rr.Body.String())
}

func (s *APISuite) identify(d device) response.IdentifyResponse {
	rr := s.request(d, http.MethodPost, "/api/user/identify", map[string]any{})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var resp response.IdentifyResponse
	s.decode(rr, &resp)
	return resp
}

func (s *APISuite) submit(d device, body map[string]any) *httptest.ResponseRecorder {
	return s.request(d, http.MethodPost, "/api/leaderboard", body)
}

func (s *APISuite) errorCode(rr *httptest.ResponseRecorder) string {
	var body apierr.ErrorResponse
	s.decode(rr, &body)
	return body.Code
}

// Health

func (s *APISuite) TestHealth() {
	s.app.MockClock.Advance(90 * time.Second)

	rr := s.request(alice, http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusOK, rr.Code)

	var resp response.HealthResponse
	s.decode(rr, &resp)
	s.Equal("ok", resp.Status)
	s.True(resp.StorageConnected)
	s.Equal("test", resp.Environment)
	s.InDelta(90.0, resp.Uptime, 0.001)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

// Identify

func (s *APISuite) TestIdentifyCreatesIdentity() {
	resp := s.identify(alice)

	s.Equal("token-1", resp.DeviceID)
	s.True(model.DisplayID(resp.DisplayID).Valid(), resp.DisplayID)
	s.False(resp.IsVerified)
	s.False(resp.IsExisting)
}

func (s *APISuite) TestIdentifyAcceptsEmptyBody() {
	rr := s.request(alice, http.MethodPost, "/api/user/identify", nil)
	s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *APISuite) TestIdentifyRejectsMalformedBody() {
	rr := s.request(alice, http.MethodPost, "/api/user/identify", "{not json")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal(apierr.CodeInvalidRequest, s.errorCode(rr))
}

func (s *APISuite) TestIdentifyWithExistingDeviceID() {
	created := s.identify(alice)

	rr := s.request(device{address: "198.51.100.1", userAgent: "Other/2.0"}, http.MethodPost, "/api/user/identify",
		map[string]any{"existingDeviceId": created.DeviceID})
	s.Equal(http.StatusOK, rr.Code)

	var resp response.IdentifyResponse
	s.decode(rr, &resp)
	s.True(resp.IsExisting)
	s.Equal(created.DeviceID, resp.DeviceID)
	s.Equal(created.DisplayID, resp.DisplayID)
}

func (s *APISuite) TestIdentifyMatchesRecentDevice() {
	created := s.identify(alice)

	rr := s.request(alice, http.MethodPost, "/api/user/identify", map[string]any{
		"fingerprint": map[string]any{"screenResolution": "1920x1080"},
	})
	s.Equal(http.StatusOK, rr.Code)

	var resp response.IdentifyResponse
	s.decode(rr, &resp)
	s.True(resp.IsExisting)
	s.Equal(created.DeviceID, resp.DeviceID)
}

// Verify

func (s *APISuite) TestVerifySucceeds() {
	created := s.identify(alice)

	rr := s.request(alice, http.MethodPost, "/api/user/verify",
		map[string]any{"deviceId": created.DeviceID, "challenge": "anything"})
	s.Equal(http.StatusOK, rr.Code)

	var resp response.VerifyResponse
	s.decode(rr, &resp)
	s.True(resp.Verified)
	s.Equal("User verified successfully", resp.Message)
}

func (s *APISuite) TestVerifyFromDifferentDeviceFails() {
	created := s.identify(alice)

	rr := s.request(bob, http.MethodPost, "/api/user/verify",
		map[string]any{"deviceId": created.DeviceID})
	s.Equal(http.StatusForbidden, rr.Code)

	var resp response.VerifyResponse
	s.decode(rr, &resp)
	s.False(resp.Verified)
	s.Equal("Unable to verify user identity", resp.Message)
	s.NotEmpty(resp.Error)
	s.Equal(apierr.CodeVerificationFailed, resp.Code)
}

func (s *APISuite) TestVerifyRequiresDeviceID() {
	rr := s.request(alice, http.MethodPost, "/api/user/verify", map[string]any{})
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APISuite) TestVerifyUnknownDevice() {
	rr := s.request(alice, http.MethodPost, "/api/user/verify", map[string]any{"deviceId": "missing"})
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeDeviceNotFound, s.errorCode(rr))
}

// Submit

func (s *APISuite) TestSubmitDuplicateThenLeaderboard() {
	player := s.identify(alice)

	rr := s.submit(alice, map[string]any{"deviceId": player.DeviceID, "score": 500, "level": 3})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var record response.Score
	s.decode(rr, &record)
	s.Equal(int64(500), record.Score)
	s.Equal(3, record.Level)
	s.Equal(player.DisplayID, record.DisplayID)
	s.False(record.IsVerified)
	s.NotEmpty(record.ID)

	s.app.MockClock.Advance(5 * time.Second)
	rr = s.submit(alice, map[string]any{"deviceId": player.DeviceID, "score": 500, "level": 3})
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal(apierr.CodeDuplicateSubmission, s.errorCode(rr))

	rr = s.request(bob, http.MethodGet, "/api/leaderboard", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var board response.LeaderboardResponse
	s.decode(rr, &board)
	s.Require().Len(board.Scores, 1)
	s.Equal(record.ID, board.Scores[0].ID)
	s.False(board.Scores[0].IsUserVerified)
	s.Equal(response.Pagination{Current: 1, Total: 1, Count: 1, TotalScores: 1}, board.Pagination)
}

func (s *APISuite) TestSubmitUnverifiedHighScore() {
	player := s.identify(alice)

	rr := s.submit(alice, map[string]any{"deviceId": player.DeviceID, "score": 150000, "level": 10})
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal(apierr.CodeVerificationRequired, s.errorCode(rr))
}

func (s *APISuite) TestSubmitMissingFields() {
	player := s.identify(alice)

	for _, body := range []map[string]any{
		{"score": 10, "level": 1},
		{"deviceId": player.DeviceID, "level": 1},
		{"deviceId": player.DeviceID, "score": 10},
	} {
		rr := s.submit(alice, body)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal(apierr.CodeInvalidRequest, s.errorCode(rr))
	}
}

func (s *APISuite) TestSubmitValidationCodes() {
	player := s.identify(alice)

	cases := []struct {
		body map[string]any
		code string
	}{
		{map[string]any{"deviceId": player.DeviceID, "score": -5, "level": 1}, apierr.CodeInvalidScore},
		{map[string]any{"deviceId": player.DeviceID, "score": 12.5, "level": 1}, apierr.CodeInvalidScore},
		{map[string]any{"deviceId": player.DeviceID, "score": 10, "level": 101}, apierr.CodeInvalidLevel},
		{map[string]any{"deviceId": player.DeviceID, "score": 10, "level": 1, "treasuresFound": -1}, apierr.CodeInvalidStats},
	}
	for _, tc := range cases {
		rr := s.submit(alice, tc.body)
		s.Equal(http.StatusBadRequest, rr.Code, "body %v", tc.body)
		s.Equal(tc.code, s.errorCode(rr), "body %v", tc.body)
	}
}

func (s *APISuite) TestSubmitWrongTypeIsBadRequest() {
	rr := s.submit(alice, map[string]any{"deviceId": "x", "score": "lots", "level": 1})
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APISuite) TestSubmitUnknownDevice() {
	rr := s.submit(alice, map[string]any{"deviceId": "missing", "score": 10, "level": 1})
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeDeviceNotFound, s.errorCode(rr))
}

// Leaderboard

func (s *APISuite) TestLeaderboardEmpty() {
	rr := s.request(alice, http.MethodGet, "/api/leaderboard", nil)
	s.Equal(http.StatusOK, rr.Code)

	var board response.LeaderboardResponse
	s.decode(rr, &board)
	s.NotNil(board.Scores)
	s.Empty(board.Scores)
	s.Equal(1, board.Pagination.Current)
	s.Equal(0, board.Pagination.Total)
}

func (s *APISuite) TestLeaderboardQueryParameters() {
	for i := 0; i < 120; i++ {
		s.Require().NoError(s.app.Memory.InsertScore(context.Background(), &model.Score{
			ID:        model.ScoreID(fmt.Sprintf("01S%04d", i)),
			DeviceID:  "d1",
			Score:     int64(i),
			Level:     1,
			CreatedAt: s.app.MockClock.Now(),
		}))
	}

	var board response.LeaderboardResponse

	s.decode(s.request(alice, http.MethodGet, "/api/leaderboard?page=abc&limit=xyz", nil), &board)
	s.Equal(1, board.Pagination.Current)
	s.Equal(10, board.Pagination.Count)
	s.Equal(12, board.Pagination.Total)

	s.decode(s.request(alice, http.MethodGet, "/api/leaderboard?limit=1000", nil), &board)
	s.Equal(100, board.Pagination.Count)
	s.Equal(2, board.Pagination.Total)
	s.Equal(int64(120), board.Pagination.TotalScores)

	s.decode(s.request(alice, http.MethodGet, "/api/leaderboard?page=2&limit=50", nil), &board)
	s.Equal(2, board.Pagination.Current)
	s.Equal(int64(69), board.Scores[0].Score)
}

func (s *APISuite) TestLeaderboardReflectsLiveVerification() {
	player := s.identify(alice)
	rr := s.submit(alice, map[string]any{"deviceId": player.DeviceID, "score": 100, "level": 1})
	s.Require().Equal(http.StatusCreated, rr.Code)

	rr = s.request(alice, http.MethodPost, "/api/user/verify", map[string]any{"deviceId": player.DeviceID})
	s.Require().Equal(http.StatusOK, rr.Code)

	var board response.LeaderboardResponse
	s.decode(s.request(alice, http.MethodGet, "/api/leaderboard", nil), &board)
	s.Require().Len(board.Scores, 1)
	s.False(board.Scores[0].IsVerified)
	s.True(board.Scores[0].IsUserVerified)
}

// Stats

func (s *APISuite) TestStatsNoGames() {
	player := s.identify(alice)

	rr := s.request(alice, http.MethodGet, "/api/player/"+player.DeviceID+"/stats", nil)
	s.Equal(http.StatusOK, rr.Code)

	var raw map[string]any
	s.decode(rr, &raw)
	s.Equal(float64(0), raw["totalGames"])
	s.Equal("No games played yet", raw["message"])
	s.NotContains(raw, "bestScore")
}

func (s *APISuite) TestStatsWithGames() {
	player := s.identify(alice)
	for _, score := range []int{100, 300} {
		rr := s.submit(alice, map[string]any{
			"deviceId": player.DeviceID, "score": score, "level": 2, "enemiesDefeated": 4, "gameTime": 30,
		})
		s.Require().Equal(http.StatusCreated, rr.Code)
	}

	rr := s.request(alice, http.MethodGet, "/api/player/"+player.DeviceID+"/stats", nil)
	s.Equal(http.StatusOK, rr.Code)

	var stats response.PlayerStats
	s.decode(rr, &stats)
	s.Equal(2, stats.TotalGames)
	s.Empty(stats.Message)
	s.Require().NotNil(stats.StatsAggregate)
	s.Equal(int64(300), stats.BestScore)
	s.InDelta(200.0, stats.AverageScore, 0.001)
	s.Equal(int64(8), stats.TotalEnemiesDefeated)
	s.Equal(int64(60), stats.TotalGameTime)
}

func (s *APISuite) TestStatsUnknownDevice() {
	rr := s.request(alice, http.MethodGet, "/api/player/missing/stats", nil)
	s.Equal(http.StatusNotFound, rr.Code)
}

// Routing

func (s *APISuite) TestUnknownEndpoint() {
	rr := s.request(alice, http.MethodGet, "/api/does-not-exist", nil)
	s.Equal(http.StatusNotFound, rr.Code)

	var body apierr.ErrorResponse
	s.decode(rr, &body)
	s.Equal("API endpoint not found", body.Error)
}

func (s *APISuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/leaderboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal("http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("true", rr.Header().Get("Access-Control-Allow-Credentials"))
}
