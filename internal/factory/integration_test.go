package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/services/identity"
	"github.com/mcoot/signmaze/internal/services/submission"
	"github.com/mcoot/signmaze/internal/storage/memory"
	redisstorage "github.com/mcoot/signmaze/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) identify(address, userAgent string) *model.Identity {
	result, err := s.app.IdentityService.Identify(s.ctx, identity.IdentifyInput{
		Client: model.ClientInfo{Address: address, UserAgent: userAgent},
	})
	s.Require().NoError(err)
	return result.Identity
}

func (s *IntegrationSuite) submit(deviceID model.DeviceID, score float64) (*model.Score, error) {
	return s.app.SubmissionService.Submit(s.ctx, submission.Input{
		DeviceID: deviceID,
		Score:    score,
		Level:    3,
		Client:   model.ClientInfo{Address: "10.0.0.1", UserAgent: "agent"},
	})
}

// Test: identify, submit, duplicate, then read it back on the leaderboard
func (s *IntegrationSuite) TestSubmitAndRankFlow() {
	player := s.identify("10.0.0.1", "agent")
	s.False(player.IsVerified)

	record, err := s.submit(player.DeviceID, 500)
	s.Require().NoError(err)
	s.False(record.IsVerified)

	// Same score within a minute is refused
	s.app.MockClock.Advance(10 * time.Second)
	_, err = s.submit(player.DeviceID, 500)
	s.ErrorIs(err, model.ErrDuplicateSubmission)

	page, err := s.app.LeaderboardService.GetLeaderboard(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal(player.DisplayID, page.Entries[0].Score.DisplayID)
	s.Equal(int64(1), page.Pagination.TotalScores)
}

// Test: high scores need verification, and verification is reflected live
func (s *IntegrationSuite) TestVerificationGatesHighScores() {
	player := s.identify("10.0.0.1", "agent")

	_, err := s.submit(player.DeviceID, 250_000)
	s.ErrorIs(err, model.ErrVerificationRequired)

	_, err = s.submit(player.DeviceID, 90_000)
	s.Require().NoError(err)

	result, err := s.app.IdentityService.Verify(s.ctx, player.DeviceID, "",
		model.ClientInfo{Address: "10.0.0.1", UserAgent: "agent"})
	s.Require().NoError(err)
	s.True(result.Verified)

	record, err := s.submit(player.DeviceID, 250_000)
	s.Require().NoError(err)
	s.True(record.IsVerified)

	page, err := s.app.LeaderboardService.GetLeaderboard(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 2)
	s.Equal(int64(250_000), page.Entries[0].Score.Score)
	// Earlier score was stored unverified but its owner is verified now
	s.False(page.Entries[1].Score.IsVerified)
	s.True(page.Entries[1].IsUserVerified)
}

// Test: returning with the stored device id keeps the same identity
func (s *IntegrationSuite) TestReturningPlayerKeepsIdentity() {
	player := s.identify("10.0.0.1", "agent")
	s.app.MockClock.Advance(48 * time.Hour)

	result, err := s.app.IdentityService.Identify(s.ctx, identity.IdentifyInput{
		ExistingDeviceID: player.DeviceID,
		Client:           model.ClientInfo{Address: "10.0.0.2", UserAgent: "agent"},
	})
	s.Require().NoError(err)
	s.True(result.IsExisting)
	s.Equal(player.DisplayID, result.Identity.DisplayID)
	s.Len(result.Identity.Addresses, 2)
}

// Test: stats summarise every score from one device only
func (s *IntegrationSuite) TestPlayerStats() {
	alice := s.identify("10.0.0.1", "agent-a")
	bob := s.identify("10.0.0.2", "agent-b")

	stats, err := s.app.LeaderboardService.GetPlayerStats(s.ctx, alice.DeviceID)
	s.Require().NoError(err)
	s.Nil(stats.Aggregate)

	for _, score := range []float64{100, 200, 600} {
		_, err := s.submit(alice.DeviceID, score)
		s.Require().NoError(err)
		s.app.MockClock.Advance(time.Minute)
	}
	_, err = s.submit(bob.DeviceID, 5000)
	s.Require().NoError(err)

	stats, err = s.app.LeaderboardService.GetPlayerStats(s.ctx, alice.DeviceID)
	s.Require().NoError(err)
	s.Require().NotNil(stats.Aggregate)
	s.Equal(3, stats.Aggregate.TotalGames)
	s.Equal(int64(600), stats.Aggregate.BestScore)
	s.InDelta(300.0, stats.Aggregate.AverageScore, 0.001)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := app.Storage.(*memory.Storage); !ok {
		t.Fatalf("expected memory storage, got %T", app.Storage)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewRedisIsLazy(t *testing.T) {
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://127.0.0.1:1"

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer app.Close()

	if _, ok := app.Storage.(*redisstorage.Storage); !ok {
		t.Fatalf("expected redis storage, got %T", app.Storage)
	}
}

func TestNewRejectsBadStorageConfig(t *testing.T) {
	if _, err := New(Config{StorageType: StorageTypeRedis}); err == nil {
		t.Fatal("expected error for missing redis config")
	}
	if _, err := New(Config{StorageType: "mongo"}); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
