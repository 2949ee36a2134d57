package leaderboard

import (
	"context"
	"fmt"
	"math"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// Page size bounds
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Service reads ranked scores and per-device statistics
type Service struct {
	storage storage.Storage
}

// New creates a new leaderboard Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// GetLeaderboard returns one page of scores, best first.
// Page numbers start at 1; out-of-range arguments fall back to the defaults.
func (s *Service) GetLeaderboard(ctx context.Context, page, limit int) (*model.LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	// Pages whose offset does not fit in an int are past any possible end
	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}

	scores, err := s.storage.ListScores(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	total, err := s.storage.CountScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("count scores: %w", err)
	}

	ids := make([]model.DeviceID, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.DeviceID)
	}
	identities, err := s.storage.GetIdentities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get identities: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		entry := model.LeaderboardEntry{Score: *sc}
		if identity, ok := identities[sc.DeviceID]; ok {
			entry.IsUserVerified = identity.IsVerified
		}
		entries = append(entries, entry)
	}

	return &model.LeaderboardPage{
		Entries: entries,
		Pagination: model.Pagination{
			Current:     page,
			Total:       int((total + int64(limit) - 1) / int64(limit)),
			Count:       len(entries),
			TotalScores: total,
		},
	}, nil
}

// GetPlayerStats summarises every score recorded for a device
func (s *Service) GetPlayerStats(ctx context.Context, deviceID model.DeviceID) (*model.PlayerStats, error) {
	identity, err := s.storage.GetIdentity(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	scores, err := s.storage.GetScoresForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get device scores: %w", err)
	}

	return &model.PlayerStats{
		DeviceID:       identity.DeviceID,
		DisplayID:      identity.DisplayID,
		IsVerified:     identity.IsVerified,
		AccountCreated: identity.CreatedAt,
		LastActive:     identity.LastActiveAt,
		Aggregate:      aggregate(scores),
	}, nil
}

func aggregate(scores []*model.Score) *model.ScoreAggregate {
	if len(scores) == 0 {
		return nil
	}

	agg := &model.ScoreAggregate{
		TotalGames:  len(scores),
		FirstPlayed: scores[0].CreatedAt,
		LastPlayed:  scores[0].CreatedAt,
	}
	var sum int64
	for _, sc := range scores {
		sum += sc.Score
		if sc.Score > agg.BestScore {
			agg.BestScore = sc.Score
		}
		if sc.Level > agg.HighestLevel {
			agg.HighestLevel = sc.Level
		}
		agg.TotalEnemiesDefeated += sc.EnemiesDefeated
		agg.TotalTreasuresFound += sc.TreasuresFound
		agg.TotalGameTime += sc.GameTimeSeconds
		if sc.CreatedAt.Before(agg.FirstPlayed) {
			agg.FirstPlayed = sc.CreatedAt
		}
		if sc.CreatedAt.After(agg.LastPlayed) {
			agg.LastPlayed = sc.CreatedAt
		}
	}
	agg.AverageScore = float64(sum) / float64(len(scores))
	return agg
}
