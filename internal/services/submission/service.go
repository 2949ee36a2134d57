package submission

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/signmaze/internal/dependencies/clock"
	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// Config holds configuration for the submission service
type Config struct {
	// DuplicateWindow is how long an identical score from the same device is refused
	DuplicateWindow time.Duration

	// UnverifiedScoreCap is the highest score accepted from an unverified identity
	UnverifiedScoreCap int64
}

// DefaultConfig returns default submission configuration
func DefaultConfig() Config {
	return Config{
		DuplicateWindow:    60 * time.Second,
		UnverifiedScoreCap: 100_000,
	}
}

// Input is a score submission as decoded from the request.
// Numbers arrive unvalidated so that fractional values can be rejected.
type Input struct {
	DeviceID        model.DeviceID
	Score           float64
	Level           float64
	GameTime        float64
	EnemiesDefeated float64
	TreasuresFound  float64
	Client          model.ClientInfo
}

// Service validates and records game results
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config
}

// New creates a new submission Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = defaults.DuplicateWindow
	}
	if cfg.UnverifiedScoreCap <= 0 {
		cfg.UnverifiedScoreCap = defaults.UnverifiedScoreCap
	}
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
}

// Submit records a score after checking, in order: the device exists, the
// values are in range, it is not a repeat within the duplicate window, and
// unverified identities stay under the score cap.
func (s *Service) Submit(ctx context.Context, in Input) (*model.Score, error) {
	identity, err := s.storage.GetIdentity(ctx, in.DeviceID)
	if err != nil {
		return nil, err
	}

	if err := validate(in); err != nil {
		return nil, err
	}
	score := int64(in.Score)

	now := s.clock.Now()
	duplicate, err := s.storage.HasRecentScore(ctx, in.DeviceID, score, now.Add(-s.cfg.DuplicateWindow))
	if err != nil {
		return nil, fmt.Errorf("check recent scores: %w", err)
	}
	if duplicate {
		return nil, model.ErrDuplicateSubmission
	}

	if !identity.IsVerified && score > s.cfg.UnverifiedScoreCap {
		s.logger.Warn("unverified high score refused",
			slog.String("display_id", string(identity.DisplayID)),
			slog.Int64("score", score),
		)
		return nil, model.ErrVerificationRequired
	}

	record := &model.Score{
		ID:              model.ScoreID(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()),
		DeviceID:        identity.DeviceID,
		DisplayID:       identity.DisplayID,
		Score:           score,
		Level:           int(in.Level),
		GameTimeSeconds: int64(in.GameTime),
		EnemiesDefeated: int64(in.EnemiesDefeated),
		TreasuresFound:  int64(in.TreasuresFound),
		IsVerified:      identity.IsVerified,
		Meta: model.SubmissionMeta{
			UserAgent:    in.Client.UserAgent,
			Address:      in.Client.Address,
			HeaderDigest: in.Client.HeaderDigest,
			SubmittedAt:  now,
		},
		CreatedAt: now,
	}
	if err := s.storage.InsertScore(ctx, record); err != nil {
		return nil, fmt.Errorf("insert score: %w", err)
	}

	identity.LastActiveAt = now
	if err := s.storage.SaveIdentity(ctx, identity); err != nil {
		// The score is already stored; a stale activity time is tolerable
		s.logger.Warn("failed to refresh identity activity",
			slog.String("display_id", string(identity.DisplayID)),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("score submitted",
		slog.String("score_id", string(record.ID)),
		slog.String("display_id", string(record.DisplayID)),
		slog.Int64("score", record.Score),
		slog.Int("level", record.Level),
		slog.Bool("verified", record.IsVerified),
	)

	return record, nil
}

func validate(in Input) error {
	if !isWhole(in.Score) || in.Score < model.MinScore || in.Score > model.MaxScore {
		return model.ErrInvalidScore
	}
	if !isWhole(in.Level) || in.Level < model.MinLevel || in.Level > model.MaxLevel {
		return model.ErrInvalidLevel
	}
	for _, v := range []float64{in.GameTime, in.EnemiesDefeated, in.TreasuresFound} {
		if !isWhole(v) || v < 0 || v > model.MaxCounter {
			return model.ErrInvalidStats
		}
	}
	return nil
}

func isWhole(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v == math.Trunc(v)
}
