package model

import "time"

// ScoreID uniquely identifies a score record. IDs are ULIDs, so their
// lexicographic order follows creation time.
type ScoreID string

// Bounds enforced on submitted values
const (
	MinScore = 0
	MaxScore = 999_999_999
	MinLevel = 1
	MaxLevel = 100

	// MaxCounter caps game time, enemies and treasures so totals stay in int64
	MaxCounter = 1<<31 - 1
)

// SubmissionMeta captures the request that produced a score
type SubmissionMeta struct {
	UserAgent    string
	Address      string
	HeaderDigest string
	SubmittedAt  time.Time
}

// Score is one submitted game-session result. Never updated once stored.
type Score struct {
	ID              ScoreID
	DeviceID        DeviceID
	DisplayID       DisplayID // copy at submission time
	Score           int64
	Level           int
	GameTimeSeconds int64
	EnemiesDefeated int64
	TreasuresFound  int64
	IsVerified      bool // identity flag at submission time, not live
	Meta            SubmissionMeta
	CreatedAt       time.Time
}

// RanksAbove reports whether s sorts before other on the leaderboard:
// higher score first, then newer first, then larger ID first.
func (s *Score) RanksAbove(other *Score) bool {
	if s.Score != other.Score {
		return s.Score > other.Score
	}
	if !s.CreatedAt.Equal(other.CreatedAt) {
		return s.CreatedAt.After(other.CreatedAt)
	}
	return s.ID > other.ID
}

// LeaderboardEntry is a score joined with the live verification flag of its identity
type LeaderboardEntry struct {
	Score          Score
	IsUserVerified bool
}

// Pagination describes a leaderboard page
type Pagination struct {
	Current     int
	Total       int // number of pages
	Count       int // entries on this page
	TotalScores int64
}

// LeaderboardPage is one page of ranked scores
type LeaderboardPage struct {
	Entries    []LeaderboardEntry
	Pagination Pagination
}

// ScoreAggregate holds per-device totals over all its score records
type ScoreAggregate struct {
	TotalGames           int
	BestScore            int64
	AverageScore         float64
	HighestLevel         int
	TotalEnemiesDefeated int64
	TotalTreasuresFound  int64
	TotalGameTime        int64
	FirstPlayed          time.Time
	LastPlayed           time.Time
}

// PlayerStats merges an identity summary with its score aggregate.
// Aggregate is nil when the device has no scores.
type PlayerStats struct {
	DeviceID       DeviceID
	DisplayID      DisplayID
	IsVerified     bool
	AccountCreated time.Time
	LastActive     time.Time
	Aggregate      *ScoreAggregate
}
