package response

import (
	"time"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/services/identity"
)

// NoGamesMessage accompanies stats for a device without scores
const NoGamesMessage = "No games played yet"

// IdentifyResponse is the response for the identify endpoint
type IdentifyResponse struct {
	DeviceID   string `json:"deviceId"`
	DisplayID  string `json:"displayId"`
	IsVerified bool   `json:"isVerified"`
	IsExisting bool   `json:"isExisting"`
}

// IdentifyFromResult converts an identify result to a response
func IdentifyFromResult(r *identity.IdentifyResult) IdentifyResponse {
	return IdentifyResponse{
		DeviceID:   string(r.Identity.DeviceID),
		DisplayID:  string(r.Identity.DisplayID),
		IsVerified: r.Identity.IsVerified,
		IsExisting: r.IsExisting,
	}
}

// VerifyResponse is the response for the verify endpoint
type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Score represents a score record in API responses
type Score struct {
	ID              string    `json:"id"`
	DisplayID       string    `json:"displayId"`
	Score           int64     `json:"score"`
	Level           int       `json:"level"`
	GameTime        int64     `json:"gameTime"`
	EnemiesDefeated int64     `json:"enemiesDefeated"`
	TreasuresFound  int64     `json:"treasuresFound"`
	IsVerified      bool      `json:"isVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ScoreFromModel converts a model.Score to a response Score
func ScoreFromModel(s *model.Score) Score {
	return Score{
		ID:              string(s.ID),
		DisplayID:       string(s.DisplayID),
		Score:           s.Score,
		Level:           s.Level,
		GameTime:        s.GameTimeSeconds,
		EnemiesDefeated: s.EnemiesDefeated,
		TreasuresFound:  s.TreasuresFound,
		IsVerified:      s.IsVerified,
		CreatedAt:       s.CreatedAt,
	}
}

// LeaderboardEntry is a score with the live verification flag of its owner
type LeaderboardEntry struct {
	Score
	IsUserVerified bool `json:"isUserVerified"`
}

// Pagination describes the returned leaderboard page
type Pagination struct {
	Current     int   `json:"current"`
	Total       int   `json:"total"`
	Count       int   `json:"count"`
	TotalScores int64 `json:"totalScores"`
}

// LeaderboardResponse is the response for the leaderboard endpoint
type LeaderboardResponse struct {
	Scores     []LeaderboardEntry `json:"scores"`
	Pagination Pagination         `json:"pagination"`
}

// LeaderboardFromModel converts a leaderboard page to a response
func LeaderboardFromModel(p *model.LeaderboardPage) LeaderboardResponse {
	scores := make([]LeaderboardEntry, len(p.Entries))
	for i := range p.Entries {
		scores[i] = LeaderboardEntry{
			Score:          ScoreFromModel(&p.Entries[i].Score),
			IsUserVerified: p.Entries[i].IsUserVerified,
		}
	}
	return LeaderboardResponse{
		Scores: scores,
		Pagination: Pagination{
			Current:     p.Pagination.Current,
			Total:       p.Pagination.Total,
			Count:       p.Pagination.Count,
			TotalScores: p.Pagination.TotalScores,
		},
	}
}

// StatsAggregate holds the per-device totals; absent when no games were played
type StatsAggregate struct {
	BestScore            int64     `json:"bestScore"`
	AverageScore         float64   `json:"averageScore"`
	HighestLevel         int       `json:"highestLevel"`
	TotalEnemiesDefeated int64     `json:"totalEnemiesDefeated"`
	TotalTreasuresFound  int64     `json:"totalTreasuresFound"`
	TotalGameTime        int64     `json:"totalGameTime"`
	FirstPlayed          time.Time `json:"firstPlayed"`
	LastPlayed           time.Time `json:"lastPlayed"`
}

// PlayerStats is the response for the player stats endpoint
type PlayerStats struct {
	DeviceID       string    `json:"deviceId"`
	DisplayID      string    `json:"displayId"`
	IsVerified     bool      `json:"isVerified"`
	TotalGames     int       `json:"totalGames"`
	Message        string    `json:"message,omitempty"`
	AccountCreated time.Time `json:"accountCreated"`
	LastActive     time.Time `json:"lastActive"`
	*StatsAggregate
}

// PlayerStatsFromModel converts player stats to a response
func PlayerStatsFromModel(s *model.PlayerStats) PlayerStats {
	resp := PlayerStats{
		DeviceID:       string(s.DeviceID),
		DisplayID:      string(s.DisplayID),
		IsVerified:     s.IsVerified,
		AccountCreated: s.AccountCreated,
		LastActive:     s.LastActive,
	}
	if s.Aggregate == nil {
		resp.Message = NoGamesMessage
		return resp
	}
	resp.TotalGames = s.Aggregate.TotalGames
	resp.StatsAggregate = &StatsAggregate{
		BestScore:            s.Aggregate.BestScore,
		AverageScore:         s.Aggregate.AverageScore,
		HighestLevel:         s.Aggregate.HighestLevel,
		TotalEnemiesDefeated: s.Aggregate.TotalEnemiesDefeated,
		TotalTreasuresFound:  s.Aggregate.TotalTreasuresFound,
		TotalGameTime:        s.Aggregate.TotalGameTime,
		FirstPlayed:          s.Aggregate.FirstPlayed,
		LastPlayed:           s.Aggregate.LastPlayed,
	}
	return resp
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Uptime           float64   `json:"uptime"`
	StorageConnected bool      `json:"storageConnected"`
	Environment      string    `json:"environment"`
}
