package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]string{"error": err.Error()}
		if apiErr, ok := err.(*APIError); ok {
			errData["error"] = apiErr.Text
			errData["code"] = apiErr.Code
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case IdentifyResult:
		o.printIdentifyResult(v)
	case VerifyResult:
		o.printVerifyResult(v)
	case ScoreRecord:
		o.printScoreRecord(v)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case PlayerStats:
		o.printPlayerStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// IdentifyResult response type (matches API)
type IdentifyResult struct {
	DeviceID   string `json:"deviceId"`
	DisplayID  string `json:"displayId"`
	IsVerified bool   `json:"isVerified"`
	IsExisting bool   `json:"isExisting"`
}

// VerifyResult response type
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// ScoreRecord response type
type ScoreRecord struct {
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

// LeaderboardEntry response type
type LeaderboardEntry struct {
	ScoreRecord
	IsUserVerified bool `json:"isUserVerified"`
}

// Pagination response type
type Pagination struct {
	Current     int   `json:"current"`
	Total       int   `json:"total"`
	Count       int   `json:"count"`
	TotalScores int64 `json:"totalScores"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Scores     []LeaderboardEntry `json:"scores"`
	Pagination Pagination         `json:"pagination"`

	// Offset is the rank of the first entry minus one
	Offset int `json:"-"`
}

// PlayerStats response type
type PlayerStats struct {
	DeviceID             string     `json:"deviceId"`
	DisplayID            string     `json:"displayId"`
	IsVerified           bool       `json:"isVerified"`
	TotalGames           int        `json:"totalGames"`
	Message              string     `json:"message,omitempty"`
	AccountCreated       time.Time  `json:"accountCreated"`
	LastActive           time.Time  `json:"lastActive"`
	BestScore            *int64     `json:"bestScore,omitempty"`
	AverageScore         *float64   `json:"averageScore,omitempty"`
	HighestLevel         *int       `json:"highestLevel,omitempty"`
	TotalEnemiesDefeated *int64     `json:"totalEnemiesDefeated,omitempty"`
	TotalTreasuresFound  *int64     `json:"totalTreasuresFound,omitempty"`
	TotalGameTime        *int64     `json:"totalGameTime,omitempty"`
	FirstPlayed          *time.Time `json:"firstPlayed,omitempty"`
	LastPlayed           *time.Time `json:"lastPlayed,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Uptime           float64   `json:"uptime"`
	StorageConnected bool      `json:"storageConnected"`
	Environment      string    `json:"environment"`
}

func (o *Output) printIdentifyResult(r IdentifyResult) {
	status := "new device"
	if r.IsExisting {
		status = "existing device"
	}
	verified := "no"
	if r.IsVerified {
		verified = "yes"
	}
	_, _ = fmt.Fprintf(o.out, "Player: %s (%s)\n", r.DisplayID, status)
	_, _ = fmt.Fprintf(o.out, "Device: %s\n", r.DeviceID)
	_, _ = fmt.Fprintf(o.out, "Verified: %s\n", verified)
}

func (o *Output) printVerifyResult(r VerifyResult) {
	if r.Verified {
		_, _ = fmt.Fprintf(o.out, "Verified: %s\n", r.Message)
		return
	}
	_, _ = fmt.Fprintf(o.out, "Not verified: %s\n", r.Message)
}

func (o *Output) printScoreRecord(s ScoreRecord) {
	_, _ = fmt.Fprintf(o.out, "Score %d recorded for %s (level %d)\n", s.Score, s.DisplayID, s.Level)
	_, _ = fmt.Fprintf(o.out, "ID: %s\n", s.ID)
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	if len(l.Scores) == 0 {
		_, _ = fmt.Fprintln(o.out, "No scores yet")
		return
	}

	_, _ = fmt.Fprintf(o.out, "%-5s %-10s %10s %6s\n", "RANK", "PLAYER", "SCORE", "LEVEL")
	for i, s := range l.Scores {
		mark := ""
		if s.IsUserVerified {
			mark = "verified"
		}
		_, _ = fmt.Fprintf(o.out, "%-5d %-10s %10d %6d %s\n", l.Offset+i+1, s.DisplayID, s.Score, s.Level, mark)
	}
	_, _ = fmt.Fprintf(o.out, "Page %d of %d (%d scores)\n",
		l.Pagination.Current, l.Pagination.Total, l.Pagination.TotalScores)
}

func (o *Output) printPlayerStats(p PlayerStats) {
	_, _ = fmt.Fprintf(o.out, "Player: %s\n", p.DisplayID)
	_, _ = fmt.Fprintf(o.out, "Verified: %t\n", p.IsVerified)
	_, _ = fmt.Fprintf(o.out, "Games: %d\n", p.TotalGames)
	if p.Message != "" {
		_, _ = fmt.Fprintln(o.out, p.Message)
		return
	}
	if p.BestScore != nil {
		_, _ = fmt.Fprintf(o.out, "Best Score: %d\n", *p.BestScore)
	}
	if p.AverageScore != nil {
		_, _ = fmt.Fprintf(o.out, "Average Score: %.1f\n", *p.AverageScore)
	}
	if p.HighestLevel != nil {
		_, _ = fmt.Fprintf(o.out, "Highest Level: %d\n", *p.HighestLevel)
	}
	if p.TotalEnemiesDefeated != nil {
		_, _ = fmt.Fprintf(o.out, "Enemies Defeated: %d\n", *p.TotalEnemiesDefeated)
	}
	if p.TotalTreasuresFound != nil {
		_, _ = fmt.Fprintf(o.out, "Treasures Found: %d\n", *p.TotalTreasuresFound)
	}
	if p.TotalGameTime != nil {
		_, _ = fmt.Fprintf(o.out, "Time Played: %s\n", time.Duration(*p.TotalGameTime)*time.Second)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.out, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.out, "Storage: %s\n", connectedText(h.StorageConnected))
	_, _ = fmt.Fprintf(o.out, "Environment: %s\n", h.Environment)
	_, _ = fmt.Fprintf(o.out, "Uptime: %s\n", time.Duration(h.Uptime*float64(time.Second)).Round(time.Second))
}

func connectedText(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}
