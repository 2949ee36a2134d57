package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type submitRequest struct {
	DeviceID        string `json:"deviceId"`
	Score           int64  `json:"score"`
	Level           int    `json:"level"`
	GameTime        int64  `json:"gameTime"`
	EnemiesDefeated int64  `json:"enemiesDefeated"`
	TreasuresFound  int64  `json:"treasuresFound"`
}

func newSubmitCmd() *cobra.Command {
	var req submitRequest

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a score for this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := cfg.RequireDeviceID()
			if err != nil {
				return err
			}
			req.DeviceID = deviceID

			var result ScoreRecord
			if err := client.Post(cmd.Context(), "/api/leaderboard", req, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.Score, "score", 0, "Final score")
	cmd.Flags().IntVar(&req.Level, "level", 0, "Level reached")
	cmd.Flags().Int64Var(&req.GameTime, "game-time", 0, "Game time in seconds")
	cmd.Flags().Int64Var(&req.EnemiesDefeated, "enemies", 0, "Enemies defeated")
	cmd.Flags().Int64Var(&req.TreasuresFound, "treasures", 0, "Treasures found")
	_ = cmd.MarkFlagRequired("score")
	_ = cmd.MarkFlagRequired("level")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("page", strconv.Itoa(page))
			query.Set("limit", strconv.Itoa(limit))

			var result LeaderboardResult
			if err := client.Get(cmd.Context(), "/api/leaderboard?"+query.Encode(), &result); err != nil {
				return err
			}

			result.Offset = (result.Pagination.Current - 1) * effectiveLimit(limit)

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Scores per page (max 100)")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [device-id]",
		Short: "Show statistics for a device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := ""
			if len(args) == 1 {
				deviceID = args[0]
			} else {
				var err error
				if deviceID, err = cfg.RequireDeviceID(); err != nil {
					return err
				}
			}

			var result PlayerStats
			path := fmt.Sprintf("/api/player/%s/stats", url.PathEscape(deviceID))
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

// effectiveLimit mirrors the server's clamping of the page size
func effectiveLimit(limit int) int {
	switch {
	case limit < 1:
		return 10
	case limit > 100:
		return 100
	default:
		return limit
	}
}
