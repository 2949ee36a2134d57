package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "signmaze",
		Short: "CLI tool for the signmaze leaderboard API",
		Long: `signmaze is a CLI tool for interacting with the signmaze leaderboard API.

It can register this machine as an anonymous device, submit scores,
and read the leaderboard and per-device statistics.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load device id from file if not provided via flag/env
			if err := cfg.LoadDeviceID(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SIGNMAZE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.DeviceID, "device-id", cfg.DeviceID, "Device id (env: SIGNMAZE_DEVICE_ID)")
	rootCmd.PersistentFlags().StringVar(&cfg.DeviceFile, "device-file", cfg.DeviceFile, "Device id file path (env: SIGNMAZE_DEVICE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newIdentifyCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		NewOutput(cfg.Output, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr()).PrintError(err)
		os.Exit(1)
	}
}

func newOutput(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
