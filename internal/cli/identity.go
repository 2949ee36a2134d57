package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type fingerprint struct {
	UserAgent        string `json:"userAgent,omitempty"`
	ScreenResolution string `json:"screenResolution,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	Language         string `json:"language,omitempty"`
	Platform         string `json:"platform,omitempty"`
}

type identifyRequest struct {
	Fingerprint      *fingerprint `json:"fingerprint,omitempty"`
	ExistingDeviceID string       `json:"existingDeviceId,omitempty"`
}

type verifyRequest struct {
	DeviceID  string `json:"deviceId"`
	Challenge string `json:"challenge,omitempty"`
}

func newIdentifyCmd() *cobra.Command {
	var (
		fp    fingerprint
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Register or re-identify this device",
		Long: `Identify sends the stored device id (if any) along with a fingerprint
of this machine. The device id returned by the server is saved to the
device file for later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fp.UserAgent = client.UserAgent()
			req := identifyRequest{Fingerprint: &fp}
			if !fresh {
				req.ExistingDeviceID = cfg.DeviceID
			}

			var result IdentifyResult
			if err := client.Post(cmd.Context(), "/api/user/identify", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveDeviceID(result.DeviceID); err != nil {
				return fmt.Errorf("failed to save device id: %w", err)
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&fp.ScreenResolution, "screen", "", "Screen resolution, e.g. 1920x1080")
	cmd.Flags().StringVar(&fp.Timezone, "timezone", "", "IANA timezone name")
	cmd.Flags().StringVar(&fp.Language, "language", "", "Preferred language tag")
	cmd.Flags().StringVar(&fp.Platform, "platform", "", "Platform name")
	cmd.Flags().BoolVar(&fresh, "new", false, "Ignore the stored device id")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	var challenge string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := cfg.RequireDeviceID()
			if err != nil {
				return err
			}

			var result VerifyResult
			err = client.Post(cmd.Context(), "/api/user/verify", verifyRequest{
				DeviceID:  deviceID,
				Challenge: challenge,
			}, &result)
			if err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&challenge, "challenge", "", "Challenge response")

	return cmd
}
