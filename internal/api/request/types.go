package request

import "github.com/mcoot/signmaze/internal/model"

// Fingerprint is the optional client-reported environment
type Fingerprint struct {
	UserAgent        string `json:"userAgent"`
	ScreenResolution string `json:"screenResolution"`
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
	Platform         string `json:"platform"`
}

// ToModel converts the request fingerprint to a model.Fingerprint
func (f *Fingerprint) ToModel() model.Fingerprint {
	if f == nil {
		return model.Fingerprint{}
	}
	return model.Fingerprint{
		UserAgent:        f.UserAgent,
		ScreenResolution: f.ScreenResolution,
		Timezone:         f.Timezone,
		Language:         f.Language,
		Platform:         f.Platform,
	}
}

// IdentifyRequest is the request body for identifying a device
type IdentifyRequest struct {
	Fingerprint      *Fingerprint `json:"fingerprint,omitempty"`
	ExistingDeviceID string       `json:"existingDeviceId,omitempty"`
}

// VerifyRequest is the request body for verifying a device
type VerifyRequest struct {
	DeviceID  string `json:"deviceId"`
	Challenge string `json:"challenge,omitempty"`
}

// SubmitScoreRequest is the request body for submitting a score.
// Numbers are pointers so that missing fields can be told apart from zero.
type SubmitScoreRequest struct {
	DeviceID        string   `json:"deviceId"`
	Score           *float64 `json:"score"`
	Level           *float64 `json:"level"`
	GameTime        *float64 `json:"gameTime,omitempty"`
	EnemiesDefeated *float64 `json:"enemiesDefeated,omitempty"`
	TreasuresFound  *float64 `json:"treasuresFound,omitempty"`
}
