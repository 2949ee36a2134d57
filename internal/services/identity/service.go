package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/signmaze/internal/dependencies/clock"
	"github.com/mcoot/signmaze/internal/dependencies/random"
	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// DeviceIDBytes is the number of random bytes behind a device id
const DeviceIDBytes = 32

// Messages returned by Verify
const (
	VerifiedMessage    = "User verified successfully"
	NotVerifiedMessage = "Unable to verify user identity"
)

// Config holds configuration for the identity service
type Config struct {
	// RecentWindow bounds how far back identify looks for a matching identity
	RecentWindow time.Duration

	// MaxDisplayIDAttempts caps display id draws before giving up
	MaxDisplayIDAttempts int
}

// DefaultConfig returns default identity configuration
func DefaultConfig() Config {
	return Config{
		RecentWindow:         24 * time.Hour,
		MaxDisplayIDAttempts: 100,
	}
}

// IdentifyInput is a request to resolve or create an identity
type IdentifyInput struct {
	ExistingDeviceID model.DeviceID
	Fingerprint      model.Fingerprint
	Client           model.ClientInfo
}

// IdentifyResult is the resolved identity
type IdentifyResult struct {
	Identity   *model.Identity
	IsExisting bool
}

// VerifyResult is the outcome of a successful verification
type VerifyResult struct {
	Verified bool
	Message  string
}

// Service resolves anonymous players to durable identities
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	cfg     Config
}

// New creates a new identity Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = defaults.RecentWindow
	}
	if cfg.MaxDisplayIDAttempts <= 0 {
		cfg.MaxDisplayIDAttempts = defaults.MaxDisplayIDAttempts
	}
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
		cfg:     cfg,
	}
}

// Identify returns the caller's identity, creating one when nothing matches.
// A known device id wins; otherwise an identity created within the recent
// window that shares the caller's address or user agent is reused.
func (s *Service) Identify(ctx context.Context, in IdentifyInput) (*IdentifyResult, error) {
	now := s.clock.Now()

	if in.ExistingDeviceID != "" {
		identity, err := s.storage.GetIdentity(ctx, in.ExistingDeviceID)
		switch {
		case err == nil:
			identity.TouchAddress(in.Client.Address, now)
			identity.LastActiveAt = now
			if err := s.storage.SaveIdentity(ctx, identity); err != nil {
				return nil, fmt.Errorf("save identity: %w", err)
			}
			return &IdentifyResult{Identity: identity, IsExisting: true}, nil
		case !errors.Is(err, model.ErrIdentityNotFound):
			return nil, fmt.Errorf("get identity: %w", err)
		}
	}

	userAgent := in.Client.UserAgent
	if userAgent == "" {
		userAgent = in.Fingerprint.UserAgent
	}

	match, err := s.storage.FindRecentIdentity(ctx, now.Add(-s.cfg.RecentWindow), in.Client.Address, userAgent)
	if err == nil {
		s.logger.Info("identity matched recent device",
			slog.String("display_id", string(match.DisplayID)),
		)
		return &IdentifyResult{Identity: match, IsExisting: true}, nil
	}
	if !errors.Is(err, model.ErrIdentityNotFound) {
		return nil, fmt.Errorf("find recent identity: %w", err)
	}

	fingerprint := in.Fingerprint
	fingerprint.UserAgent = userAgent

	identity, err := s.create(ctx, fingerprint, in.Client.Address, now)
	if err != nil {
		return nil, err
	}
	return &IdentifyResult{Identity: identity, IsExisting: false}, nil
}

func (s *Service) create(ctx context.Context, fingerprint model.Fingerprint, address string, now time.Time) (*model.Identity, error) {
	for attempt := 0; attempt < s.cfg.MaxDisplayIDAttempts; attempt++ {
		displayID := model.DisplayID(model.DisplayIDPrefix +
			s.random.String(model.DisplayIDSuffixLength, model.DisplayIDAlphabet))

		exists, err := s.storage.DisplayIDExists(ctx, displayID)
		if err != nil {
			return nil, fmt.Errorf("check display id: %w", err)
		}
		if exists {
			continue
		}

		identity := &model.Identity{
			DeviceID:     model.DeviceID(s.random.Token(DeviceIDBytes)),
			DisplayID:    displayID,
			Fingerprint:  fingerprint,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		identity.TouchAddress(address, now)

		err = s.storage.CreateIdentity(ctx, identity)
		switch {
		case err == nil:
			s.logger.Info("identity created",
				slog.String("display_id", string(displayID)),
				slog.String("address", address),
			)
			return identity, nil
		case errors.Is(err, model.ErrDisplayIDTaken), errors.Is(err, model.ErrDeviceIDExists):
			// Lost a race for the id; draw again
			continue
		default:
			return nil, fmt.Errorf("create identity: %w", err)
		}
	}

	s.logger.Error("display id space exhausted",
		slog.Int("attempts", s.cfg.MaxDisplayIDAttempts),
	)
	return nil, model.ErrDisplayIDExhausted
}

// Verify marks the identity verified when the caller shares its address or
// user agent. The challenge is accepted but not checked.
func (s *Service) Verify(ctx context.Context, deviceID model.DeviceID, challenge string, client model.ClientInfo) (*VerifyResult, error) {
	if deviceID == "" {
		return nil, model.ErrDeviceIDRequired
	}

	identity, err := s.storage.GetIdentity(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if !identity.HasAddress(client.Address) && !identity.MatchesUserAgent(client.UserAgent) {
		s.logger.Warn("verification failed",
			slog.String("display_id", string(identity.DisplayID)),
			slog.String("address", client.Address),
		)
		return nil, model.ErrVerificationFailed
	}

	identity.IsVerified = true
	identity.LastActiveAt = s.clock.Now()
	if err := s.storage.SaveIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.logger.Info("identity verified",
		slog.String("display_id", string(identity.DisplayID)),
	)
	return &VerifyResult{Verified: true, Message: VerifiedMessage}, nil
}
