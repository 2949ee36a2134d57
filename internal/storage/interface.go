package storage

import (
	"context"
	"time"

	"github.com/mcoot/signmaze/internal/model"
)

// Storage defines the interface for data persistence.
// Implementations never return values that alias their internal state.
type Storage interface {
	// Identity operations
	CreateIdentity(ctx context.Context, identity *model.Identity) error
	SaveIdentity(ctx context.Context, identity *model.Identity) error
	GetIdentity(ctx context.Context, id model.DeviceID) (*model.Identity, error)
	GetIdentities(ctx context.Context, ids []model.DeviceID) (map[model.DeviceID]*model.Identity, error)
	DisplayIDExists(ctx context.Context, id model.DisplayID) (bool, error)
	FindRecentIdentity(ctx context.Context, since time.Time, address, userAgent string) (*model.Identity, error)

	// Score operations
	InsertScore(ctx context.Context, score *model.Score) error
	HasRecentScore(ctx context.Context, deviceID model.DeviceID, score int64, since time.Time) (bool, error)
	ListScores(ctx context.Context, offset, limit int) ([]*model.Score, error)
	CountScores(ctx context.Context) (int64, error)
	GetScoresForDevice(ctx context.Context, deviceID model.DeviceID) ([]*model.Score, error)

	// Connectivity
	Ping(ctx context.Context) error
}
