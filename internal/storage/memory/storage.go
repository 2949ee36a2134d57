package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identities   map[model.DeviceID]*model.Identity
	displayIndex map[model.DisplayID]model.DeviceID
	scores       map[model.ScoreID]*model.Score
	deviceScores map[model.DeviceID][]model.ScoreID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities:   make(map[model.DeviceID]*model.Identity),
		displayIndex: make(map[model.DisplayID]model.DeviceID),
		scores:       make(map[model.ScoreID]*model.Score),
		deviceScores: make(map[model.DeviceID][]model.ScoreID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.DeviceID]; ok {
		return model.ErrDeviceIDExists
	}
	if _, ok := s.displayIndex[identity.DisplayID]; ok {
		return model.ErrDisplayIDTaken
	}
	s.identities[identity.DeviceID] = identity.Clone()
	s.displayIndex[identity.DisplayID] = identity.DeviceID
	return nil
}

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.identities[identity.DeviceID]
	if !ok {
		return model.ErrIdentityNotFound
	}
	// The display id is fixed at creation
	c := identity.Clone()
	c.DisplayID = existing.DisplayID
	s.identities[identity.DeviceID] = c
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.DeviceID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (s *Storage) GetIdentities(ctx context.Context, ids []model.DeviceID) (map[model.DeviceID]*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[model.DeviceID]*model.Identity, len(ids))
	for _, id := range ids {
		if identity, ok := s.identities[id]; ok {
			result[id] = identity.Clone()
		}
	}
	return result, nil
}

func (s *Storage) DisplayIDExists(ctx context.Context, id model.DisplayID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.displayIndex[id]
	return ok, nil
}

func (s *Storage) FindRecentIdentity(ctx context.Context, since time.Time, address, userAgent string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *model.Identity
	for _, identity := range s.identities {
		if identity.CreatedAt.Before(since) {
			continue
		}
		if !identity.HasAddress(address) && !identity.MatchesUserAgent(userAgent) {
			continue
		}
		// Prefer the most recently created match for a stable answer
		if best == nil || identity.CreatedAt.After(best.CreatedAt) {
			best = identity
		}
	}
	if best == nil {
		return nil, model.ErrIdentityNotFound
	}
	return best.Clone(), nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores[score.ID]; ok {
		return model.ErrScoreExists
	}
	c := *score
	s.scores[score.ID] = &c
	s.deviceScores[score.DeviceID] = append(s.deviceScores[score.DeviceID], score.ID)
	return nil
}

func (s *Storage) HasRecentScore(ctx context.Context, deviceID model.DeviceID, score int64, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.deviceScores[deviceID] {
		sc := s.scores[id]
		if sc.Score == score && !sc.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) ListScores(ctx context.Context, offset, limit int) ([]*model.Score, error) {
	s.mu.RLock()
	all := make([]*model.Score, 0, len(s.scores))
	for _, sc := range s.scores {
		c := *sc
		all = append(all, &c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].RanksAbove(all[j])
	})

	if offset < 0 || offset >= len(all) || limit <= 0 {
		return []*model.Score{}, nil
	}
	end := offset + limit
	if end > len(all) || end < offset {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Storage) CountScores(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.scores)), nil
}

func (s *Storage) GetScoresForDevice(ctx context.Context, deviceID model.DeviceID) ([]*model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.deviceScores[deviceID]
	result := make([]*model.Score, 0, len(ids))
	for _, id := range ids {
		c := *s.scores[id]
		result = append(result, &c)
	}
	return result, nil
}

// Ping always succeeds for in-memory storage
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}
