package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance.
// The connection is established lazily; use storage.WaitReady to block until
// the server answers.
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.OperationTimeout > 0 {
		opts.DialTimeout = cfg.OperationTimeout
		opts.ReadTimeout = cfg.OperationTimeout
		opts.WriteTimeout = cfg.OperationTimeout
		opts.PoolTimeout = cfg.OperationTimeout
	}

	return &Storage{
		client: redis.NewClient(opts),
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Ping checks that the Redis server answers
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	// Claim the display id first; SETNX keeps it unique across writers
	claimed, err := s.client.SetNX(ctx, displayIndexKey(identity.DisplayID), string(identity.DeviceID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrDisplayIDTaken
	}

	created, err := s.client.SetNX(ctx, identityKey(identity.DeviceID), data, 0).Result()
	if err != nil || !created {
		// Release the display id so it can be drawn again
		_ = s.client.Del(ctx, displayIndexKey(identity.DisplayID)).Err()
		if err != nil {
			return err
		}
		return model.ErrDeviceIDExists
	}

	return s.writeIdentityIndexes(ctx, identity)
}

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	existing, err := s.GetIdentity(ctx, identity.DeviceID)
	if err != nil {
		return err
	}

	// The display id is fixed at creation
	c := identity.Clone()
	c.DisplayID = existing.DisplayID
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	// XX: only overwrite identities that already exist
	updated, err := s.client.SetXX(ctx, identityKey(c.DeviceID), data, 0).Result()
	if err != nil {
		return err
	}
	if !updated {
		return model.ErrIdentityNotFound
	}

	// New addresses become searchable by FindRecentIdentity
	return s.writeIdentityIndexes(ctx, c)
}

// writeIdentityIndexes adds the identity to its address and user agent
// indexes. Entries are scored by creation time, so re-adding is a no-op.
func (s *Storage) writeIdentityIndexes(ctx context.Context, identity *model.Identity) error {
	created := float64(identity.CreatedAt.UnixMilli())
	member := string(identity.DeviceID)

	pipe := s.client.TxPipeline()
	for _, entry := range identity.Addresses {
		pipe.ZAdd(ctx, addressIndexKey(entry.Address), redis.Z{Score: created, Member: member})
	}
	if ua := identity.Fingerprint.UserAgent; ua != "" {
		pipe.ZAdd(ctx, userAgentIndexKey(ua), redis.Z{Score: created, Member: member})
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetIdentity(ctx context.Context, id model.DeviceID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) GetIdentities(ctx context.Context, ids []model.DeviceID) (map[model.DeviceID]*model.Identity, error) {
	result := make(map[model.DeviceID]*model.Identity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = identityKey(id)
	}

	identities, err := s.mgetIdentities(ctx, keys)
	if err != nil {
		return nil, err
	}
	for _, identity := range identities {
		result[identity.DeviceID] = identity
	}
	return result, nil
}

func (s *Storage) DisplayIDExists(ctx context.Context, id model.DisplayID) (bool, error) {
	exists, err := s.client.Exists(ctx, displayIndexKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) FindRecentIdentity(ctx context.Context, since time.Time, address, userAgent string) (*model.Identity, error) {
	indexKeys := make([]string, 0, 2)
	if address != "" {
		indexKeys = append(indexKeys, addressIndexKey(address))
	}
	if userAgent != "" {
		indexKeys = append(indexKeys, userAgentIndexKey(userAgent))
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, indexKey := range indexKeys {
		deviceIDs, err := s.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
			Min: strconv.FormatInt(since.UnixMilli(), 10),
			Max: "+inf",
		}).Result()
		if err != nil {
			return nil, err
		}
		for _, id := range deviceIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			keys = append(keys, identityKey(model.DeviceID(id)))
		}
	}
	if len(keys) == 0 {
		return nil, model.ErrIdentityNotFound
	}

	identities, err := s.mgetIdentities(ctx, keys)
	if err != nil {
		return nil, err
	}

	var best *model.Identity
	for _, identity := range identities {
		if identity.CreatedAt.Before(since) {
			continue
		}
		// Recheck the match; user agent keys are hashes
		if !identity.HasAddress(address) && !identity.MatchesUserAgent(userAgent) {
			continue
		}
		if best == nil || identity.CreatedAt.After(best.CreatedAt) {
			best = identity
		}
	}
	if best == nil {
		return nil, model.ErrIdentityNotFound
	}
	return best, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) error {
	data, err := json.Marshal(score)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, scoreKey(score.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrScoreExists
	}

	// Use pipeline for atomic index update
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey(), redis.Z{
		Score:  float64(score.Score),
		Member: string(score.ID),
	})
	pipe.ZAdd(ctx, deviceScoresKey(score.DeviceID), redis.Z{
		Score:  float64(score.CreatedAt.UnixMilli()),
		Member: string(score.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) HasRecentScore(ctx context.Context, deviceID model.DeviceID, score int64, since time.Time) (bool, error) {
	ids, err := s.client.ZRangeByScore(ctx, deviceScoresKey(deviceID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return false, err
	}

	scores, err := s.getScores(ctx, ids)
	if err != nil {
		return false, err
	}
	for _, sc := range scores {
		if sc.Score == score && !sc.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) ListScores(ctx context.Context, offset, limit int) ([]*model.Score, error) {
	// Negative ranks count from the tail in Redis
	if offset < 0 || limit <= 0 {
		return []*model.Score{}, nil
	}
	start := int64(offset)
	stop := start + int64(limit) - 1
	if stop < start {
		stop = math.MaxInt64
	}

	// ZREVRANGE orders equal scores by member descending, i.e. newest ULID first
	ids, err := s.client.ZRevRange(ctx, leaderboardKey(), start, stop).Result()
	if err != nil {
		return nil, err
	}
	return s.getScores(ctx, ids)
}

func (s *Storage) CountScores(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, leaderboardKey()).Result()
}

func (s *Storage) GetScoresForDevice(ctx context.Context, deviceID model.DeviceID) ([]*model.Score, error) {
	ids, err := s.client.ZRange(ctx, deviceScoresKey(deviceID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.getScores(ctx, ids)
}

// getScores fetches score records by id, preserving order
func (s *Storage) getScores(ctx context.Context, ids []string) ([]*model.Score, error) {
	if len(ids) == 0 {
		return []*model.Score{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = scoreKey(model.ScoreID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	scores := make([]*model.Score, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Index entry without a record
		}
		var score model.Score
		if err := json.Unmarshal([]byte(str), &score); err != nil {
			continue // Skip invalid data
		}
		scores = append(scores, &score)
	}
	return scores, nil
}

// mgetIdentities fetches identities by key, skipping missing entries
func (s *Storage) mgetIdentities(ctx context.Context, keys []string) ([]*model.Identity, error) {
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	identities := make([]*model.Identity, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var identity model.Identity
		if err := json.Unmarshal([]byte(str), &identity); err != nil {
			continue
		}
		identities = append(identities, &identity)
	}
	return identities, nil
}
