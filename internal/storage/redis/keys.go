package redis

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/signmaze/internal/model"
)

// Key prefix for all leaderboard data
const keyPrefix = "signmaze"

// identityKey returns the Redis key for an Identity
func identityKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// displayIndexKey returns the Redis key for the display_id -> device_id index
func displayIndexKey(id model.DisplayID) string {
	return fmt.Sprintf("%s:idx:display:%s", keyPrefix, id)
}

// addressIndexKey returns the ZSET of device ids seen at an address, scored by
// identity creation time (unix ms)
func addressIndexKey(address string) string {
	return fmt.Sprintf("%s:idx:identities_by_address:%s", keyPrefix, address)
}

// userAgentIndexKey returns the ZSET of device ids registered with a user
// agent, scored by identity creation time (unix ms). The agent is hashed to
// bound the key length.
func userAgentIndexKey(userAgent string) string {
	sum := blake2b.Sum256([]byte(userAgent))
	return fmt.Sprintf("%s:idx:identities_by_ua:%s", keyPrefix, hex.EncodeToString(sum[:16]))
}

// scoreKey returns the Redis key for a Score
func scoreKey(id model.ScoreID) string {
	return fmt.Sprintf("%s:score:%s", keyPrefix, id)
}

// leaderboardKey returns the ZSET of score ids scored by points.
// Members are ULIDs, so equal points fall back to lexicographic (time) order.
func leaderboardKey() string {
	return fmt.Sprintf("%s:idx:leaderboard", keyPrefix)
}

// deviceScoresKey returns the ZSET of a device's score ids scored by creation time (unix ms)
func deviceScoresKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:idx:device_scores:%s", keyPrefix, id)
}
