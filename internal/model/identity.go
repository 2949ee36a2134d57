package model

import (
	"regexp"
	"time"
)

// DeviceID is the opaque server-issued token identifying an anonymous player
type DeviceID string

// DisplayID is the short public code shown on the leaderboard
type DisplayID string

const (
	// DisplayIDPrefix is the fixed part of every display id
	DisplayIDPrefix = "SIGN-"
	// DisplayIDSuffixLength is the number of random letters after the prefix
	DisplayIDSuffixLength = 4
	// DisplayIDAlphabet is the set of characters used for the suffix
	DisplayIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var displayIDPattern = regexp.MustCompile(`^SIGN-[A-Z]{4}$`)

// Valid reports whether the display id has the prefix/suffix format
func (d DisplayID) Valid() bool {
	return displayIDPattern.MatchString(string(d))
}

// Fingerprint holds client-reported environment attributes.
// Advisory only: every field is trivially spoofable.
type Fingerprint struct {
	UserAgent        string
	ScreenResolution string
	Timezone         string
	Language         string
	Platform         string
}

// AddressEntry records when a client address was seen for an identity
type AddressEntry struct {
	Address   string
	FirstSeen time.Time
	LastSeen  time.Time
}

// Identity is one anonymous player across sessions
type Identity struct {
	DeviceID     DeviceID
	DisplayID    DisplayID
	Fingerprint  Fingerprint
	Addresses    []AddressEntry // ordered by first sighting
	IsVerified   bool
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// HasAddress reports whether the address was ever seen for this identity
func (i *Identity) HasAddress(address string) bool {
	for _, a := range i.Addresses {
		if a.Address == address {
			return true
		}
	}
	return false
}

// TouchAddress updates LastSeen for a known address or appends a new entry
func (i *Identity) TouchAddress(address string, now time.Time) {
	for idx := range i.Addresses {
		if i.Addresses[idx].Address == address {
			i.Addresses[idx].LastSeen = now
			return
		}
	}
	i.Addresses = append(i.Addresses, AddressEntry{
		Address:   address,
		FirstSeen: now,
		LastSeen:  now,
	})
}

// MatchesUserAgent reports whether a non-empty user agent equals the stored one
func (i *Identity) MatchesUserAgent(userAgent string) bool {
	return userAgent != "" && i.Fingerprint.UserAgent == userAgent
}

// Clone returns a deep copy so callers never share the address slice
func (i *Identity) Clone() *Identity {
	c := *i
	c.Addresses = make([]AddressEntry, len(i.Addresses))
	copy(c.Addresses, i.Addresses)
	return &c
}

// ClientInfo describes the caller of a request as seen by the server
type ClientInfo struct {
	Address      string
	UserAgent    string
	HeaderDigest string
}
