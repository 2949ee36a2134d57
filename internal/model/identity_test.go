package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayIDValid(t *testing.T) {
	cases := map[DisplayID]bool{
		"SIGN-ABCD":  true,
		"SIGN-ZZZZ":  true,
		"SIGN-abcd":  false,
		"SIGN-ABC":   false,
		"SIGN-ABCDE": false,
		"SING-ABCD":  false,
		"SIGN-AB1D":  false,
		"":           false,
	}
	for id, want := range cases {
		assert.Equal(t, want, id.Valid(), "display id %q", id)
	}
}

func TestTouchAddressAppendsNewAddress(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ident := &Identity{}

	ident.TouchAddress("10.0.0.1", t0)
	ident.TouchAddress("10.0.0.2", t0.Add(time.Minute))

	require.Len(t, ident.Addresses, 2)
	assert.Equal(t, "10.0.0.1", ident.Addresses[0].Address)
	assert.Equal(t, "10.0.0.2", ident.Addresses[1].Address)
	assert.Equal(t, t0.Add(time.Minute), ident.Addresses[1].FirstSeen)
}

func TestTouchAddressUpdatesLastSeen(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ident := &Identity{}

	ident.TouchAddress("10.0.0.1", t0)
	ident.TouchAddress("10.0.0.1", t0.Add(time.Hour))

	require.Len(t, ident.Addresses, 1)
	assert.Equal(t, t0, ident.Addresses[0].FirstSeen)
	assert.Equal(t, t0.Add(time.Hour), ident.Addresses[0].LastSeen)
	assert.True(t, ident.HasAddress("10.0.0.1"))
	assert.False(t, ident.HasAddress("10.0.0.9"))
}

func TestMatchesUserAgentIgnoresEmpty(t *testing.T) {
	ident := &Identity{}
	assert.False(t, ident.MatchesUserAgent(""))

	ident.Fingerprint.UserAgent = "Mozilla/5.0"
	assert.True(t, ident.MatchesUserAgent("Mozilla/5.0"))
	assert.False(t, ident.MatchesUserAgent("curl/8.0"))
}

func TestCloneDoesNotShareAddresses(t *testing.T) {
	ident := &Identity{DeviceID: "d1"}
	ident.TouchAddress("10.0.0.1", time.Now())

	c := ident.Clone()
	c.TouchAddress("10.0.0.2", time.Now())

	assert.Len(t, ident.Addresses, 1)
	assert.Len(t, c.Addresses, 2)
}

func TestScoreRanksAbove(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	high := &Score{ID: "01A", Score: 900, CreatedAt: t0}
	low := &Score{ID: "01B", Score: 100, CreatedAt: t0.Add(time.Hour)}
	newer := &Score{ID: "01C", Score: 900, CreatedAt: t0.Add(time.Minute)}
	sameTime := &Score{ID: "01D", Score: 900, CreatedAt: t0.Add(time.Minute)}

	assert.True(t, high.RanksAbove(low))
	assert.False(t, low.RanksAbove(high))
	assert.True(t, newer.RanksAbove(high))
	assert.True(t, sameTime.RanksAbove(newer))
}
