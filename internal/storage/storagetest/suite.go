// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/storage"
)

// Suite runs the storage contract against a backend built by NewStorage
type Suite struct {
	suite.Suite

	// NewStorage returns an empty storage for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

// SetupTest creates a fresh storage
func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) identity(deviceID, displayID string, createdAt time.Time) *model.Identity {
	identity := &model.Identity{
		DeviceID:     model.DeviceID(deviceID),
		DisplayID:    model.DisplayID(displayID),
		Fingerprint:  model.Fingerprint{UserAgent: "agent-" + deviceID},
		CreatedAt:    createdAt,
		LastActiveAt: createdAt,
	}
	identity.TouchAddress("addr-"+deviceID, createdAt)
	return identity
}

func (s *Suite) score(id string, deviceID string, points int64, createdAt time.Time) *model.Score {
	return &model.Score{
		ID:        model.ScoreID(id),
		DeviceID:  model.DeviceID(deviceID),
		DisplayID: "SIGN-TEST",
		Score:     points,
		Level:     1,
		CreatedAt: createdAt,
	}
}

// Identity tests

func (s *Suite) TestCreateAndGetIdentity() {
	identity := s.identity("d1", "SIGN-AAAA", s.Now)
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, identity))

	got, err := s.Storage.GetIdentity(s.Ctx, "d1")
	s.Require().NoError(err)
	s.Equal(identity.DisplayID, got.DisplayID)
	s.Equal("agent-d1", got.Fingerprint.UserAgent)
	s.Require().Len(got.Addresses, 1)
	s.Equal("addr-d1", got.Addresses[0].Address)
	s.True(identity.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Storage.GetIdentity(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestCreateIdentityRejectsTakenDisplayID() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	err := s.Storage.CreateIdentity(s.Ctx, s.identity("d2", "SIGN-AAAA", s.Now))
	s.ErrorIs(err, model.ErrDisplayIDTaken)

	_, err = s.Storage.GetIdentity(s.Ctx, "d2")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestCreateIdentityRejectsExistingDeviceID() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	err := s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-BBBB", s.Now))
	s.ErrorIs(err, model.ErrDeviceIDExists)

	// The rejected display id stays free
	exists, err := s.Storage.DisplayIDExists(s.Ctx, "SIGN-BBBB")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestDisplayIDExists() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	exists, err := s.Storage.DisplayIDExists(s.Ctx, "SIGN-AAAA")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.Storage.DisplayIDExists(s.Ctx, "SIGN-ZZZZ")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestSaveIdentityUpdatesExisting() {
	identity := s.identity("d1", "SIGN-AAAA", s.Now)
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, identity))

	identity.IsVerified = true
	identity.TouchAddress("10.0.0.9", s.Now.Add(time.Minute))
	s.Require().NoError(s.Storage.SaveIdentity(s.Ctx, identity))

	got, err := s.Storage.GetIdentity(s.Ctx, "d1")
	s.Require().NoError(err)
	s.True(got.IsVerified)
	s.Len(got.Addresses, 2)
}

func (s *Suite) TestSaveIdentityKeepsDisplayID() {
	identity := s.identity("d1", "SIGN-AAAA", s.Now)
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, identity))

	identity.DisplayID = "SIGN-BBBB"
	identity.IsVerified = true
	s.Require().NoError(s.Storage.SaveIdentity(s.Ctx, identity))

	got, err := s.Storage.GetIdentity(s.Ctx, "d1")
	s.Require().NoError(err)
	s.Equal(model.DisplayID("SIGN-AAAA"), got.DisplayID)
	s.True(got.IsVerified)

	taken, err := s.Storage.DisplayIDExists(s.Ctx, "SIGN-BBBB")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *Suite) TestSaveIdentityRequiresExisting() {
	err := s.Storage.SaveIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now))
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestReturnedIdentityIsNotShared() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	got, err := s.Storage.GetIdentity(s.Ctx, "d1")
	s.Require().NoError(err)
	got.IsVerified = true
	got.TouchAddress("10.0.0.9", s.Now)

	again, err := s.Storage.GetIdentity(s.Ctx, "d1")
	s.Require().NoError(err)
	s.False(again.IsVerified)
	s.Len(again.Addresses, 1)
}

func (s *Suite) TestGetIdentitiesSkipsMissing() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d2", "SIGN-BBBB", s.Now)))

	got, err := s.Storage.GetIdentities(s.Ctx, []model.DeviceID{"d1", "d2", "missing"})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(model.DisplayID("SIGN-BBBB"), got["d2"].DisplayID)
}

func (s *Suite) TestFindRecentIdentityByAddress() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	got, err := s.Storage.FindRecentIdentity(s.Ctx, s.Now.Add(-time.Hour), "addr-d1", "other-agent")
	s.Require().NoError(err)
	s.Equal(model.DeviceID("d1"), got.DeviceID)
}

func (s *Suite) TestFindRecentIdentityByUserAgent() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	got, err := s.Storage.FindRecentIdentity(s.Ctx, s.Now.Add(-time.Hour), "10.9.9.9", "agent-d1")
	s.Require().NoError(err)
	s.Equal(model.DeviceID("d1"), got.DeviceID)
}

func (s *Suite) TestFindRecentIdentityIgnoresOldIdentities() {
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, s.identity("d1", "SIGN-AAAA", s.Now)))

	_, err := s.Storage.FindRecentIdentity(s.Ctx, s.Now.Add(time.Second), "addr-d1", "agent-d1")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestFindRecentIdentityEmptyUserAgentNeverMatches() {
	identity := s.identity("d1", "SIGN-AAAA", s.Now)
	identity.Fingerprint.UserAgent = ""
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, identity))

	_, err := s.Storage.FindRecentIdentity(s.Ctx, s.Now.Add(-time.Hour), "10.9.9.9", "")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestFindRecentIdentityPrefersNewest() {
	older := s.identity("d1", "SIGN-AAAA", s.Now)
	newer := s.identity("d2", "SIGN-BBBB", s.Now.Add(time.Minute))
	newer.TouchAddress("addr-d1", s.Now.Add(time.Minute))
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, older))
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, newer))

	got, err := s.Storage.FindRecentIdentity(s.Ctx, s.Now.Add(-time.Hour), "addr-d1", "")
	s.Require().NoError(err)
	s.Equal(model.DeviceID("d2"), got.DeviceID)
}

// Score tests

func (s *Suite) TestInsertScoreRejectsDuplicateID() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S1", "d1", 10, s.Now)))

	err := s.Storage.InsertScore(s.Ctx, s.score("01S1", "d1", 20, s.Now))
	s.ErrorIs(err, model.ErrScoreExists)

	count, err := s.Storage.CountScores(s.Ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *Suite) TestHasRecentScore() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S1", "d1", 500, s.Now)))

	found, err := s.Storage.HasRecentScore(s.Ctx, "d1", 500, s.Now.Add(-time.Minute))
	s.Require().NoError(err)
	s.True(found)

	found, err = s.Storage.HasRecentScore(s.Ctx, "d1", 501, s.Now.Add(-time.Minute))
	s.Require().NoError(err)
	s.False(found)

	found, err = s.Storage.HasRecentScore(s.Ctx, "d2", 500, s.Now.Add(-time.Minute))
	s.Require().NoError(err)
	s.False(found)

	found, err = s.Storage.HasRecentScore(s.Ctx, "d1", 500, s.Now.Add(time.Second))
	s.Require().NoError(err)
	s.False(found)
}

func (s *Suite) TestListScoresOrdering() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S1", "d1", 100, s.Now)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S2", "d2", 300, s.Now.Add(time.Second))))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S3", "d3", 300, s.Now.Add(2*time.Second))))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S4", "d4", 200, s.Now.Add(3*time.Second))))

	scores, err := s.Storage.ListScores(s.Ctx, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(scores, 4)

	ids := make([]model.ScoreID, len(scores))
	for i, sc := range scores {
		ids[i] = sc.ID
	}
	// Equal scores: newest first
	s.Equal([]model.ScoreID{"01S3", "01S2", "01S4", "01S1"}, ids)
}

func (s *Suite) TestListScoresPagination() {
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("01S%02d", i)
		s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score(id, "d1", int64(i), s.Now.Add(time.Duration(i)*time.Second))))
	}

	page, err := s.Storage.ListScores(s.Ctx, 10, 10)
	s.Require().NoError(err)
	s.Require().Len(page, 10)
	s.Equal(int64(14), page[0].Score)
	s.Equal(int64(5), page[9].Score)

	last, err := s.Storage.ListScores(s.Ctx, 20, 10)
	s.Require().NoError(err)
	s.Len(last, 5)

	beyond, err := s.Storage.ListScores(s.Ctx, 30, 10)
	s.Require().NoError(err)
	s.Empty(beyond)

	count, err := s.Storage.CountScores(s.Ctx)
	s.Require().NoError(err)
	s.Equal(int64(25), count)
}

func (s *Suite) TestListScoresOutOfRangeOffsets() {
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("01S%02d", i)
		s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score(id, "d1", int64(i), s.Now)))
	}

	negative, err := s.Storage.ListScores(s.Ctx, -2, 10)
	s.Require().NoError(err)
	s.Empty(negative)

	huge, err := s.Storage.ListScores(s.Ctx, math.MaxInt, 100)
	s.Require().NoError(err)
	s.Empty(huge)
}

func (s *Suite) TestGetScoresForDevice() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S1", "d1", 100, s.Now)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S2", "d1", 200, s.Now.Add(time.Second))))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.score("01S3", "d2", 300, s.Now)))

	scores, err := s.Storage.GetScoresForDevice(s.Ctx, "d1")
	s.Require().NoError(err)
	s.Len(scores, 2)

	none, err := s.Storage.GetScoresForDevice(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestPing() {
	s.NoError(s.Storage.Ping(s.Ctx))
}
