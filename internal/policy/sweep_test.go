package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sentra/internal/allowlist"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/telemetry"
	"sentra/internal/transparency"
	domain "sentra/pkg/domain"
)

type SweepSuite struct {
	suite.Suite

	ctx        context.Context
	prefsStore *prefs.InMemoryStore
	retained   *transparency.InMemoryRetainedStore
	sweeper    *PurgeSweeper
	now        time.Time
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

func (s *SweepSuite) SetupTest() {
	s.ctx = context.Background()
	s.prefsStore = prefs.NewInMemory()
	s.retained = transparency.NewInMemoryRetained()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	purger := NewMemoryPurger(
		telemetry.NewInMemory(),
		signals.NewInMemory(),
		allowlist.NewInMemory(),
		transparency.NewInMemory(),
		s.prefsStore,
		s.retained,
	).WithPurgerClock(func() time.Time { return s.now })

	s.sweeper = NewPurgeSweeper(s.prefsStore, purger, time.Hour, nil, nil)
	s.sweeper.now = func() time.Time { return s.now }
}

func (s *SweepSuite) addUser(purgeAt *time.Time) domain.UserID {
	userID := domain.UserID(uuid.New())
	record, err := prefs.NewRecord(userID, true, true, 90, false, s.now)
	s.Require().NoError(err)
	if purgeAt != nil {
		record.MarkSoftDeleted(*purgeAt, s.now)
	}
	s.Require().NoError(s.prefsStore.Upsert(s.ctx, record))
	return userID
}

func (s *SweepSuite) TestSweepPurgesOnlyDueUsers() {
	past := s.now.Add(-time.Hour)
	future := s.now.Add(time.Hour)
	dueUser := s.addUser(&past)
	pendingUser := s.addUser(&future)
	activeUser := s.addUser(nil)

	s.sweeper.Sweep(s.ctx)

	_, err := s.prefsStore.Get(s.ctx, dueUser)
	s.Error(err, "due user must be purged")
	_, err = s.prefsStore.Get(s.ctx, pendingUser)
	s.NoError(err, "not-yet-due user must remain")
	_, err = s.prefsStore.Get(s.ctx, activeUser)
	s.NoError(err, "active user must remain")

	receipts, err := s.retained.ListByUser(s.ctx, dueUser)
	s.Require().NoError(err)
	s.Require().Len(receipts, 1)
	s.Equal("scheduled", receipts[0].Mode)
	s.Equal(past, receipts[0].RequestedAt)
}

func (s *SweepSuite) TestSweepIsIdempotent() {
	past := s.now.Add(-time.Hour)
	userID := s.addUser(&past)

	s.sweeper.Sweep(s.ctx)
	s.sweeper.Sweep(s.ctx)

	receipts, err := s.retained.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(receipts, 1, "repeated sweeps must not double-purge")
}

func (s *SweepSuite) TestSweepWithNothingDueIsNoop() {
	s.addUser(nil)
	s.sweeper.Sweep(s.ctx)
}
