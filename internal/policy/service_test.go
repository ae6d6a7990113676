package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sentra/internal/allowlist"
	"sentra/internal/elevation"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/telemetry"
	"sentra/internal/transparency"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctx          context.Context
	prefsStore   *prefs.InMemoryStore
	allowStore   *allowlist.InMemoryStore
	sigStore     *signals.InMemoryStore
	eventStore   *telemetry.InMemoryStore
	logStore     *transparency.InMemoryStore
	retained     *transparency.InMemoryRetainedStore
	sessionStore *elevation.InMemoryStore
	service      *Service

	userID domain.UserID
	token  domain.SessionToken
	now    time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.prefsStore = prefs.NewInMemory()
	s.allowStore = allowlist.NewInMemory()
	s.sigStore = signals.NewInMemory()
	s.eventStore = telemetry.NewInMemory()
	s.logStore = transparency.NewInMemory()
	s.retained = transparency.NewInMemoryRetained()
	s.sessionStore = elevation.NewInMemory()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.userID = domain.UserID(uuid.New())

	clock := func() time.Time { return s.now }
	gate := elevation.NewGate(s.sessionStore, elevation.WithGateClock(clock))
	recorder := transparency.NewRecorder(s.logStore, transparency.WithRecorderClock(clock))
	purger := NewMemoryPurger(s.eventStore, s.sigStore, s.allowStore, s.logStore, s.prefsStore, s.retained).
		WithPurgerClock(clock)

	s.service = NewService(s.prefsStore, s.allowStore, s.sigStore, s.eventStore,
		gate, recorder, purger, WithClock(clock))

	s.token = s.elevate()
}

// elevate mints a valid session for the suite user.
func (s *ServiceSuite) elevate() domain.SessionToken {
	issuer := elevation.NewIssuer(s.sessionStore,
		elevation.SecondFactorFunc(func(context.Context, domain.UserID, string) (bool, error) {
			return true, nil
		}),
		elevation.WithIssuerClock(func() time.Time { return s.now }),
	)
	session, err := issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)
	return session.Token
}

func (s *ServiceSuite) logEntries() []transparency.Entry {
	entries, err := s.logStore.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) TestUpsertAllowlistWithoutElevationRejected() {
	_, err := s.service.UpsertAppAllowlist(s.ctx, s.userID, "", "com.example.editor", "Editor", true, allowlist.ScopeMetadataOnly)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))

	_, err = s.allowStore.Get(s.ctx, s.userID, "com.example.editor")
	s.Error(err, "no entry may be written without elevation")
	s.Empty(s.logEntries())
}

func (s *ServiceSuite) TestUpsertAllowlistRecordsEnabledEntry() {
	entry, err := s.service.UpsertAppAllowlist(s.ctx, s.userID, s.token, "com.example.editor", "Editor", true, allowlist.ScopeMetadataOnly)
	s.Require().NoError(err)
	s.True(entry.Allows())

	entries := s.logEntries()
	s.Require().Len(entries, 1, "exactly one transparency entry per mutation")
	s.Equal(transparency.ActionAppEnabled, entries[0].Action)
	s.Equal("app", entries[0].Resource)
	s.Empty(entries[0].OldValueHash, "first write has no previous value")
	s.NotEmpty(entries[0].NewValueHash)
}

func (s *ServiceSuite) TestUpsertAllowlistDisableRecordsOldValueHash() {
	_, err := s.service.UpsertAppAllowlist(s.ctx, s.userID, s.token, "com.example.editor", "Editor", true, allowlist.ScopeMetadataOnly)
	s.Require().NoError(err)

	entry, err := s.service.UpsertAppAllowlist(s.ctx, s.userID, s.token, "com.example.editor", "Editor", false, allowlist.ScopeMetadataOnly)
	s.Require().NoError(err)
	s.False(entry.Allows())

	entries := s.logEntries()
	s.Require().Len(entries, 2)
	s.Equal(transparency.ActionAppDisabled, entries[1].Action)
	s.NotEmpty(entries[1].OldValueHash)
}

func (s *ServiceSuite) TestUpsertSignalOutOfRangeRateWritesNothing() {
	_, err := s.service.UpsertSignalToggle(s.ctx, s.userID, s.token, "app_focus", true, 1.5)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.sigStore.Get(s.ctx, s.userID, "app_focus")
	s.Error(err, "invalid rate must never be persisted")
	s.Empty(s.logEntries())
}

func (s *ServiceSuite) TestUpsertSignalRecordsToggle() {
	toggle, err := s.service.UpsertSignalToggle(s.ctx, s.userID, s.token, "app_focus", true, 0.25)
	s.Require().NoError(err)
	s.Equal(0.25, toggle.SamplingRate)

	entries := s.logEntries()
	s.Require().Len(entries, 1)
	s.Equal(transparency.ActionSignalToggled, entries[0].Action)
	s.Equal("app_focus", entries[0].ResourceID)
}

func (s *ServiceSuite) TestFirstPreferencesWriteNeedsNoElevation() {
	record, err := s.service.UpdatePreferences(s.ctx, s.userID, "", true, true, 90, true)
	s.Require().NoError(err)
	s.True(record.AllowsMonitoring())
	s.Require().Len(s.logEntries(), 1)
}

func (s *ServiceSuite) TestMFAGuardedPreferencesRequireElevation() {
	_, err := s.service.UpdatePreferences(s.ctx, s.userID, "", true, true, 90, true)
	s.Require().NoError(err)

	_, err = s.service.UpdatePreferences(s.ctx, s.userID, "", false, true, 90, true)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))

	_, err = s.service.UpdatePreferences(s.ctx, s.userID, s.token, false, true, 90, true)
	s.NoError(err)
}

func (s *ServiceSuite) TestScheduledDeletionRevokesConsentImmediately() {
	_, err := s.service.UpdatePreferences(s.ctx, s.userID, "", true, true, 90, false)
	s.Require().NoError(err)

	result, err := s.service.RequestDeletion(s.ctx, s.userID, s.token, false)
	s.Require().NoError(err)
	s.Require().NotNil(result.ScheduledPurgeAt)
	s.Equal(s.now.Add(DefaultPurgeDelay), *result.ScheduledPurgeAt)

	record, err := s.prefsStore.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(record.AllowsMonitoring())
	s.Equal(prefs.StatusSoftDeleted, record.Status)

	entries := s.logEntries()
	s.Equal(transparency.ActionDeleteRequested, entries[len(entries)-1].Action)
}

func (s *ServiceSuite) TestImmediateDeletionPurgesEverythingButLeavesReceipt() {
	_, err := s.service.UpdatePreferences(s.ctx, s.userID, "", true, true, 90, false)
	s.Require().NoError(err)
	_, err = s.service.UpsertAppAllowlist(s.ctx, s.userID, s.token, "com.example.editor", "Editor", true, allowlist.ScopeMetadataOnly)
	s.Require().NoError(err)
	_, err = s.service.UpsertSignalToggle(s.ctx, s.userID, s.token, "app_focus", true, 1.0)
	s.Require().NoError(err)
	s.Require().NoError(s.eventStore.Insert(s.ctx, &telemetry.Event{
		ID: domain.NewEventID(), UserID: s.userID, AppID: "com.example.editor", SignalKey: "app_focus",
	}))

	result, err := s.service.RequestDeletion(s.ctx, s.userID, s.token, true)
	s.Require().NoError(err)
	s.True(result.Immediate)
	s.Nil(result.ScheduledPurgeAt)

	_, err = s.prefsStore.Get(s.ctx, s.userID)
	s.Error(err)
	apps, err := s.allowStore.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(apps)
	toggles, err := s.sigStore.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(toggles)
	count, err := s.eventStore.CountByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Zero(count)
	s.Empty(s.logEntries(), "transparency log rows are governed data too")

	receipts, err := s.retained.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(receipts, 1)
	s.Equal("immediate", receipts[0].Mode)
}

func (s *ServiceSuite) TestDeletionWithoutElevationRejected() {
	_, err := s.service.RequestDeletion(s.ctx, s.userID, "", true)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}

func (s *ServiceSuite) TestExportGathersAllGovernedState() {
	_, err := s.service.UpdatePreferences(s.ctx, s.userID, "", true, true, 90, false)
	s.Require().NoError(err)
	_, err = s.service.UpsertAppAllowlist(s.ctx, s.userID, s.token, "com.example.editor", "Editor", true, allowlist.ScopeMetadataOnly)
	s.Require().NoError(err)
	_, err = s.service.UpsertSignalToggle(s.ctx, s.userID, s.token, "app_focus", true, 1.0)
	s.Require().NoError(err)
	s.Require().NoError(s.eventStore.Insert(s.ctx, &telemetry.Event{
		ID: domain.NewEventID(), UserID: s.userID, AppID: "com.example.editor", SignalKey: "app_focus",
	}))

	bundle, err := s.service.Export(s.ctx, s.userID)
	s.Require().NoError(err)
	s.NotNil(bundle.Preferences)
	s.Len(bundle.Apps, 1)
	s.Len(bundle.Signals, 1)
	s.Len(bundle.Events, 1)
	s.Len(bundle.TransparencyLog, 3)
}

func (s *ServiceSuite) TestExportOfUnknownUserIsEmptyNotError() {
	bundle, err := s.service.Export(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Nil(bundle.Preferences)
	s.Empty(bundle.Apps)
	s.Empty(bundle.Events)
}

type failingLogStore struct {
	transparency.Store
}

func (f *failingLogStore) Append(context.Context, *transparency.Entry) error {
	return errors.New("db down")
}

func (s *ServiceSuite) TestLogWriteFailureSurfacesAsAuditUnavailable() {
	recorder := transparency.NewRecorder(&failingLogStore{Store: s.logStore})
	gate := elevation.NewGate(s.sessionStore, elevation.WithGateClock(func() time.Time { return s.now }))
	purger := NewMemoryPurger(s.eventStore, s.sigStore, s.allowStore, s.logStore, s.prefsStore, s.retained)
	service := NewService(s.prefsStore, s.allowStore, s.sigStore, s.eventStore,
		gate, recorder, purger, WithClock(func() time.Time { return s.now }))

	_, err := service.UpsertSignalToggle(s.ctx, s.userID, s.token, "app_focus", true, 1.0)
	s.True(dErrors.HasCode(err, dErrors.CodeAuditUnavailable))
}
