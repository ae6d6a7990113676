// Package policy implements the elevation-gated mutation surface of the
// engine: allowlist and signal upserts, preference updates, the deletion
// lifecycle, and the per-user data export. Every mutation records exactly one
// transparency entry after its write succeeds.
package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sentra/internal/allowlist"
	"sentra/internal/platform/metrics"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/telemetry"
	"sentra/internal/transparency"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	"sentra/pkg/platform/sentinel"
)

// DefaultPurgeDelay is the window between a scheduled deletion request and the
// destructive purge.
const DefaultPurgeDelay = 7 * 24 * time.Hour

// ElevationChecker verifies a fresh elevated session before a sensitive
// mutation. Satisfied by elevation.Gate.
type ElevationChecker interface {
	Check(ctx context.Context, userID domain.UserID, token domain.SessionToken) error
}

// Recorder appends transparency entries. Satisfied by transparency.Recorder.
type Recorder interface {
	Record(ctx context.Context, userID domain.UserID, action transparency.Action, resource, resourceID string, oldValue, newValue any) (*transparency.Entry, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]transparency.Entry, error)
}

// Purger removes every governed row for a user as one logical operation,
// leaving only the retained deletion receipt.
type Purger interface {
	PurgeUser(ctx context.Context, userID domain.UserID, mode string, requestedAt time.Time) error
}

// Service is the privacy configuration mutation service.
type Service struct {
	prefs      prefs.Store
	allowlist  allowlist.Store
	signals    signals.Store
	events     telemetry.Store
	elevation  ElevationChecker
	recorder   Recorder
	purger     Purger
	logger     *slog.Logger
	metrics    *metrics.Metrics
	purgeDelay time.Duration
	now        func() time.Time
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithPurgeDelay overrides the scheduled-deletion delay.
func WithPurgeDelay(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.purgeDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock injects the time source for deterministic testing.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the mutation service over its collaborators.
func NewService(
	prefsStore prefs.Store,
	allowlistStore allowlist.Store,
	signalStore signals.Store,
	eventStore telemetry.Store,
	elevationGate ElevationChecker,
	recorder Recorder,
	purger Purger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		prefs:      prefsStore,
		allowlist:  allowlistStore,
		signals:    signalStore,
		events:     eventStore,
		elevation:  elevationGate,
		recorder:   recorder,
		purger:     purger,
		purgeDelay: DefaultPurgeDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkElevation runs the gate and counts denials.
func (s *Service) checkElevation(ctx context.Context, userID domain.UserID, token domain.SessionToken) error {
	if err := s.elevation.Check(ctx, userID, token); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeElevationRequired) {
			s.metrics.IncrementElevationDenials()
		}
		return err
	}
	return nil
}

// UpsertAppAllowlist creates or replaces the allowlist entry for (user, app).
// Requires elevation. Last write wins; serialization is the storage layer's
// single-row upsert.
func (s *Service) UpsertAppAllowlist(ctx context.Context, userID domain.UserID, token domain.SessionToken, appID domain.AppID, appName string, enabled bool, scope allowlist.Scope) (*allowlist.Entry, error) {
	if err := s.checkElevation(ctx, userID, token); err != nil {
		return nil, err
	}

	entry, err := allowlist.NewEntry(userID, appID, appName, enabled, scope, s.now())
	if err != nil {
		return nil, err
	}

	previous, err := s.allowlist.Get(ctx, userID, appID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read allowlist entry")
	}

	if err := s.allowlist.Upsert(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to upsert allowlist entry")
	}

	action := transparency.ActionAppDisabled
	if entry.Allows() {
		action = transparency.ActionAppEnabled
	}
	var oldValue any
	if previous != nil {
		oldValue = previous
	}
	if _, err := s.recorder.Record(ctx, userID, action, "app", appID.String(), oldValue, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementMutation("app", string(action))
	}
	s.logMutation(ctx, "allowlist_upserted", userID, "app_id", appID)
	return entry, nil
}

// UpsertSignalToggle creates or replaces the toggle for (user, signal).
// Requires elevation. An out-of-range sampling rate is rejected before any
// write.
func (s *Service) UpsertSignalToggle(ctx context.Context, userID domain.UserID, token domain.SessionToken, key domain.SignalKey, enabled bool, samplingRate float64) (*signals.Toggle, error) {
	if err := s.checkElevation(ctx, userID, token); err != nil {
		return nil, err
	}

	toggle, err := signals.NewToggle(userID, key, enabled, samplingRate, s.now())
	if err != nil {
		return nil, err
	}

	previous, err := s.signals.Get(ctx, userID, key)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read signal toggle")
	}

	if err := s.signals.Upsert(ctx, toggle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to upsert signal toggle")
	}

	var oldValue any
	if previous != nil {
		oldValue = previous
	}
	if _, err := s.recorder.Record(ctx, userID, transparency.ActionSignalToggled, "signal", key.String(), oldValue, toggle); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementMutation("signal", string(transparency.ActionSignalToggled))
	}
	s.logMutation(ctx, "signal_toggle_upserted", userID, "signal_key", key)
	return toggle, nil
}

// UpdatePreferences creates or updates the user's privacy preferences. When the
// existing record demands MFA for changes, elevation is required; the first
// write never is, since there is nothing yet to protect.
func (s *Service) UpdatePreferences(ctx context.Context, userID domain.UserID, token domain.SessionToken, monitoring, consent bool, retentionDays int, mfaRequired bool) (*prefs.Record, error) {
	previous, err := s.prefs.Get(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read preferences")
	}

	if previous != nil && previous.MFARequired {
		if err := s.checkElevation(ctx, userID, token); err != nil {
			return nil, err
		}
	}

	record, err := prefs.NewRecord(userID, monitoring, consent, retentionDays, mfaRequired, s.now())
	if err != nil {
		return nil, err
	}
	if previous != nil {
		record.Status = previous.Status
		record.ScheduledPurgeAt = previous.ScheduledPurgeAt
	}

	if err := s.prefs.Upsert(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to upsert preferences")
	}

	var oldValue any
	if previous != nil {
		oldValue = previous
	}
	if _, err := s.recorder.Record(ctx, userID, transparency.ActionPrefsUpdated, "preferences", userID.String(), oldValue, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementMutation("preferences", string(transparency.ActionPrefsUpdated))
	}
	s.logMutation(ctx, "preferences_updated", userID, "monitoring_enabled", monitoring)
	return record, nil
}

// DeletionResult reports the outcome of a deletion request. ScheduledPurgeAt
// is set only on the scheduled path.
type DeletionResult struct {
	Immediate        bool
	ScheduledPurgeAt *time.Time
}

// RequestDeletion starts the deletion lifecycle. Requires elevation on both
// paths. The immediate path destroys all governed rows as one logical
// operation; the scheduled path revokes consent at once and leaves the purge
// to the background sweep.
func (s *Service) RequestDeletion(ctx context.Context, userID domain.UserID, token domain.SessionToken, immediate bool) (*DeletionResult, error) {
	if err := s.checkElevation(ctx, userID, token); err != nil {
		return nil, err
	}

	now := s.now()
	if immediate {
		if err := s.purger.PurgeUser(ctx, userID, "immediate", now); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.IncrementDeletions("immediate")
		}
		s.logMutation(ctx, "user_purged", userID, "mode", "immediate")
		return &DeletionResult{Immediate: true}, nil
	}

	record, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no privacy preferences for user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read preferences")
	}

	purgeAt := now.Add(s.purgeDelay)
	record.MarkSoftDeleted(purgeAt, now)
	if err := s.prefs.Upsert(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to schedule deletion")
	}

	if _, err := s.recorder.Record(ctx, userID, transparency.ActionDeleteRequested, "user", userID.String(), nil,
		map[string]any{"immediate": false, "scheduled_purge_at": purgeAt}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementDeletions("scheduled")
	}
	s.logMutation(ctx, "deletion_scheduled", userID, "scheduled_purge_at", purgeAt)
	return &DeletionResult{ScheduledPurgeAt: &purgeAt}, nil
}

// ExportBundle is the read-only dump of all governed state for one user.
type ExportBundle struct {
	Preferences     *prefs.Record
	Apps            []*allowlist.Entry
	Signals         []*signals.Toggle
	Events          []telemetry.Event
	TransparencyLog []transparency.Entry
}

// Export gathers every governed row for the user. The reads are independent
// and fan out concurrently; export needs identity match but not elevation.
func (s *Service) Export(ctx context.Context, userID domain.UserID) (*ExportBundle, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user ID is required")
	}

	var bundle ExportBundle
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		record, err := s.prefs.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to export preferences")
		}
		bundle.Preferences = record
		return nil
	})
	g.Go(func() error {
		entries, err := s.allowlist.ListByUser(ctx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to export allowlist")
		}
		bundle.Apps = entries
		return nil
	})
	g.Go(func() error {
		toggles, err := s.signals.ListByUser(ctx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to export signal toggles")
		}
		bundle.Signals = toggles
		return nil
	})
	g.Go(func() error {
		events, err := s.events.ListByUser(ctx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to export events")
		}
		bundle.Events = events
		return nil
	})
	g.Go(func() error {
		entries, err := s.recorder.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		bundle.TransparencyLog = entries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// GetPreferences returns the user's preferences record.
func (s *Service) GetPreferences(ctx context.Context, userID domain.UserID) (*prefs.Record, error) {
	record, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no privacy preferences for user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read preferences")
	}
	return record, nil
}

// ListApps returns all allowlist entries for the user.
func (s *Service) ListApps(ctx context.Context, userID domain.UserID) ([]*allowlist.Entry, error) {
	entries, err := s.allowlist.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list allowlist entries")
	}
	return entries, nil
}

// ListSignals returns all signal toggles for the user.
func (s *Service) ListSignals(ctx context.Context, userID domain.UserID) ([]*signals.Toggle, error) {
	toggles, err := s.signals.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list signal toggles")
	}
	return toggles, nil
}

func (s *Service) logMutation(ctx context.Context, msg string, userID domain.UserID, args ...any) {
	if s.logger == nil {
		return
	}
	fields := append([]any{"user_id", userID}, args...)
	s.logger.InfoContext(ctx, msg, fields...)
}
