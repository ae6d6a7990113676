package policy

import (
	"context"
	"log/slog"
	"time"

	"sentra/internal/elevation"
	"sentra/internal/platform/metrics"
	"sentra/internal/prefs"
)

// PurgeSweeper is the idempotent background sweep that performs the
// destructive half of scheduled deletions. Each pass re-reads which users are
// due, so a crashed or repeated pass never double-purges: a purged user simply
// has no row left to find.
type PurgeSweeper struct {
	prefs    prefs.Store
	purger   Purger
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPurgeSweeper constructs the sweep over the preferences store and purger.
func NewPurgeSweeper(prefsStore prefs.Store, purger Purger, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *PurgeSweeper {
	return &PurgeSweeper{
		prefs:    prefsStore,
		purger:   purger,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *PurgeSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep purges every user whose scheduled purge time has passed. A failure for
// one user does not stop the pass; the user stays due and is retried next time.
func (s *PurgeSweeper) Sweep(ctx context.Context) {
	now := s.now()
	due, err := s.prefs.ListPurgeDue(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "purge_sweep_list_failed", "error", err)
		}
		return
	}

	for _, record := range due {
		requestedAt := now
		if record.ScheduledPurgeAt != nil {
			requestedAt = *record.ScheduledPurgeAt
		}
		if err := s.purger.PurgeUser(ctx, record.UserID, "scheduled", requestedAt); err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "purge_sweep_user_failed",
					"error", err,
					"user_id", record.UserID,
				)
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.IncrementDeletions("purged")
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "user_purged", "user_id", record.UserID, "mode", "scheduled")
		}
	}
}

// SessionSweeper drops expired elevated sessions so the sessions table does
// not grow without bound. Expired sessions are already unusable; this is
// hygiene, not enforcement.
type SessionSweeper struct {
	sessions elevation.Store
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionSweeper constructs the sweep over the elevated session store.
func NewSessionSweeper(store elevation.Store, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{sessions: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.sessions.DeleteExpired(ctx, s.now())
			if err != nil {
				if s.logger != nil {
					s.logger.ErrorContext(ctx, "session_sweep_failed", "error", err)
				}
				continue
			}
			if deleted > 0 && s.logger != nil {
				s.logger.InfoContext(ctx, "expired_sessions_deleted", "count", deleted)
			}
		}
	}
}
