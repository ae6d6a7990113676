package policy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sentra/internal/allowlist"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/telemetry"
	"sentra/internal/transparency"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// governed row order for the purge. The retained receipt is written last, in
// the same logical operation, so the deletion can never silently erase
// evidence that it happened.

// PostgresPurger removes all governed rows for a user inside one transaction.
// Partial deletion is a correctness bug, not an acceptable outcome; any
// failure rolls back the whole purge and the caller retries it entirely.
type PostgresPurger struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresPurger constructs a transactional purger.
func NewPostgresPurger(db *sql.DB) *PostgresPurger {
	return &PostgresPurger{db: db, now: time.Now}
}

func (p *PostgresPurger) PurgeUser(ctx context.Context, userID domain.UserID, mode string, requestedAt time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to begin purge transaction")
	}
	defer tx.Rollback()

	if err := purgeRows(ctx, userID, mode, requestedAt, p.now(),
		telemetry.NewPostgresTx(tx),
		signals.NewPostgresTx(tx),
		allowlist.NewPostgresTx(tx),
		transparency.NewPostgresTx(tx),
		prefs.NewPostgresTx(tx),
		transparency.NewPostgresRetainedTx(tx),
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to commit purge transaction")
	}
	return nil
}

// MemoryPurger runs the same purge over in-memory stores for tests/dev. The
// deletes are sequential; without a transaction the receipt is still written
// last so a failure leaves evidence intact or rows intact, never neither.
type MemoryPurger struct {
	events       telemetry.Store
	signals      signals.Store
	allowlist    allowlist.Store
	transparency transparency.Store
	prefs        prefs.Store
	retained     transparency.RetainedStore
	now          func() time.Time
}

// NewMemoryPurger constructs a purger over in-memory stores.
func NewMemoryPurger(
	eventStore telemetry.Store,
	signalStore signals.Store,
	allowlistStore allowlist.Store,
	transparencyStore transparency.Store,
	prefsStore prefs.Store,
	retainedStore transparency.RetainedStore,
) *MemoryPurger {
	return &MemoryPurger{
		events:       eventStore,
		signals:      signalStore,
		allowlist:    allowlistStore,
		transparency: transparencyStore,
		prefs:        prefsStore,
		retained:     retainedStore,
		now:          time.Now,
	}
}

// WithPurgerClock injects the time source for deterministic testing.
func (p *MemoryPurger) WithPurgerClock(now func() time.Time) *MemoryPurger {
	p.now = now
	return p
}

func (p *MemoryPurger) PurgeUser(ctx context.Context, userID domain.UserID, mode string, requestedAt time.Time) error {
	return purgeRows(ctx, userID, mode, requestedAt, p.now(),
		p.events, p.signals, p.allowlist, p.transparency, p.prefs, p.retained)
}

type userDeleter interface {
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}

func purgeRows(
	ctx context.Context,
	userID domain.UserID,
	mode string,
	requestedAt, purgedAt time.Time,
	eventStore telemetry.Store,
	signalStore signals.Store,
	allowlistStore allowlist.Store,
	transparencyStore transparency.Store,
	prefsStore prefs.Store,
	retainedStore transparency.RetainedStore,
) error {
	deleters := []struct {
		name  string
		store userDeleter
	}{
		{"telemetry events", eventStore},
		{"signal toggles", signalStore},
		{"allowlist entries", allowlistStore},
		{"transparency entries", transparencyStore},
		{"preferences", prefsStore},
	}
	for _, d := range deleters {
		if err := d.store.DeleteByUser(ctx, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, fmt.Sprintf("failed to purge %s", d.name))
		}
	}

	receipt := &transparency.RetainedRecord{
		ID:          domain.NewEntryID(),
		UserID:      userID,
		Mode:        mode,
		RequestedAt: requestedAt,
		PurgedAt:    purgedAt,
	}
	if err := retainedStore.Append(ctx, receipt); err != nil {
		return dErrors.Wrap(err, dErrors.CodeAuditUnavailable, "failed to write retained deletion receipt")
	}
	return nil
}
