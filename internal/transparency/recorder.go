package transparency

import (
	"context"
	"log/slog"
	"time"

	"sentra/internal/platform/metrics"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Recorder writes transparency entries synchronously. Unlike a fire-and-forget
// audit sink, a failed append here must fail the mutation that caused it: a
// consent change without its log entry is worse than a rejected request.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRecorderMetrics sets the metrics sink.
func WithRecorderMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithRecorderClock injects the time source for deterministic testing.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record hashes the before/after values and appends one entry. It returns
// CodeAuditUnavailable when the append fails; callers must treat that as a
// failure of the whole mutation.
func (r *Recorder) Record(ctx context.Context, userID domain.UserID, action Action, resource, resourceID string, oldValue, newValue any) (*Entry, error) {
	entry := &Entry{
		ID:         domain.NewEntryID(),
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Timestamp:  r.now(),
	}

	var err error
	if oldValue != nil {
		if entry.OldValueHash, err = ValueHash(oldValue); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash previous value")
		}
	}
	if newValue != nil {
		if entry.NewValueHash, err = ValueHash(newValue); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash new value")
		}
	}

	if err := r.store.Append(ctx, entry); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "transparency_append_failed",
				"error", err,
				"user_id", userID,
				"action", action,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeAuditUnavailable, "transparency log unavailable")
	}

	if r.metrics != nil {
		r.metrics.IncrementTransparencyAppends()
	}
	return entry, nil
}

// ListByUser returns all entries for a user, oldest first.
func (r *Recorder) ListByUser(ctx context.Context, userID domain.UserID) ([]Entry, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user ID is required")
	}
	entries, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list transparency entries")
	}
	return entries, nil
}
