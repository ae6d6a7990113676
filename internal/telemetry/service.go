package telemetry

import (
	"context"
	"log/slog"
	"time"

	"sentra/internal/admission"
	"sentra/internal/platform/metrics"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Admitter is the decision dependency of the ingest service. Satisfied by
// admission.Pipeline.
type Admitter interface {
	Admit(ctx context.Context, req admission.Request) (admission.Decision, error)
}

// Service runs one event through admission and persists it on accept. Events
// are write-once; a stored event always carries redacted metadata, never the
// raw capture.
type Service struct {
	admitter Admitter
	store    Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceMetrics sets the metrics sink.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithServiceClock injects the time source for deterministic testing.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the ingest service.
func NewService(admitter Admitter, store Store, opts ...ServiceOption) *Service {
	s := &Service{admitter: admitter, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestRequest is one inbound telemetry sample.
type IngestRequest struct {
	UserID      domain.UserID
	AppID       domain.AppID
	SignalKey   domain.SignalKey
	DurationMs  *int64
	RawMetadata map[string]any
	ObservedAt  time.Time
}

// IngestResult reports the admission outcome and, on accept, the stored event.
type IngestResult struct {
	Decision admission.Decision
	Event    *Event
}

// Ingest admits and, on accept, persists one event. A rejection returns a nil
// Event and no error; the decision carries the reason.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	decision, err := s.admitter.Admit(ctx, admission.Request{
		UserID:      req.UserID,
		AppID:       req.AppID,
		SignalKey:   req.SignalKey,
		RawMetadata: req.RawMetadata,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Accepted {
		return &IngestResult{Decision: decision}, nil
	}

	observedAt := req.ObservedAt
	if observedAt.IsZero() {
		observedAt = s.now()
	}
	event := &Event{
		ID:         domain.NewEventID(),
		UserID:     req.UserID,
		AppID:      req.AppID,
		SignalKey:  req.SignalKey,
		DurationMs: req.DurationMs,
		Metadata:   decision.RedactedMetadata,
		ObservedAt: observedAt,
		StoredAt:   s.now(),
	}
	if err := s.store.Insert(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store telemetry event")
	}

	if s.metrics != nil {
		s.metrics.IncrementEventsStored()
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "event_stored",
			"event_id", event.ID,
			"app_id", event.AppID,
			"signal_key", event.SignalKey,
		)
	}
	return &IngestResult{Decision: decision, Event: event}, nil
}

// ListByUser returns all stored events for a user, oldest first.
func (s *Service) ListByUser(ctx context.Context, userID domain.UserID) ([]Event, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user ID is required")
	}
	events, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list telemetry events")
	}
	return events, nil
}
