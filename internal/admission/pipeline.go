// Package admission decides, for every inbound telemetry event, whether it may
// be persisted and under what redaction. The pipeline runs ordered gates that
// short-circuit on first failure; a rejection is an expected outcome, never an
// error.
package admission

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sentra/internal/allowlist"
	"sentra/internal/killswitch"
	"sentra/internal/platform/metrics"
	"sentra/internal/prefs"
	"sentra/internal/redaction"
	"sentra/internal/signals"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	"sentra/pkg/platform/sentinel"
)

// Reason names why an event was rejected. Rejections are routine outcomes;
// sampled_out in particular is high-frequency and non-retryable.
type Reason string

const (
	ReasonKillSwitchActive   Reason = "kill_switch_active"
	ReasonMonitoringDisabled Reason = "monitoring_disabled"
	ReasonAppNotAllowed      Reason = "app_not_allowed"
	ReasonSignalDisabled     Reason = "signal_disabled"
	ReasonSampledOut         Reason = "sampled_out"
)

// Request is one telemetry event awaiting admission. RawMetadata is the
// unredacted capture; it must never be persisted or logged.
type Request struct {
	UserID      domain.UserID
	AppID       domain.AppID
	SignalKey   domain.SignalKey
	RawMetadata map[string]any
}

// Decision is the outcome of one admit call. RedactedMetadata is set only when
// Accepted is true and is the sole form of the metadata that may be stored.
type Decision struct {
	Accepted         bool
	Reason           Reason
	RedactedMetadata map[string]any
}

// Sampler draws a uniform random value in [0,1). Injectable so tests can pin
// the draw.
type Sampler func() float64

// Pipeline composes the kill switch, consent, allowlist, signal, sampling and
// redaction gates into a single accept/reject decision. It holds no mutable
// state of its own; decisions for different (user, app, signal) tuples are safe
// to run concurrently.
type Pipeline struct {
	killSwitch killswitch.Source
	prefs      prefs.Store
	allowlist  allowlist.Store
	signals    signals.Store
	sampler    Sampler
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithSampler injects the sampling draw. Default is math/rand.Float64.
func WithSampler(s Sampler) Option {
	return func(p *Pipeline) {
		p.sampler = s
	}
}

// WithTracer injects the trace tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline wires the pipeline over its collaborator stores. The kill switch
// source is required; there is no implicit global flag.
func NewPipeline(
	killSwitch killswitch.Source,
	prefsStore prefs.Store,
	allowlistStore allowlist.Store,
	signalStore signals.Store,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		killSwitch: killSwitch,
		prefs:      prefsStore,
		allowlist:  allowlistStore,
		signals:    signalStore,
		sampler:    rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("sentra/admission")
	}
	return p
}

// Admit evaluates the ordered gates for one event. A rejected event returns a
// Decision with Accepted false and a reason code, not an error; errors are
// reserved for collaborator failures and propagate unchanged, with no retries.
func (p *Pipeline) Admit(ctx context.Context, req Request) (Decision, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "admission.admit", trace.WithAttributes(
		attribute.String("app_id", req.AppID.String()),
		attribute.String("signal_key", req.SignalKey.String()),
	))

	decision, err := p.evaluate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.End()
		return Decision{}, err
	}

	span.SetAttributes(attribute.Bool("accepted", decision.Accepted))
	if !decision.Accepted {
		span.SetAttributes(attribute.String("reason", string(decision.Reason)))
	}
	span.End()

	p.observe(ctx, req, decision, time.Since(start))
	return decision, nil
}

func (p *Pipeline) evaluate(ctx context.Context, req Request) (Decision, error) {
	// Gate 1: kill switch, before any per-user lookup.
	if p.killSwitch.Active() {
		return rejected(ReasonKillSwitchActive), nil
	}

	if req.UserID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "user ID is required")
	}
	if req.AppID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "app ID is required")
	}
	if req.SignalKey.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "signal key is required")
	}

	// Gate 2: consent. A user with no preferences row has never consented;
	// ingestion must not create one.
	record, err := p.prefs.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return rejected(ReasonMonitoringDisabled), nil
		}
		return Decision{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read preferences")
	}
	if !record.AllowsMonitoring() {
		return rejected(ReasonMonitoringDisabled), nil
	}

	// Gate 3: application scope. Apps are default-deny.
	entry, err := p.allowlist.Get(ctx, req.UserID, req.AppID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return rejected(ReasonAppNotAllowed), nil
		}
		return Decision{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read allowlist entry")
	}
	if !entry.Allows() {
		return rejected(ReasonAppNotAllowed), nil
	}

	// Gates 4 and 5: signal toggle, then sampling. Signals are default-allow
	// at full sampling when no toggle row exists.
	samplingRate := 1.0
	toggle, err := p.signals.Get(ctx, req.UserID, req.SignalKey)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read signal toggle")
	}
	if toggle != nil {
		if !toggle.Enabled {
			return rejected(ReasonSignalDisabled), nil
		}
		samplingRate = toggle.SamplingRate
	}
	// Draw is in [0,1), so rate 1.0 always admits and rate 0.0 never does.
	if p.sampler() >= samplingRate {
		return rejected(ReasonSampledOut), nil
	}

	// Gate 6: redaction. Total, cannot fail.
	return Decision{
		Accepted:         true,
		RedactedMetadata: redaction.Redact(req.RawMetadata),
	}, nil
}

func rejected(reason Reason) Decision {
	return Decision{Accepted: false, Reason: reason}
}

func (p *Pipeline) observe(ctx context.Context, req Request, decision Decision, elapsed time.Duration) {
	if p.metrics != nil {
		if decision.Accepted {
			p.metrics.IncrementAdmission("accepted", "")
		} else {
			p.metrics.IncrementAdmission("rejected", string(decision.Reason))
		}
		p.metrics.ObserveAdmissionLatency(elapsed)
	}
	if p.logger != nil && !decision.Accepted {
		// Rejections are routine; never log them at error severity.
		p.logger.DebugContext(ctx, "event_rejected",
			"reason", decision.Reason,
			"app_id", req.AppID,
			"signal_key", req.SignalKey,
		)
	}
}
