package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the policy engine.
type Metrics struct {
	AdmissionsTotal     *prometheus.CounterVec
	AdmissionLatency    prometheus.Histogram
	MutationsTotal      *prometheus.CounterVec
	ElevationDenials    prometheus.Counter
	TransparencyAppends prometheus.Counter
	DeletionsTotal      *prometheus.CounterVec
	EventsStored        prometheus.Counter
	KillSwitchActive    prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AdmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_admissions_total",
			Help: "Total admission decisions, labeled by decision and reason",
		}, []string{"decision", "reason"}),
		AdmissionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentra_admission_latency_seconds",
			Help:    "Latency of admission pipeline evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		MutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_mutations_total",
			Help: "Total privacy configuration mutations, labeled by resource and action",
		}, []string{"resource", "action"}),
		ElevationDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_elevation_denials_total",
			Help: "Total sensitive mutations rejected for missing or expired elevation",
		}),
		TransparencyAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_transparency_appends_total",
			Help: "Total transparency log entries appended",
		}),
		DeletionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_deletions_total",
			Help: "Total deletion requests, labeled by mode (immediate or scheduled)",
		}, []string{"mode"}),
		EventsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_events_stored_total",
			Help: "Total telemetry events persisted after admission",
		}),
		KillSwitchActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentra_kill_switch_active",
			Help: "Whether the global ingestion kill switch is currently active (1) or not (0)",
		}),
	}
}

// IncrementAdmission records one admission decision.
func (m *Metrics) IncrementAdmission(decision, reason string) {
	m.AdmissionsTotal.WithLabelValues(decision, reason).Inc()
}

// ObserveAdmissionLatency records the latency of one admit call.
func (m *Metrics) ObserveAdmissionLatency(d time.Duration) {
	m.AdmissionLatency.Observe(d.Seconds())
}

// IncrementMutation records one configuration mutation.
func (m *Metrics) IncrementMutation(resource, action string) {
	m.MutationsTotal.WithLabelValues(resource, action).Inc()
}

func (m *Metrics) IncrementElevationDenials() {
	m.ElevationDenials.Inc()
}

func (m *Metrics) IncrementTransparencyAppends() {
	m.TransparencyAppends.Inc()
}

// IncrementDeletions records one deletion request by mode.
func (m *Metrics) IncrementDeletions(mode string) {
	m.DeletionsTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncrementEventsStored() {
	m.EventsStored.Inc()
}

// SetKillSwitch reflects the current kill-switch state.
func (m *Metrics) SetKillSwitch(active bool) {
	if active {
		m.KillSwitchActive.Set(1)
		return
	}
	m.KillSwitchActive.Set(0)
}
