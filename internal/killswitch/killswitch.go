// Package killswitch holds the process-wide ingestion kill switch. The switch
// is the only long-lived mutable state the engine owns; it is read with
// acquire semantics on every admission call and may be toggled concurrently.
// A toggle taking effect on the next admission call is acceptable.
package killswitch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Source reports whether ingestion is currently halted. The admission pipeline
// takes a Source by injection; nothing in the engine reaches for a singleton.
type Source interface {
	Active() bool
}

// Switch is an atomically togglable Source. It backs both the admin toggle
// endpoint and tests.
type Switch struct {
	active atomic.Bool
}

// NewSwitch returns a Switch in the given initial state.
func NewSwitch(active bool) *Switch {
	s := &Switch{}
	s.active.Store(active)
	return s
}

// Active reports the current state.
func (s *Switch) Active() bool {
	return s.active.Load()
}

// Set flips the switch. Safe to call concurrently with admission checks.
func (s *Switch) Set(active bool) {
	s.active.Store(active)
}

// Refresher polls an external probe on an interval and mirrors its result into
// a Switch. This keeps per-admission reads at a single atomic load while the
// authoritative flag lives in external configuration, never cached indefinitely.
type Refresher struct {
	sw       *Switch
	probe    func() bool
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher builds a Refresher around the given probe.
func NewRefresher(sw *Switch, probe func() bool, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{sw: sw, probe: probe, interval: interval, logger: logger}
}

// Run polls until the context is cancelled. It applies the probe result
// immediately on start so a restart cannot race a set flag.
func (r *Refresher) Run(ctx context.Context) {
	r.apply(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.apply(ctx)
		}
	}
}

func (r *Refresher) apply(ctx context.Context) {
	next := r.probe()
	if next != r.sw.Active() && r.logger != nil {
		r.logger.InfoContext(ctx, "kill switch state changed", "active", next)
	}
	r.sw.Set(next)
}
