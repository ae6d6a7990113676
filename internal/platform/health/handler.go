// Package health provides liveness and readiness probes.
package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentra/internal/transport/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc checks the health of a dependency; nil means healthy.
type CheckFunc func() error

// Handler serves the health endpoints.
type Handler struct {
	startTime time.Time
	checks    map[string]CheckFunc
}

// New creates a health handler. Checks are registered before the server
// starts; the map is read-only afterwards.
func New() *Handler {
	return &Handler{startTime: time.Now(), checks: make(map[string]CheckFunc)}
}

// RegisterCheck adds a named readiness check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.HandleLiveness)
	r.Get("/readyz", h.HandleReadiness)
}

// HandleLiveness reports that the process is up.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        Version,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// HandleReadiness runs every registered dependency check.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	httputil.WriteJSON(w, status, map[string]any{
		"status": overall,
		"checks": results,
	})
}
