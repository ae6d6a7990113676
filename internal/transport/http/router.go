// Package httptransport assembles the HTTP surface: middleware stack, public
// probes, authenticated privacy endpoints, and admin-key-guarded operations.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentra/internal/platform/health"
	"sentra/internal/platform/middleware"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(chi.Router)
}

// Config wires the router.
type Config struct {
	Logger   *slog.Logger
	Verifier middleware.TokenVerifier
	AdminKey string
	Health   *health.Handler
	Admin    Registrar
	// Authed handlers are mounted behind bearer authentication.
	Authed []Registrar
}

// NewRouter builds the full chi router with the standard middleware stack.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	// Public probes and metrics.
	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated privacy surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Verifier, cfg.Logger))
		for _, registrar := range cfg.Authed {
			registrar.Register(r)
		}
	})

	// Operational endpoints behind the shared admin key.
	if cfg.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminKey(cfg.AdminKey, cfg.Logger))
			cfg.Admin.Register(r)
		})
	}

	return r
}
