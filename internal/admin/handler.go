// Package admin exposes operational endpoints. These are guarded by the shared
// admin key middleware, not user authentication.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentra/internal/killswitch"
	"sentra/internal/platform/metrics"
	"sentra/internal/transport/httputil"
)

type Handler struct {
	killSwitch *killswitch.Switch
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(killSwitch *killswitch.Switch, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{killSwitch: killSwitch, metrics: m, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/killswitch", h.HandleGetKillSwitch)
	r.Put("/admin/killswitch", h.HandleSetKillSwitch)
}

type killSwitchState struct {
	Active bool `json:"active"`
}

func (h *Handler) HandleGetKillSwitch(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &killSwitchState{Active: h.killSwitch.Active()})
}

// HandleSetKillSwitch flips the global ingestion halt. The flag takes effect
// on the next admission call; in-flight calls may still complete.
func (h *Handler) HandleSetKillSwitch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[killSwitchState](w, r, h.logger, ctx, "")
	if !ok {
		return
	}

	h.killSwitch.Set(req.Active)
	if h.metrics != nil {
		h.metrics.SetKillSwitch(req.Active)
	}
	h.logger.WarnContext(ctx, "kill switch toggled", "active", req.Active)
	httputil.WriteJSON(w, http.StatusOK, &killSwitchState{Active: h.killSwitch.Active()})
}
