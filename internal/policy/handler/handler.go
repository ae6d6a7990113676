// Package handler exposes the privacy configuration surface: preferences,
// app allowlist, signal toggles, the deletion lifecycle, the transparency log
// and the per-user export.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentra/internal/allowlist"
	"sentra/internal/platform/middleware"
	"sentra/internal/policy"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/transparency"
	"sentra/internal/transport/httputil"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Service defines the mutation and read operations the handler needs.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	GetPreferences(ctx context.Context, userID domain.UserID) (*prefs.Record, error)
	UpdatePreferences(ctx context.Context, userID domain.UserID, token domain.SessionToken, monitoring, consent bool, retentionDays int, mfaRequired bool) (*prefs.Record, error)
	ListApps(ctx context.Context, userID domain.UserID) ([]*allowlist.Entry, error)
	UpsertAppAllowlist(ctx context.Context, userID domain.UserID, token domain.SessionToken, appID domain.AppID, appName string, enabled bool, scope allowlist.Scope) (*allowlist.Entry, error)
	ListSignals(ctx context.Context, userID domain.UserID) ([]*signals.Toggle, error)
	UpsertSignalToggle(ctx context.Context, userID domain.UserID, token domain.SessionToken, key domain.SignalKey, enabled bool, samplingRate float64) (*signals.Toggle, error)
	RequestDeletion(ctx context.Context, userID domain.UserID, token domain.SessionToken, immediate bool) (*policy.DeletionResult, error)
	Export(ctx context.Context, userID domain.UserID) (*policy.ExportBundle, error)
}

// TransparencyReader lists a user's transparency entries.
type TransparencyReader interface {
	ListByUser(ctx context.Context, userID domain.UserID) ([]transparency.Entry, error)
}

type Handler struct {
	service      Service
	transparency TransparencyReader
	logger       *slog.Logger
}

func New(service Service, transparencyReader TransparencyReader, logger *slog.Logger) *Handler {
	return &Handler{service: service, transparency: transparencyReader, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/preferences", h.HandleGetPreferences)
	r.Put("/v1/preferences", h.HandleUpdatePreferences)
	r.Get("/v1/apps", h.HandleListApps)
	r.Put("/v1/apps/{appID}", h.HandleUpsertApp)
	r.Get("/v1/signals", h.HandleListSignals)
	r.Put("/v1/signals/{signalKey}", h.HandleUpsertSignal)
	r.Post("/v1/deletion", h.HandleRequestDeletion)
	r.Get("/v1/transparency", h.HandleListTransparency)
	r.Get("/v1/export", h.HandleExport)
}

// caller resolves the authenticated user and elevation token from context.
func (h *Handler) caller(w http.ResponseWriter, ctx context.Context) (domain.UserID, domain.SessionToken, bool) {
	userID := middleware.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.UserID{}, "", false
	}
	return userID, middleware.GetElevationToken(ctx), true
}

func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	record, err := h.service.GetPreferences(ctx, userID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "get preferences failed", "error", err,
				"request_id", middleware.GetRequestID(ctx))
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPreferencesResponse(record))
}

func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID, token, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndValidate[UpdatePreferencesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.UpdatePreferences(ctx, userID, token,
		*req.MonitoringEnabled, *req.ConsentGiven, req.DataRetentionDays, req.MFARequired)
	if err != nil {
		h.logger.WarnContext(ctx, "update preferences failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPreferencesResponse(record))
}

func (h *Handler) HandleListApps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	entries, err := h.service.ListApps(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list apps failed", "error", err,
			"request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	responses := make([]AppResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toAppResponse(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"apps": responses})
}

func (h *Handler) HandleUpsertApp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID, token, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	appID, err := domain.ParseAppID(chi.URLParam(r, "appID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndValidate[UpsertAppRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.UpsertAppAllowlist(ctx, userID, token, appID,
		req.AppName, *req.Enabled, allowlist.Scope(req.Scope))
	if err != nil {
		h.logger.WarnContext(ctx, "upsert app failed", "error", err,
			"request_id", requestID, "app_id", appID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAppResponse(entry))
}

func (h *Handler) HandleListSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	toggles, err := h.service.ListSignals(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list signals failed", "error", err,
			"request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	responses := make([]SignalResponse, 0, len(toggles))
	for _, toggle := range toggles {
		responses = append(responses, toSignalResponse(toggle))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"signals": responses})
}

func (h *Handler) HandleUpsertSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID, token, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	key, err := domain.ParseSignalKey(chi.URLParam(r, "signalKey"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndValidate[UpsertSignalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	toggle, err := h.service.UpsertSignalToggle(ctx, userID, token, key, *req.Enabled, *req.SamplingRate)
	if err != nil {
		h.logger.WarnContext(ctx, "upsert signal failed", "error", err,
			"request_id", requestID, "signal_key", key)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSignalResponse(toggle))
}

func (h *Handler) HandleRequestDeletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID, token, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndValidate[RequestDeletionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RequestDeletion(ctx, userID, token, req.Immediate)
	if err != nil {
		h.logger.WarnContext(ctx, "deletion request failed", "error", err,
			"request_id", requestID, "immediate", req.Immediate)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DeletionResponse{
		Immediate:        result.Immediate,
		ScheduledPurgeAt: result.ScheduledPurgeAt,
	})
}

func (h *Handler) HandleListTransparency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	entries, err := h.transparency.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list transparency failed", "error", err,
			"request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	responses := make([]TransparencyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toTransparencyResponse(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": responses})
}

// HandleExport dumps all governed state for the calling user. Export requires
// identity match but not elevation.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _, ok := h.caller(w, ctx)
	if !ok {
		return
	}

	bundle, err := h.service.Export(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed", "error", err,
			"request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExportResponse(bundle))
}
