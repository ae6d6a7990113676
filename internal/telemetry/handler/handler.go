// Package handler exposes the telemetry ingest surface. Handlers delegate to
// the ingest service; admission logic never lives at the transport layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentra/internal/platform/middleware"
	"sentra/internal/telemetry"
	"sentra/internal/transport/httputil"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	pkgstring "sentra/pkg/string"
)

// Service defines the ingest operations the handler needs.
type Service interface {
	Ingest(ctx context.Context, req telemetry.IngestRequest) (*telemetry.IngestResult, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]telemetry.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/events", h.HandleIngest)
	r.Get("/v1/events", h.HandleList)
}

// IngestRequest is the wire shape of one inbound event.
type IngestRequest struct {
	AppID      string         `json:"app_id" validate:"required,notblank"`
	SignalKey  string         `json:"signal_key" validate:"required,notblank"`
	DurationMs *int64         `json:"duration_ms,omitempty" validate:"omitempty,gte=0"`
	Metadata   map[string]any `json:"metadata"`
	ObservedAt *time.Time     `json:"observed_at,omitempty"`
}

func (r *IngestRequest) Normalize() {
	pkgstring.TrimStrings(&r.AppID, &r.SignalKey)
}

// IngestResponse reports the admission outcome. Rejections are 200s with a
// reason code, never HTTP errors.
type IngestResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	EventID  string `json:"event_id,omitempty"`
}

// HandleIngest admits and stores one telemetry event for the calling user.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndValidate[IngestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ingest := telemetry.IngestRequest{
		UserID:      userID,
		AppID:       domain.AppID(req.AppID),
		SignalKey:   domain.SignalKey(req.SignalKey),
		DurationMs:  req.DurationMs,
		RawMetadata: req.Metadata,
	}
	if req.ObservedAt != nil {
		ingest.ObservedAt = *req.ObservedAt
	}

	result, err := h.service.Ingest(ctx, ingest)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	if !result.Decision.Accepted {
		httputil.WriteJSON(w, http.StatusOK, &IngestResponse{
			Accepted: false,
			Reason:   string(result.Decision.Reason),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, &IngestResponse{
		Accepted: true,
		EventID:  result.Event.ID.String(),
	})
}

// EventResponse is the wire shape of a stored event.
type EventResponse struct {
	ID         string         `json:"id"`
	AppID      string         `json:"app_id"`
	SignalKey  string         `json:"signal_key"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	ObservedAt time.Time      `json:"observed_at"`
	StoredAt   time.Time      `json:"stored_at"`
}

// HandleList returns the calling user's stored events, oldest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	events, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list events failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": responses})
}

func toEventResponse(event telemetry.Event) EventResponse {
	return EventResponse{
		ID:         event.ID.String(),
		AppID:      event.AppID.String(),
		SignalKey:  event.SignalKey.String(),
		DurationMs: event.DurationMs,
		Metadata:   event.Metadata,
		ObservedAt: event.ObservedAt,
		StoredAt:   event.StoredAt,
	}
}
