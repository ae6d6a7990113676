// Package handler exposes the elevated-session issuance endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentra/internal/elevation"
	"sentra/internal/platform/middleware"
	"sentra/internal/transport/httputil"
	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	pkgstring "sentra/pkg/string"
)

// Issuer mints elevated sessions after second-factor verification.
type Issuer interface {
	Elevate(ctx context.Context, userID domain.UserID, code string) (*elevation.Session, error)
}

type Handler struct {
	issuer Issuer
	logger *slog.Logger
}

func New(issuer Issuer, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/elevate", h.HandleElevate)
}

// ElevateRequest carries the second-factor code.
type ElevateRequest struct {
	Code string `json:"code" validate:"required,notblank"`
}

func (r *ElevateRequest) Normalize() {
	pkgstring.TrimStrings(&r.Code)
}

// ElevateResponse returns the session token the caller must present on
// sensitive mutations via the X-Elevation-Token header.
type ElevateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) HandleElevate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndValidate[ElevateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.issuer.Elevate(ctx, userID, req.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "elevation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &ElevateResponse{
		Token:     session.Token.String(),
		ExpiresAt: session.ExpiresAt,
	})
}
