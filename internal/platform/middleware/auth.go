package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domain "sentra/pkg/domain"
)

// TokenVerifier resolves the calling user from a bearer credential.
// Implementations live in internal/identity; the middleware stays transport-only.
type TokenVerifier interface {
	Verify(tokenString string) (domain.UserID, error)
}

// ElevationHeader carries the opaque elevated-session token minted after a
// successful second-factor verification. Its absence is not an error at this
// layer; mutation services decide whether elevation is required.
const ElevationHeader = "X-Elevation-Token"

type contextKeyUserID struct{}
type contextKeyElevationToken struct{}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) domain.UserID {
	userID, ok := ctx.Value(contextKeyUserID{}).(domain.UserID)
	if !ok {
		return domain.UserID{}
	}
	return userID
}

// GetElevationToken retrieves the elevated-session token from the context, if any.
func GetElevationToken(ctx context.Context) domain.SessionToken {
	token, ok := ctx.Value(contextKeyElevationToken{}).(domain.SessionToken)
	if !ok {
		return ""
	}
	return token
}

// RequireAuth resolves the caller's identity from the Authorization header and
// stores it in the request context along with any elevated-session token.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyUserID{}, userID)
			if elevation := r.Header.Get(ElevationHeader); elevation != "" {
				ctx = context.WithValue(ctx, contextKeyElevationToken{}, domain.SessionToken(elevation))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminKey protects operational endpoints (kill switch toggle) with a
// static shared key. An empty configured key disables the endpoints entirely.
func RequireAdminKey(adminKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" || r.Header.Get("X-Admin-Key") != adminKey {
				logger.WarnContext(r.Context(), "admin endpoint rejected",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Admin key required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
