package elevation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	"sentra/pkg/platform/sentinel"
)

// Gate verifies that a sensitive mutation carries a valid, unexpired elevated
// session. It is a pure read with no side effects: the gate never creates or
// extends sessions.
type Gate struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// GateOption configures the Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for elevation denials.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithGateClock injects the time source for deterministic testing.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// NewGate creates a Gate over the given session store.
func NewGate(store Store, opts ...GateOption) *Gate {
	g := &Gate{store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns nil when the token names an unexpired session owned by userID.
// It returns CodeElevationRequired for an absent, foreign, or expired session,
// and a storage error for infrastructure failures.
func (g *Gate) Check(ctx context.Context, userID domain.UserID, token domain.SessionToken) error {
	if token.IsNil() {
		return dErrors.New(dErrors.CodeElevationRequired, "elevated session required")
	}

	session, err := g.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			g.logDenial(ctx, userID, "unknown_token")
			return dErrors.New(dErrors.CodeElevationRequired, "elevated session required")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to read elevated session")
	}

	now := g.now()
	if session.UserID != userID {
		g.logDenial(ctx, userID, "wrong_user")
		return dErrors.New(dErrors.CodeElevationRequired, "elevated session required")
	}
	if now.After(session.ExpiresAt) {
		g.logDenial(ctx, userID, "expired")
		return dErrors.New(dErrors.CodeElevationRequired, "elevated session expired")
	}
	return nil
}

func (g *Gate) logDenial(ctx context.Context, userID domain.UserID, cause string) {
	if g.logger == nil {
		return
	}
	g.logger.WarnContext(ctx, "elevation_check_failed",
		"user_id", userID,
		"cause", cause,
	)
}
