package elevation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// SecondFactorVerifier is the external verification collaborator. The specific
// one-time-password algorithm is outside this engine; only the boolean result
// matters here.
type SecondFactorVerifier interface {
	Verify(ctx context.Context, userID domain.UserID, code string) (bool, error)
}

// SecondFactorFunc adapts a plain function to SecondFactorVerifier.
type SecondFactorFunc func(ctx context.Context, userID domain.UserID, code string) (bool, error)

func (f SecondFactorFunc) Verify(ctx context.Context, userID domain.UserID, code string) (bool, error) {
	return f(ctx, userID, code)
}

// Issuer mints bounded-lifetime elevated sessions after a successful
// second-factor verification.
type Issuer struct {
	store    Store
	verifier SecondFactorVerifier
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// IssuerOption configures the Issuer.
type IssuerOption func(*Issuer)

// WithTTL overrides the default session lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithIssuerLogger sets the logger.
func WithIssuerLogger(logger *slog.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// WithIssuerClock injects the time source for deterministic testing.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an Issuer over the given store and verifier.
func NewIssuer(store Store, verifier SecondFactorVerifier, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		store:    store,
		verifier: verifier,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Elevate verifies the second factor and, on success, mints a new session.
// A failed verification returns CodeUnauthorized; the issuer never retries.
func (i *Issuer) Elevate(ctx context.Context, userID domain.UserID, code string) (*Session, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}

	ok, err := i.verifier.Verify(ctx, userID, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "second factor verification failed")
	}
	if !ok {
		if i.logger != nil {
			i.logger.WarnContext(ctx, "second_factor_rejected", "user_id", userID)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "second factor verification rejected")
	}

	now := i.now()
	session := &Session{
		Token:     domain.SessionToken(uuid.NewString()),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to persist elevated session")
	}

	if i.logger != nil {
		i.logger.InfoContext(ctx, "elevated_session_issued",
			"user_id", userID,
			"expires_at", session.ExpiresAt,
		)
	}
	return session, nil
}
