package elevation

import (
	"time"

	domain "sentra/pkg/domain"
)

// DefaultTTL bounds the lifetime of an elevated session. Sessions are never
// extended; once expired a fresh second-factor verification is required.
const DefaultTTL = 1 * time.Hour

// Session is a time-bounded elevated authentication state keyed by its token.
// Created only by a successful second-factor verification; the policy engine
// only reads it.
type Session struct {
	Token     domain.SessionToken
	UserID    domain.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Valid reports whether the session belongs to the user and has not expired.
func (s Session) Valid(userID domain.UserID, now time.Time) bool {
	if s.UserID != userID {
		return false
	}
	return !now.After(s.ExpiresAt)
}
