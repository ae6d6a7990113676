package allowlist

import (
	"time"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Scope bounds what an allowlisted application may share.
type Scope string

const (
	ScopeMetadataOnly      Scope = "metadata_only"
	ScopeMetadataPlusUsage Scope = "metadata_plus_usage"
	ScopeNone              Scope = "none"
)

// IsValid reports whether the scope is one of the supported values.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeMetadataOnly, ScopeMetadataPlusUsage, ScopeNone:
		return true
	}
	return false
}

// ParseScope validates and parses a scope string.
// Usage: call at trust boundaries for external input.
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !scope.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation,
			"scope must be one of [metadata_only metadata_plus_usage none]")
	}
	return scope, nil
}

// Entry is a per-user, per-application permission with a data-sharing scope.
// Keyed by (UserID, AppID); upserted by the owning user behind the elevation
// gate; read on every admission decision for that application.
type Entry struct {
	UserID    domain.UserID
	AppID     domain.AppID
	AppName   string
	Enabled   bool
	Scope     Scope
	UpdatedAt time.Time
}

// NewEntry creates an Entry with domain invariant checks.
func NewEntry(userID domain.UserID, appID domain.AppID, appName string, enabled bool, scope Scope, now time.Time) (*Entry, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID required")
	}
	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "app ID required")
	}
	if !scope.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid allowlist scope")
	}
	return &Entry{
		UserID:    userID,
		AppID:     appID,
		AppName:   appName,
		Enabled:   enabled,
		Scope:     scope,
		UpdatedAt: now,
	}, nil
}

// Allows reports whether events from this application may be admitted.
// scope == none is effectively disabled regardless of Enabled.
func (e Entry) Allows() bool {
	return e.Enabled && e.Scope != ScopeNone
}
