// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "sentra/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a UserID where an EventID is expected.
type (
	UserID  uuid.UUID
	EventID uuid.UUID
	EntryID uuid.UUID
)

// AppID identifies an application registered in a user's allowlist. It is an
// opaque caller-chosen string (bundle id, package name), not a UUID.
type AppID string

// SignalKey identifies a telemetry signal type (e.g. "app_focus", "keypress_rate").
type SignalKey string

// SessionToken is the opaque bearer token of an elevated session. The engine
// only ever reads sessions by token; it never mints tokens outside the issuer.
type SessionToken string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func ParseEntryID(s string) (EntryID, error) {
	id, err := parseUUID(s, "entry ID")
	return EntryID(id), err
}

func ParseAppID(s string) (AppID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "app ID cannot be empty")
	}
	return AppID(s), nil
}

func ParseSignalKey(s string) (SignalKey, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signal key cannot be empty")
	}
	return SignalKey(s), nil
}

// NewEventID and NewEntryID mint identifiers for write-once rows.

func NewEventID() EventID { return EventID(uuid.New()) }
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// String methods - for logging and debugging.

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }
func (id AppID) String() string       { return string(id) }
func (k SignalKey) String() string    { return string(k) }
func (t SessionToken) String() string { return string(t) }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AppID) IsNil() bool       { return id == "" }
func (k SignalKey) IsNil() bool    { return k == "" }
func (t SessionToken) IsNil() bool { return t == "" }

// parseUUID is the shared validation logic.
// Note: Nil UUIDs are allowed here. Use IsNil() at the service layer for
// business validation, which allows store lookups to return proper
// "not found" errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
