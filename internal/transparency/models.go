package transparency

import (
	"time"

	domain "sentra/pkg/domain"
)

// Action names the kind of consent-affecting change an entry records.
type Action string

const (
	ActionAppEnabled      Action = "app_enabled"
	ActionAppDisabled     Action = "app_disabled"
	ActionSignalToggled   Action = "signal_toggled"
	ActionPrefsUpdated    Action = "preferences_updated"
	ActionDeleteRequested Action = "delete_requested"
)

// Entry is one append-only record of a consent-affecting mutation. Old and new
// values are stored as content hashes, never as raw payloads, so the log itself
// holds no personal data beyond the user ID.
type Entry struct {
	ID           domain.EntryID
	UserID       domain.UserID
	Action       Action
	Resource     string
	ResourceID   string
	OldValueHash string
	NewValueHash string
	Timestamp    time.Time
}

// RetainedRecord is the minimal deletion receipt that survives a hard purge.
// It proves a deletion happened without retaining what was deleted.
type RetainedRecord struct {
	ID          domain.EntryID
	UserID      domain.UserID
	Mode        string
	RequestedAt time.Time
	PurgedAt    time.Time
}
