package telemetry

import (
	"time"

	domain "sentra/pkg/domain"
)

// Event is one observed telemetry sample after admission. Metadata has already
// passed through redaction by the time an Event is constructed; raw captured
// payloads never reach this type.
type Event struct {
	ID         domain.EventID
	UserID     domain.UserID
	AppID      domain.AppID
	SignalKey  domain.SignalKey
	DurationMs *int64
	Metadata   map[string]any
	ObservedAt time.Time
	StoredAt   time.Time
}
