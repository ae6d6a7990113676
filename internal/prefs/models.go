package prefs

import (
	"time"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Status tracks the deletion lifecycle state attached to a user's preferences.
// Purged users have no row at all, so only two stored states exist.
type Status string

const (
	StatusActive      Status = "active"
	StatusSoftDeleted Status = "soft_deleted"
)

// DefaultRetentionDays applies when a user first configures preferences
// without an explicit retention period.
const DefaultRetentionDays = 90

// Record holds a user's monitoring/consent/retention preferences. Created on
// first privacy interaction; mutated only through explicit preference-update
// operations; never silently created by telemetry ingestion.
type Record struct {
	UserID            domain.UserID
	MonitoringEnabled bool
	ConsentGiven      bool
	DataRetentionDays int
	MFARequired       bool
	Status            Status
	ScheduledPurgeAt  *time.Time
	UpdatedAt         time.Time
}

// NewRecord creates a Record with domain invariant checks.
func NewRecord(userID domain.UserID, monitoring, consent bool, retentionDays int, mfaRequired bool, now time.Time) (*Record, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID required")
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Record{
		UserID:            userID,
		MonitoringEnabled: monitoring,
		ConsentGiven:      consent,
		DataRetentionDays: retentionDays,
		MFARequired:       mfaRequired,
		Status:            StatusActive,
		UpdatedAt:         now,
	}, nil
}

// AllowsMonitoring reports whether telemetry may be admitted for this user.
// Consent is a hard prerequisite: monitoring enabled without consent never
// admits.
func (r Record) AllowsMonitoring() bool {
	return r.MonitoringEnabled && r.ConsentGiven
}

// MarkSoftDeleted revokes monitoring and consent immediately and schedules the
// destructive purge for later. Further collection stops at once via the
// ordinary consent gate; no special-casing is needed downstream.
func (r *Record) MarkSoftDeleted(purgeAt time.Time, now time.Time) {
	r.MonitoringEnabled = false
	r.ConsentGiven = false
	r.Status = StatusSoftDeleted
	r.ScheduledPurgeAt = &purgeAt
	r.UpdatedAt = now
}
