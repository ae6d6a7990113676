package signals

import (
	"time"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

// Toggle is a per-user, per-signal enable flag with a sampling rate.
// Absence of a toggle means the signal is enabled at full sampling: signals
// are opt-out per signal, unlike applications which are default-deny.
type Toggle struct {
	UserID       domain.UserID
	SignalKey    domain.SignalKey
	Enabled      bool
	SamplingRate float64
	UpdatedAt    time.Time
}

// NewToggle creates a Toggle with domain invariant checks. A sampling rate
// outside [0,1] is rejected here and never persisted.
func NewToggle(userID domain.UserID, key domain.SignalKey, enabled bool, samplingRate float64, now time.Time) (*Toggle, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID required")
	}
	if key.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "signal key required")
	}
	if samplingRate < 0 || samplingRate > 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "sampling_rate must be between 0 and 1")
	}
	return &Toggle{
		UserID:       userID,
		SignalKey:    key,
		Enabled:      enabled,
		SamplingRate: samplingRate,
		UpdatedAt:    now,
	}, nil
}
