package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sentra/pkg/domain-errors"
)

type toggleRequest struct {
	SignalKey    string  `validate:"required,notblank"`
	SamplingRate float64 `validate:"gte=0,lte=1"`
}

func TestValidate(t *testing.T) {
	t.Run("passes well-formed struct", func(t *testing.T) {
		require.NoError(t, Validate(&toggleRequest{SignalKey: "app_focus", SamplingRate: 0.5}))
	})

	t.Run("rejects out-of-range sampling rate naming the field", func(t *testing.T) {
		err := Validate(&toggleRequest{SignalKey: "app_focus", SamplingRate: 1.5})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "sampling_rate")
	})

	t.Run("enumerates every failing field at once", func(t *testing.T) {
		err := Validate(&toggleRequest{SignalKey: "", SamplingRate: -0.2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signal_key")
		assert.Contains(t, err.Error(), "sampling_rate")
	})

	t.Run("blank-only strings rejected", func(t *testing.T) {
		err := Validate(&toggleRequest{SignalKey: "   ", SamplingRate: 0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signal_key")
	})
}
