package signals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
	"sentra/pkg/platform/sentinel"
)

func TestNewToggle(t *testing.T) {
	now := time.Now()
	userID := domain.UserID(uuid.New())

	t.Run("accepts the closed interval boundaries", func(t *testing.T) {
		for _, rate := range []float64{0, 0.5, 1} {
			_, err := NewToggle(userID, "app_focus", true, rate, now)
			assert.NoError(t, err, "rate %v", rate)
		}
	})

	t.Run("rejects out-of-range rates before persistence", func(t *testing.T) {
		for _, rate := range []float64{-0.1, 1.5, 2} {
			_, err := NewToggle(userID, "app_focus", true, rate, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "rate %v", rate)
		}
	})

	t.Run("requires user and key", func(t *testing.T) {
		_, err := NewToggle(domain.UserID{}, "app_focus", true, 1, now)
		assert.Error(t, err)
		_, err = NewToggle(userID, "", true, 1, now)
		assert.Error(t, err)
	})
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	userID := domain.UserID(uuid.New())

	t.Run("absent toggle is not found", func(t *testing.T) {
		store := NewInMemory()
		_, err := store.Get(ctx, userID, "app_focus")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("upsert is last write wins per key", func(t *testing.T) {
		store := NewInMemory()
		first, err := NewToggle(userID, "app_focus", true, 1, now)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, first))

		second, err := NewToggle(userID, "app_focus", false, 0.25, now)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, second))

		got, err := store.Get(ctx, userID, "app_focus")
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Equal(t, 0.25, got.SamplingRate)

		toggles, err := store.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, toggles, 1)
	})

	t.Run("delete by user clears every toggle", func(t *testing.T) {
		store := NewInMemory()
		for _, key := range []domain.SignalKey{"app_focus", "keypress_rate"} {
			toggle, err := NewToggle(userID, key, true, 1, now)
			require.NoError(t, err)
			require.NoError(t, store.Upsert(ctx, toggle))
		}
		require.NoError(t, store.DeleteByUser(ctx, userID))
		toggles, err := store.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, toggles)
	})
}
