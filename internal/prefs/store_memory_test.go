package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
	"sentra/pkg/testutil"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("get missing returns not found", func(t *testing.T) {
		store := NewInMemory()
		_, err := store.Get(ctx, domain.UserID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("upsert then get returns a copy", func(t *testing.T) {
		store := NewInMemory()
		record, err := NewRecord(domain.UserID(uuid.New()), true, true, 30, false, now)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, record))

		got, err := store.Get(ctx, record.UserID)
		require.NoError(t, err)
		assert.True(t, got.AllowsMonitoring())

		got.ConsentGiven = false
		again, err := store.Get(ctx, record.UserID)
		require.NoError(t, err)
		assert.True(t, again.ConsentGiven, "store must not share state with callers")
	})

	t.Run("delete removes the row", func(t *testing.T) {
		store := NewInMemory()
		record, err := NewRecord(domain.UserID(uuid.New()), true, true, 0, false, now)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, record))
		require.NoError(t, store.DeleteByUser(ctx, record.UserID))

		_, err = store.Get(ctx, record.UserID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list purge due only returns overdue soft deletes", func(t *testing.T) {
		store := NewInMemory()

		overdue, err := NewRecord(domain.UserID(uuid.New()), true, true, 0, false, now)
		require.NoError(t, err)
		overdue.MarkSoftDeleted(now.Add(-time.Hour), now)
		require.NoError(t, store.Upsert(ctx, overdue))

		pending, err := NewRecord(domain.UserID(uuid.New()), true, true, 0, false, now)
		require.NoError(t, err)
		pending.MarkSoftDeleted(now.Add(time.Hour), now)
		require.NoError(t, store.Upsert(ctx, pending))

		active, err := NewRecord(domain.UserID(uuid.New()), true, true, 0, false, now)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, active))

		due, err := store.ListPurgeDue(ctx, now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, overdue.UserID, due[0].UserID)
	})

	t.Run("concurrent upserts are safe", func(t *testing.T) {
		store := NewInMemory()
		userID := domain.UserID(uuid.New())
		result := testutil.RunConcurrent(32, func(idx int) error {
			record, err := NewRecord(userID, idx%2 == 0, true, 30, false, now)
			if err != nil {
				return err
			}
			return store.Upsert(ctx, record)
		})
		assert.Equal(t, int32(32), result.Successes)
	})
}

func TestRecordInvariants(t *testing.T) {
	now := time.Now()

	t.Run("nil user rejected", func(t *testing.T) {
		_, err := NewRecord(domain.UserID{}, true, true, 30, false, now)
		assert.Error(t, err)
	})

	t.Run("retention defaults when unset", func(t *testing.T) {
		record, err := NewRecord(domain.UserID(uuid.New()), true, true, 0, false, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultRetentionDays, record.DataRetentionDays)
	})

	t.Run("monitoring without consent never allows", func(t *testing.T) {
		record, err := NewRecord(domain.UserID(uuid.New()), true, false, 30, false, now)
		require.NoError(t, err)
		assert.False(t, record.AllowsMonitoring())
	})

	t.Run("soft delete revokes consent immediately", func(t *testing.T) {
		record, err := NewRecord(domain.UserID(uuid.New()), true, true, 30, false, now)
		require.NoError(t, err)
		record.MarkSoftDeleted(now.Add(7*24*time.Hour), now)
		assert.False(t, record.AllowsMonitoring())
		assert.Equal(t, StatusSoftDeleted, record.Status)
		require.NotNil(t, record.ScheduledPurgeAt)
	})
}
