package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sentra/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("valid uuid", func(t *testing.T) {
		raw := uuid.New().String()
		id, err := ParseUserID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
		assert.False(t, id.IsNil())
	})

	t.Run("empty string rejected", func(t *testing.T) {
		_, err := ParseUserID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("malformed rejected", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil uuid parses but reports IsNil", func(t *testing.T) {
		id, err := ParseUserID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestOpaqueIdentifiers(t *testing.T) {
	t.Run("app id must not be empty", func(t *testing.T) {
		_, err := ParseAppID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		app, err := ParseAppID("com.example.editor")
		require.NoError(t, err)
		assert.Equal(t, "com.example.editor", app.String())
	})

	t.Run("signal key must not be empty", func(t *testing.T) {
		_, err := ParseSignalKey("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		key, err := ParseSignalKey("app_focus")
		require.NoError(t, err)
		assert.False(t, key.IsNil())
	})
}

func TestMintedIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewEventID(), NewEventID())
	assert.NotEqual(t, NewEntryID(), NewEntryID())
}
