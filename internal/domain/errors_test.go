package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrValidation,
		ErrStorage,
		ErrRemoteFetch,
		ErrUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		expectedMsg string
	}{
		{
			name:        "with entity and ID",
			entity:      "key",
			id:          "quotes",
			expectedMsg: `key with id "quotes" not found`,
		},
		{
			name:        "with entity only",
			entity:      "quote",
			id:          "",
			expectedMsg: "quote not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.id)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)

			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.entity, notFound.Entity)
			assert.Equal(t, tt.id, notFound.ID)
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{
			name:        "field error",
			err:         NewValidationError("text", "is required"),
			expectedMsg: "validation failed: text is required",
		},
		{
			name:        "message only",
			err:         NewValidationError("", "expected an array of quotes"),
			expectedMsg: "validation failed: expected an array of quotes",
		},
		{
			name:        "batch item",
			err:         NewItemValidationError(2, "category", "is required"),
			expectedMsg: "validation failed: item 2: category is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			assert.True(t, IsValidation(tt.err))
		})
	}
}

func TestItemValidationError_KeepsIndex(t *testing.T) {
	err := NewItemValidationError(2, "category", "is required")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, ve.Index)
	assert.Equal(t, "category", ve.Field)
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("set", "quotes", cause)

	assert.Equal(t, `storage set "quotes": disk full`, err.Error())
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, cause)
	assert.True(t, IsStorage(err))
	assert.False(t, IsValidation(err))

	noKey := NewStorageError("open", "", cause)
	assert.Equal(t, "storage open: disk full", noKey.Error())
}

func TestRemoteFetchError(t *testing.T) {
	cause := NewUnavailableError("quote-feed", "HTTP 502")
	err := NewRemoteFetchError("quote-feed", cause)

	assert.True(t, IsRemoteFetch(err))
	assert.True(t, IsUnavailable(err), "cause should stay reachable")
	assert.Contains(t, err.Error(), "fetching from quote-feed")
}

func TestUnavailableError(t *testing.T) {
	assert.Equal(t, `service "feed" unavailable: timeout`, NewUnavailableError("feed", "timeout").Error())
	assert.Equal(t, `service "feed" unavailable`, NewUnavailableError("feed", "").Error())
}

func TestIsHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("adding quote: %w", NewValidationError("text", "is required"))

	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsStorage(wrapped))
	assert.False(t, IsRemoteFetch(wrapped))
	assert.False(t, IsUnavailable(wrapped))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", NewNotFoundError("key", "x"))))
}
