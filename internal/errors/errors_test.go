package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := DuplicateKeyf("COLOR %q already mapped", "red")

	assert.True(t, Is(err, ErrDuplicateKey))
	assert.False(t, Is(err, ErrInvalidID))

	wrapped := fmt.Errorf("apply edit: %w", err)
	assert.True(t, Is(wrapped, ErrDuplicateKey))
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodeInternal, "save entries")

	assert.Equal(t, "save entries: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrInternal))
}

func TestSnapshotStale_Details(t *testing.T) {
	err := SnapshotStale(1, 2)

	require.True(t, Is(err, ErrSnapshotStale))
	details, ok := err.Details.(map[string]uint64)
	require.True(t, ok)
	assert.Equal(t, uint64(1), details["snapshot_version"])
	assert.Equal(t, uint64(2), details["table_version"])
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeDuplicateKey, http.StatusConflict},
		{CodeInvalidID, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeSnapshotStale, http.StatusConflict},
		{CodeTableCorrupt, http.StatusLocked},
		{CodeValidation, http.StatusBadRequest},
		{CodeOverrideRequired, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("lookup: %w", NotFound("gone"))))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.True(t, CodeOf(InvalidIDf("bad")).Correctable())
	assert.False(t, CodeSnapshotStale.Correctable())
}
