package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
)

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]int{"version": 3}, slog.New(slog.DiscardHandler))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	env := decode[map[string]any](t, w)
	assert.Equal(t, float64(Version), env["v"])
	assert.Equal(t, true, env["success"])
	assert.Equal(t, map[string]any{"version": float64(3)}, env["data"])
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()

	TooManyRequests(w, "slow down", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	env := decode[ErrorEnvelope](t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	assert.Equal(t, "slow down", env.Message)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate key", domainerrors.DuplicateKeyf("COLOR %q is taken", "red"), http.StatusConflict, "DUPLICATE_KEY"},
		{"wrapped corrupt", fmt.Errorf("edit: %w", domainerrors.TableCorrupt("blocked")), http.StatusLocked, "TABLE_CORRUPT"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, slog.New(slog.DiscardHandler))

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode[ErrorEnvelope](t, w)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, Version, env.Version)
		})
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("password=hunter2"), nil)

	assert.NotContains(t, w.Body.String(), "hunter2")
}
