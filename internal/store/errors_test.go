package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := store.ErrCorruptData.WithCause(cause)

	assert.Contains(t, err.Error(), "stored data is corrupt")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, store.ErrInvalidInput.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrAlreadyExists.HTTPCode())
}

func TestError_IsSurvivesCopies(t *testing.T) {
	err := fmt.Errorf("load entries: %w", store.ErrCorruptData.WithCause(errors.New("bad json")))

	assert.ErrorIs(t, err, store.ErrCorruptData)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestError_WithMessage(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("product P1 not found")

	assert.Equal(t, "product P1 not found", modified.Message)
	assert.Equal(t, http.StatusNotFound, modified.Code)
	assert.Equal(t, "resource not found", store.ErrNotFound.Message)
}

func TestError_IsMatchesRenamedSentinel(t *testing.T) {
	assert.ErrorIs(t, store.ErrNotFound.WithMessage("product P1 not found"), store.ErrNotFound)
}
