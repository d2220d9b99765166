// Package errors provides coded domain errors for conversion table maintenance.
//
// Usage:
//
//	// In the table - return typed errors
//	if taken {
//	    return errors.DuplicateKeyf("COLOR %q is already mapped", canonical)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrSnapshotStale) {
//	    snap = tbl.Snapshot()
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeDuplicateKey, errors.CodeInvalidID:
//	        reject(domainErr.Message)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeDuplicateKey     Code = "DUPLICATE_KEY"
	CodeInvalidID        Code = "INVALID_ID"
	CodeNotFound         Code = "NOT_FOUND"
	CodeSnapshotStale    Code = "SNAPSHOT_STALE"
	CodeTableCorrupt     Code = "TABLE_CORRUPT"
	CodeValidation       Code = "VALIDATION"
	CodeOverrideRequired Code = "OVERRIDE_REQUIRED"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateKey, CodeSnapshotStale, CodeOverrideRequired:
		return http.StatusConflict
	case CodeTableCorrupt:
		return http.StatusLocked
	case CodeValidation, CodeInvalidID:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Correctable reports whether the operator can fix the condition by changing input.
func (c Code) Correctable() bool {
	switch c {
	case CodeDuplicateKey, CodeInvalidID, CodeNotFound, CodeValidation:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrDuplicateKey     = &Error{Code: CodeDuplicateKey, Message: "duplicate key"}
	ErrInvalidID        = &Error{Code: CodeInvalidID, Message: "invalid id"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrSnapshotStale    = &Error{Code: CodeSnapshotStale, Message: "snapshot is stale"}
	ErrTableCorrupt     = &Error{Code: CodeTableCorrupt, Message: "conversion table is corrupt"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrOverrideRequired = &Error{Code: CodeOverrideRequired, Message: "operator override required"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// DuplicateKeyf creates a duplicate key error with formatted message.
func DuplicateKeyf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateKey, Message: fmt.Sprintf(format, args...)}
}

// InvalidIDf creates an invalid id error with formatted message.
func InvalidIDf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidID, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// SnapshotStale creates a stale snapshot error carrying both versions.
func SnapshotStale(snapshotVersion, tableVersion uint64) *Error {
	return &Error{
		Code:    CodeSnapshotStale,
		Message: fmt.Sprintf("snapshot version %d does not match table version %d", snapshotVersion, tableVersion),
		Details: map[string]uint64{
			"snapshot_version": snapshotVersion,
			"table_version":    tableVersion,
		},
	}
}

// TableCorrupt creates a table corruption error.
func TableCorrupt(msg string) *Error {
	return &Error{Code: CodeTableCorrupt, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// OverrideRequiredf creates an override required error with formatted message.
func OverrideRequiredf(format string, args ...any) *Error {
	return &Error{Code: CodeOverrideRequired, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
