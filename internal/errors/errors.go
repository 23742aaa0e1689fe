// Package errors provides standardized domain errors with codes for the labeler station.
//
// Usage:
//
//	// In services - return typed errors
//	if lotInvalid {
//	    return errors.Validation("lot must be exactly 5 digits")
//	}
//
//	// In handlers and tests - check with errors.Is
//	if errors.Is(err, errors.ErrLedgerUpdateFailed) {
//	    // surface the reconciliation banner
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeConcurrentPrint:
//	        ...
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
	CodeNotFound  Code = "NOT_FOUND"
	CodeConflict  Code = "CONFLICT"
	CodeInternal  Code = "INTERNAL"
	CodeRateLimit Code = "RATE_LIMITED"

	// Print workflow taxonomy.
	CodeLoad               Code = "LOAD_ERROR"
	CodeValidation         Code = "VALIDATION"
	CodeEncoding           Code = "ENCODING"
	CodePersist            Code = "PERSIST"
	CodeLedgerUpdateFailed Code = "LEDGER_UPDATE_FAILED"
	CodeDeviceUnavailable  Code = "DEVICE_UNAVAILABLE"
	CodeConcurrentPrint    Code = "CONCURRENT_PRINT_REJECTED"
	CodeDuplicateCanID     Code = "DUPLICATE_CAN_ID"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeLedgerUpdateFailed, CodeConcurrentPrint, CodeDuplicateCanID:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeEncoding:
		return http.StatusUnprocessableEntity
	case CodeLoad, CodeDeviceUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
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

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
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
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrLoad               = &Error{Code: CodeLoad, Message: "failed to load station data"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrEncoding           = &Error{Code: CodeEncoding, Message: "code encoding failed"}
	ErrPersist            = &Error{Code: CodePersist, Message: "print record could not be stored"}
	ErrLedgerUpdateFailed = &Error{Code: CodeLedgerUpdateFailed, Message: "counter not advanced, ledger needs reconciliation"}
	ErrDeviceUnavailable  = &Error{Code: CodeDeviceUnavailable, Message: "device unavailable"}
	ErrConcurrentPrint    = &Error{Code: CodeConcurrentPrint, Message: "a print is already in progress"}
	ErrDuplicateCanID     = &Error{Code: CodeDuplicateCanID, Message: "a record for this can id already exists"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
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

// Encodingf creates an encoding error with formatted message.
func Encodingf(format string, args ...any) *Error {
	return &Error{Code: CodeEncoding, Message: fmt.Sprintf(format, args...)}
}

// DeviceUnavailable creates a device unavailable error.
func DeviceUnavailable(msg string) *Error {
	return &Error{Code: CodeDeviceUnavailable, Message: msg}
}

// RateLimited creates a rate limit error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimit, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first domain error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
