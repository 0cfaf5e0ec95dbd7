package utils

import (
	"errors"
	"net/http"

	"github.com/raid-guild/x402-tip-links/types"
)

// StatusError is a custom error type that includes a status code.
type StatusError struct {
	error
	status int
	reason types.InvalidReason
}

// Status returns the status code of the error.
func (se StatusError) Status() int {
	return se.status
}

// Reason returns the invalid reason of a verification error.
func (se StatusError) Reason() types.InvalidReason {
	return se.reason
}

// Unwrap returns the wrapped error.
func (se StatusError) Unwrap() error {
	return se.error
}

// NewStatusError creates a new StatusError.
func NewStatusError(err error, s int) error {
	return StatusError{error: err, status: s}
}

// NewValidationError creates an error for missing or malformed input.
func NewValidationError(message string) error {
	return StatusError{error: errors.New(message), status: http.StatusBadRequest}
}

// NewNotFoundError creates an error for an unknown resource.
func NewNotFoundError(message string) error {
	return StatusError{error: errors.New(message), status: http.StatusNotFound}
}

// NewVerificationError creates an error for a proof of payment that failed verification.
func NewVerificationError(reason types.InvalidReason, message string) error {
	return StatusError{error: errors.New(message), status: http.StatusBadRequest, reason: reason}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) error {
	return StatusError{error: err, status: http.StatusInternalServerError}
}

// StatusOf returns the status code carried by err, or 500.
func StatusOf(err error) int {
	var se StatusError
	if errors.As(err, &se) {
		return se.Status()
	}
	return http.StatusInternalServerError
}
