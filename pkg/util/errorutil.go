package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients. Authentication and authorization failures
// all map to 401; lookup failures hide internal detail behind a generic 500.
const (
	CodeMissingAuthHeader   = "MISSING_AUTHORIZATION_HEADER"
	CodeMalformedAuthHeader = "MALFORMED_AUTHORIZATION_HEADER"
	CodeInvalidToken        = "INVALID_OR_EXPIRED_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodePasswordMismatch    = "PASSWORD_MISMATCH"
	CodeLookupFailure       = "LOOKUP_FAILURE"
	CodeInsufficientRole    = "INSUFFICIENT_ROLE"
	CodeClockUnavailable    = "CLOCK_UNAVAILABLE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthorized builds a 401 with a machine-readable reason code.
func NewUnauthorized(code, message string) error {
	return NewDomainError(code, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewLookupFailure wraps a data-access error. The wrapped error is logged
// server-side but never included in the client response.
func NewLookupFailure(err error) error {
	return &DomainError{
		Code:       CodeLookupFailure,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
