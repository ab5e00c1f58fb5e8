// Package apperror defines the typed errors returned by the reservation
// core.  Precondition failures are values, never panics; handlers render
// them with the carried HTTP status and code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class on the wire.
type Code string

const (
	CodeSeatConflict     Code = "SEAT_CONFLICT"
	CodeAlreadyHolding   Code = "ALREADY_HOLDING"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeTransient        Code = "TRANSIENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Error standardizes application errors.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels usable with errors.Is.
var (
	ErrSeatConflict    = &Error{Code: CodeSeatConflict}
	ErrAlreadyHolding  = &Error{Code: CodeAlreadyHolding}
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated}
	ErrTransient       = &Error{Code: CodeTransient}
	ErrNotFound        = &Error{Code: CodeNotFound}
)

func SeatConflict(seatID string) error {
	return &Error{
		Code:       CodeSeatConflict,
		Message:    "seat is already taken by someone else",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"seat_id": seatID},
	}
}

func AlreadyHolding(seatID string) error {
	return &Error{
		Code:       CodeAlreadyHolding,
		Message:    "you already hold a seat; release it first",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"seat_id": seatID},
	}
}

func Unauthenticated(message string) error {
	return &Error{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

func Forbidden(message string) error {
	return &Error{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound is a fatal request error: the referenced seat or person does
// not exist.  It is never retried.
func NotFound(resource, id string) error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{resource + "_id": id},
	}
}

// RateLimited tells the caller to come back after retryAfter seconds.
func RateLimited(retryAfter int) error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
		Details:    map[string]any{"retry_after": retryAfter},
	}
}

func Validation(message string) error {
	return &Error{Code: CodeValidationFailed, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Transient wraps a data-store timeout or outage.  Only transient errors
// are eligible for retry.
func Transient(err error) error {
	return &Error{
		Code:       CodeTransient,
		Message:    "data store temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func Internal(err error) error {
	return &Error{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// From converts any error to *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err).(*Error)
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
