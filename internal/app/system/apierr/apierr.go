// Package apierr defines the typed errors returned by workflow operations.
//
// Each error carries a Kind that maps to exactly one HTTP status, and a
// message that is safe to show to the caller. Internal errors wrap the cause
// and always present a generic message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindRateLimited:
		return "rate_limited"
	}
	return "internal"
}

// GenericMessage is shown for every internal error.
const GenericMessage = "Something went wrong. Please try again."

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newErr(KindValidation, format, args...) }
func Unauthenticated(format string, args ...any) error {
	return newErr(KindUnauthenticated, format, args...)
}
func Forbidden(format string, args ...any) error    { return newErr(KindForbidden, format, args...) }
func NotFound(format string, args ...any) error     { return newErr(KindNotFound, format, args...) }
func Conflict(format string, args ...any) error     { return newErr(KindConflict, format, args...) }
func InvalidState(format string, args ...any) error { return newErr(KindInvalidState, format, args...) }
func RateLimited(format string, args ...any) error  { return newErr(KindRateLimited, format, args...) }

// Internal wraps an unexpected error. The op string is kept for logs only.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Status maps err to an HTTP status code.
//
// Conflict is reported as 400: clients of this API treat duplicate
// applications, closed deadlines and full opportunities as bad requests.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindInvalidState:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to send to the caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return GenericMessage
}
