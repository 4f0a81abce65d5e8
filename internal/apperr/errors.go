// Package apperr defines the error taxonomy shared by services, storage adapters and handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error by how callers should react to it.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindBadRequest
	KindNotFound
	KindForbidden
	KindConflict
	// KindTransientConflict marks a storage write race. It is retried by the
	// mutation coordinator and never returned to a caller as-is.
	KindTransientConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindTransientConflict:
		return "transient_conflict"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Details carries per-field messages for invalid payloads.
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }
func BadRequest(msg string) *Error   { return newError(KindBadRequest, msg) }
func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func Forbidden(msg string) *Error    { return newError(KindForbidden, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }

// Invalid is a BadRequest carrying per-field details.
func Invalid(msg string, details map[string]string, err error) *Error {
	return &Error{Kind: KindBadRequest, Message: msg, Err: err, Details: details}
}

// DetailsOf returns the field details of the first *Error in err's chain.
func DetailsOf(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Details
	}
	return nil
}

// Transient wraps a storage-level write race.
func Transient(err error) *Error {
	return &Error{Kind: KindTransientConflict, Message: "transient storage conflict", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTransient is the retry classification predicate for storage conflicts.
func IsTransient(err error) bool {
	return Is(err, KindTransientConflict)
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal || ae.Kind == KindTransientConflict {
			return "Internal server error"
		}
		return ae.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a kind onto a transport status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
