package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for HTTP mapping at the response boundary.
type Kind int

const (
	// KindInternal indicates an invariant violation or unexpected failure.
	KindInternal Kind = iota
	// KindValidation indicates malformed or missing input.
	KindValidation
	// KindConflict indicates a uniqueness violation.
	KindConflict
	// KindNotFound indicates no matching entity.
	KindNotFound
	// KindAuth indicates bad credentials or a missing/invalid/stale token.
	KindAuth
	// KindUpload indicates the external media storage reported failure.
	KindUpload
)

// Error is a typed failure raised by services and converted exactly once, at
// the outermost HTTP boundary, into the error envelope.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a typed error with the provided message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a typed error that keeps the underlying cause for logging.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message for err. Untyped errors get a
// generic message so internal details never leak into responses.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps a failure kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUpload:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
