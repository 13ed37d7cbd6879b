package common

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is the status-bearing error every service returns for a domain rule violation.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds the per-field messages of a validation failure.
	Fields map[string]string
}

var (
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode())
	}
	return e.Message
}

// Is reports whether target is an error of the same kind, so errors.Is(err, ErrNotFound)
// matches every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(message string) error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// AsError unwraps err into an *Error. Anything unclassified becomes an internal error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "the server encountered a problem and could not process your request"}
}
