// Package apperr defines the error taxonomy shared by stores, services and
// handlers. Each error carries a Kind that maps to one HTTP status and a
// user-facing message; the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindServer Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "server"
	}
}

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string // safe to show to the caller
	Err  error  // underlying cause, never shown
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind, so errors.Is(err, ErrForbidden)
// works for any forbidden error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
)

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) error      { return &Error{Kind: KindValidation, Msg: msg} }
func InvalidState(msg string) error    { return &Error{Kind: KindInvalidState, Msg: msg} }

// Server wraps an unexpected failure (store unavailable, decode error).
func Server(msg string, err error) error {
	return &Error{Kind: KindServer, Msg: msg, Err: err}
}

// KindOf returns the Kind of err. Unclassified errors are server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "An internal error occurred."
}
