// Package apperror holds the domain error taxonomy shared by services and
// the HTTP error middleware.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindForbidden          Kind = "FORBIDDEN"
	KindTurnInProgress     Kind = "TURN_IN_PROGRESS"
	KindInvariantViolation Kind = "INVARIANT_VIOLATION"
	KindQuotaExceeded      Kind = "QUOTA_EXCEEDED"
	KindUpstreamFailure    Kind = "UPSTREAM_FAILURE"
	KindConflict           Kind = "CONFLICT"
)

// Error is a domain error. Wrapped errors are reachable through errors.Unwrap.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
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

// Is matches any *Error of the same kind, so errors.Is(err, ErrQuotaExceeded) works
// for every quota error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation error"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrTurnInProgress     = &Error{Kind: KindTurnInProgress, Message: "turn in progress"}
	ErrInvariantViolation = &Error{Kind: KindInvariantViolation, Message: "invariant violation"}
	ErrQuotaExceeded      = &Error{Kind: KindQuotaExceeded, Message: "quota exceeded"}
	ErrUpstreamFailure    = &Error{Kind: KindUpstreamFailure, Message: "upstream failure"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func TurnInProgress(message string) *Error {
	return &Error{Kind: KindTurnInProgress, Message: message}
}

func InvariantViolation(message string) *Error {
	return &Error{Kind: KindInvariantViolation, Message: message}
}

func QuotaExceeded(message string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Upstream wraps a failure of a remote dependency. Upstream failures are
// always retryable by the client; the server never retries on its own.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: message, Retryable: true, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "" for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
