package mission

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindInvalidState    ErrorKind = "invalid_state"
	KindValidation      ErrorKind = "validation_failed"
	KindPrecondition    ErrorKind = "precondition_failed"
	KindInternal        ErrorKind = "internal"
)

// Error carries a stable kind and a human-readable message.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "mission not found"}
	ErrInvalidState    = &Error{Kind: KindInvalidState, Message: "invalid mission status"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrPrecondition    = &Error{Kind: KindPrecondition, Message: "precondition failed"}
)

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for anything that is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
