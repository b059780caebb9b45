// Package apperr defines the tagged error returned by the group domain.
//
// Every rejected operation yields an *Error whose Kind tells the caller which
// class of failure occurred, so transports can map kinds to status codes
// without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindValidation is malformed input.
	KindValidation Kind = iota + 1
	// KindNotFound is a referenced group or user that does not exist.
	KindNotFound
	// KindAuthorization is a missing membership, insufficient role or wrong join code.
	KindAuthorization
	// KindConflict is a well-formed, authorized request that the current state forbids.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a domain error carrying its Kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindConflict}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
