// Package orcherr defines the error taxonomy surfaced by the orchestration
// engine. Every error carries the operation it originated from so the API
// layer can report it without leaking internal detail.
package orcherr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindInvalidParameter marks malformed or contradictory input.
	KindInvalidParameter Kind = iota + 1
	// KindInternal marks storage or infrastructure faults of this service.
	KindInternal
	// KindExternal marks failures of a system this service depends on.
	KindExternal
)

// String returns the exception type name used in API responses.
func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "INVALID_PARAMETER"
	case KindInternal:
		return "INTERNAL_SERVER_ERROR"
	case KindExternal:
		return "EXTERNAL_SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified failure with an origin tag.
type Error struct {
	Kind    Kind
	Origin  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Origin, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Origin, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Origin, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidParameter builds a KindInvalidParameter error.
func InvalidParameter(origin, format string, args ...any) error {
	return &Error{Kind: KindInvalidParameter, Origin: origin, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or infrastructure failure.
func Internal(origin string, err error) error {
	return &Error{Kind: KindInternal, Origin: origin, Message: "database operation error", Err: err}
}

// External wraps a failure of a dependent system.
func External(origin string, err error) error {
	return &Error{Kind: KindExternal, Origin: origin, Message: "dependent system error", Err: err}
}

// KindOf returns the kind of err, or zero when err is not classified.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return 0
}

// IsInvalidParameter reports whether err is an invalid parameter failure.
func IsInvalidParameter(err error) bool { return KindOf(err) == KindInvalidParameter }

// IsInternal reports whether err is an internal failure.
func IsInternal(err error) bool { return KindOf(err) == KindInternal }

// IsExternal reports whether err is a dependency failure.
func IsExternal(err error) bool { return KindOf(err) == KindExternal }

// Classify returns err unchanged when it already carries a kind, otherwise
// it is wrapped as an internal failure for origin.
func Classify(origin string, err error) error {
	if err == nil || KindOf(err) != 0 {
		return err
	}
	return Internal(origin, err)
}

// ErrNotFound is returned by stores when a point lookup or update targets a
// missing row.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by stores when an insert violates a uniqueness
// guarantee.
var ErrConflict = errors.New("unique constraint violated")
