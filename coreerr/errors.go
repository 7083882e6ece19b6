// Package coreerr defines the error kinds surfaced across the conversion
// and animation pipeline, so callers can branch on what failed without
// parsing message strings.
package coreerr

import "fmt"

// Kind classifies why an operation failed.
type Kind string

const (
	InvalidConfig Kind = "invalid_config"
	SourceOpen    Kind = "source_open"
	Decode        Kind = "decode"
	Quantize      Kind = "quantize"
	Encode        Kind = "encode"
	InvalidState  Kind = "invalid_state"
	Cancelled     Kind = "cancelled"
	Timeout       Kind = "timeout"
)

// Error carries a Kind, the originating component name, and a
// human-readable summary.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, coreerr.Sentinel(coreerr.Cancelled)) work by comparing Kind against
// a bare Kind value wrapped as an *Error with no other fields set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error for the given kind, component, and message.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Wrap builds an *Error that also records an underlying cause.
func Wrap(kind Kind, component, message string, err error) *Error {
	return &Error{Kind: kind, Component: component, Message: message, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}

// IsKind is a convenience wrapper: IsKind(err, coreerr.Cancelled).
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Sentinel marks the kind-only sentinel for errors.Is comparisons, e.g.
// errors.Is(err, coreerr.Sentinel(coreerr.Cancelled)).
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}
