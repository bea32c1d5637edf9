package namesys

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindInvalidInput  Kind = "InvalidInput"
	KindNotFound      Kind = "NotFound"
	KindAlreadyExists Kind = "AlreadyExists"
	KindEntryNotFound Kind = "EntryNotFound"
	KindCorruptMap    Kind = "CorruptMap"
	KindConflict      Kind = "Conflict"
	KindStore         Kind = "Store"
)

// MsgNoMapFound is the NotFound message for a name whose container was never created.
const MsgNoMapFound = "no resolution map found at this address"

// Error carries enough context (operation, name, version) for a caller to
// decide whether to retry. Nothing in this package retries on its own.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind Kind
	// Op is the protocol operation: "create", "add", "remove", "get-latest", "get" or "resolve-link".
	Op   string
	Name string
	// Version is the version being read or written, when known.
	Version uint64
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "namesys: " + e.Op
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Version != 0 {
		msg += fmt.Sprintf(" (version %d)", e.Version)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
