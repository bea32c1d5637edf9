package namesys

import (
	"errors"

	"xdao.co/nameres/resmap"
)

// mapError classifies a resmap mutation or lookup failure.
func mapError(op, name string, err error) error {
	switch {
	case errors.Is(err, resmap.ErrEntryNotFound), errors.Is(err, resmap.ErrNoDefault):
		return &Error{Kind: KindEntryNotFound, Op: op, Name: name, Message: "no such entry in the resolution map", Cause: err}
	default:
		return &Error{Kind: KindInvalidInput, Op: op, Name: name, Message: "invalid mutation", Cause: err}
	}
}

func storeError(op, name string, version uint64, err error) error {
	return &Error{Kind: KindStore, Op: op, Name: name, Version: version, Message: "storage failure", Cause: err}
}

// withOp re-labels an error from a nested protocol call with the outer
// operation and name, keeping its kind and cause.
func withOp(err error, op, name string) error {
	var e *Error
	if !errors.As(err, &e) {
		return storeError(op, name, 0, err)
	}
	out := *e
	out.Op = op
	out.Name = name
	return &out
}
