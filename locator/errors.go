package locator

import (
	"errors"
	"fmt"
)

// ErrDecode matches every *DecodeError via errors.Is.
var ErrDecode = errors.New("locator: decode failed")

// DecodeError reports why a string is not a structural locator.
// It is recoverable: resolvers treat it as the signal to fall back to name
// resolution.
type DecodeError struct {
	Input  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("locator: cannot decode %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("locator: cannot decode %q: %s", e.Input, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeError(input, reason string, err error) error {
	return &DecodeError{Input: input, Reason: reason, Err: err}
}
