// Package resolver turns any input string into a locator.
//
// A string that decodes as a locator is returned as is. Anything else is
// read as a public name and resolves to the locator of that name's
// resolution map, so a malformed locator quietly becomes a lookup of a
// name that most likely does not exist. Strict mode closes that gap for
// inputs that look structural.
package resolver

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"xdao.co/nameres/compliance"
	"xdao.co/nameres/locator"
)

// Resolve resolves input with permissive defaults.
func Resolve(input string) (locator.Locator, error) {
	return ResolveWithOptions(input, Options{})
}

// ResolveStrict is Resolve in strict compliance mode.
func ResolveStrict(input string) (locator.Locator, error) {
	return ResolveWithOptions(input, Options{Mode: compliance.Strict})
}

func ResolveWithOptions(input string, opts Options) (locator.Locator, error) {
	l, decodeErr := locator.Decode(input)
	if decodeErr == nil {
		return l, nil
	}
	if opts.Mode == compliance.Strict && looksStructural(input) {
		return locator.Locator{}, fmt.Errorf("strict mode: %w", decodeErr)
	}

	n, err := ParseName(input)
	if err != nil {
		return locator.Locator{}, errors.Join(err, decodeErr)
	}
	l = n.Locator()
	if opts.Base != 0 {
		l.Base = opts.Base
	}
	return l, nil
}

// looksStructural reports whether the last host label decodes to a
// multibase value of at least a full header. Such input is a broken
// locator rather than a name.
func looksStructural(input string) bool {
	n, err := ParseName(input)
	if err != nil {
		return false
	}
	_, data, err := multibase.Decode(n.Public)
	return err == nil && len(data) >= locator.HeaderSize
}
