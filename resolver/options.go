package resolver

import (
	"github.com/multiformats/go-multibase"

	"xdao.co/nameres/compliance"
)

// Options controls resolver behavior.
//
// Default behavior is Permissive with the locator default base when
// Options{} is used.
type Options struct {
	Mode compliance.ComplianceMode

	// Base is recorded on locators built from names. Zero means
	// locator.DefaultBase.
	Base multibase.Encoding
}
