package compliance

import (
	"fmt"
	"strings"
)

// ComplianceMode selects how aggressively the library rejects ambiguity.
//
// Strict mode prefers explicit failure over silent acceptance.
// Permissive mode attempts to produce a result, falling back where the
// input allows more than one reading.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)

func (m ComplianceMode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("compliance(%d)", int(m))
	}
}

// ParseMode accepts "permissive" or "strict", case-insensitively. Empty
// means Permissive.
func ParseMode(s string) (ComplianceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("compliance: unknown mode %q", s)
	}
}
