// Package address defines the fixed-size content address shared by every
// stored object and the hash that derives an address from a public name.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Size is the length of an address in bytes.
const Size = 32

// Address identifies a stored object. Equality is byte-exact.
type Address [Size]byte

// Zero is the all-zero address. It is never produced by HashName or by a store.
var Zero Address

var ErrInvalidAddress = errors.New("address: invalid address")

// HashName derives the address of a public name: the SHA3-256 digest of the
// name's UTF-8 bytes. Callers normalize the name first; no case folding or
// trimming happens here.
func HashName(name string) Address {
	return Address(sha3.Sum256([]byte(name)))
}

// FromBytes copies b into an Address. b must be exactly Size bytes.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(b), Size)
	}
	copy(a[:], b)
	return a, nil
}

// Parse decodes the hex form produced by String.
func Parse(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return FromBytes(b)
}

func (a Address) IsZero() bool { return a == Zero }

func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// String returns the lowercase hex encoding. This is the form used in logs
// and on-disk layouts.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
