// Package codec holds the CBOR configuration used for every persisted or
// transmitted payload in this module.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. The same logical
// value always produces the same bytes, so payloads can be compared and
// content-addressed directly.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode

	// decMode ignores unknown fields for forward compatibility.
	decMode cbor.DecMode

	// strictMode rejects unknown fields and duplicate map keys. Used for
	// payloads whose exact shape is a storage contract.
	strictMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decOptions := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}
	decMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	decOptions.DupMapKey = cbor.DupMapKeyEnforcedAPF
	decOptions.ExtraReturnErrors = cbor.ExtraDecErrorUnknownField
	strictMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: strict CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalStrict decodes CBOR data into v, failing on unknown struct
// fields, duplicate map keys, or trailing bytes.
func UnmarshalStrict(data []byte, v any) error {
	return strictMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for data.
// "xdao-nrs name get --diag" uses it to show stored maps.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
