package resmap

import (
	"errors"
	"fmt"

	"xdao.co/nameres/codec"
)

// PayloadVersion is the "v" field of every stored map.
const PayloadVersion = 1

// ErrCorrupt wraps every payload decoding failure.
var ErrCorrupt = errors.New("resmap: corrupt payload")

// payload is the stored form of a Map:
//
//	{"v": 1, "default": {"kind": 0|1|2, "ref": text}, "subnames": {text: text}}
//
// encoded as deterministic CBOR. The same Map always yields the same bytes.
type payload struct {
	V        uint              `cbor:"v"`
	Default  payloadDefault    `cbor:"default"`
	Subnames map[string]string `cbor:"subnames"`
}

type payloadDefault struct {
	Kind uint8  `cbor:"kind"`
	Ref  string `cbor:"ref"`
}

// Marshal encodes m as a storage payload.
func Marshal(m *Map) ([]byte, error) {
	subnames := m.Subnames
	if subnames == nil {
		subnames = map[string]string{}
	}
	return codec.Marshal(payload{
		V:        PayloadVersion,
		Default:  payloadDefault{Kind: uint8(m.Default.Kind), Ref: m.Default.Ref},
		Subnames: subnames,
	})
}

// Unmarshal decodes a storage payload. Failures wrap ErrCorrupt.
func Unmarshal(data []byte) (*Map, error) {
	var p payload
	if err := codec.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.V != PayloadVersion {
		return nil, fmt.Errorf("%w: unsupported payload version %d", ErrCorrupt, p.V)
	}

	kind := DefaultKind(p.Default.Kind)
	switch kind {
	case DefaultNotSet:
		if p.Default.Ref != "" {
			return nil, fmt.Errorf("%w: unset default carries a ref", ErrCorrupt)
		}
	case DefaultSubname, DefaultLink:
		if p.Default.Ref == "" {
			return nil, fmt.Errorf("%w: %s default without a ref", ErrCorrupt, kind)
		}
	default:
		return nil, fmt.Errorf("%w: unknown default kind %d", ErrCorrupt, p.Default.Kind)
	}

	m := New()
	m.Default = Default{Kind: kind, Ref: p.Default.Ref}
	for k, v := range p.Subnames {
		if k == "" {
			return nil, fmt.Errorf("%w: empty subname key", ErrCorrupt)
		}
		m.Subnames[k] = v
	}
	return m, nil
}
