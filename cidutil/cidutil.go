package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/nameres/address"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ToCID wraps an address as a CIDv1 raw + sha2-256. The address must be a
// sha2-256 digest for the result to verify against stored bytes.
func ToCID(a address.Address) (cid.Cid, error) {
	mh, err := multihash.Encode(a[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// FromCID extracts the address from a CIDv1 raw + sha2-256.
// Any other codec or hash function is rejected.
func FromCID(id cid.Cid) (address.Address, error) {
	if !id.Defined() {
		return address.Zero, fmt.Errorf("cidutil: undefined cid")
	}
	if id.Type() != cid.Raw {
		return address.Zero, fmt.Errorf("cidutil: unsupported codec 0x%x", id.Type())
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return address.Zero, err
	}
	if dec.Code != multihash.SHA2_256 {
		return address.Zero, fmt.Errorf("cidutil: unsupported multihash 0x%x", dec.Code)
	}
	return address.FromBytes(dec.Digest)
}
