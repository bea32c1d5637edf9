package grpcstore

import (
	"xdao.co/nameres/address"
	"xdao.co/nameres/storage"
)

// CBOR bodies of the versioned methods.

type putVersionedRequest struct {
	Initial []storage.Entry  `cbor:"initial"`
	Address *address.Address `cbor:"address,omitempty"`
	Tag     uint64           `cbor:"tag"`
}

type putVersionedResponse struct {
	Address address.Address `cbor:"address"`
}

type appendVersionedRequest struct {
	Entry   storage.Entry   `cbor:"entry"`
	Version uint64          `cbor:"version"`
	Address address.Address `cbor:"address"`
	Tag     uint64          `cbor:"tag"`
}

type getVersionedRequest struct {
	Address address.Address `cbor:"address"`
	Tag     uint64          `cbor:"tag"`
	// Version is ignored by GetLatestVersioned.
	Version uint64 `cbor:"version,omitempty"`
}

type versionedResponse struct {
	Version uint64        `cbor:"version"`
	Entry   storage.Entry `cbor:"entry"`
}
