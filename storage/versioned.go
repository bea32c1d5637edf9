package storage

import (
	"fmt"

	"xdao.co/nameres/address"
)

// Entry is the payload of one container version.
type Entry struct {
	Key   []byte `cbor:"key"`
	Value []byte `cbor:"value"`
}

// ContainerID names a versioned container. The same address may hold
// unrelated containers under different tags.
type ContainerID struct {
	Address address.Address
	Tag     uint64
}

func (c ContainerID) String() string {
	return fmt.Sprintf("%s-%d", c.Address, c.Tag)
}

// VersionedStore holds append-only containers whose versions are numbered
// 1, 2, 3, ... with no gaps.
//
// Contract:
// - PutVersioned fails with ErrAlreadyExists if the container exists. Each
//   initial entry becomes a version; zero entries creates an empty container.
//   A nil addr lets the store pick the address.
// - AppendVersioned succeeds only when version is exactly latest+1; otherwise
//   it fails with ErrVersionConflict. Two racing writers cannot both win.
// - GetLatestVersioned fails with ErrNotFound for a missing container and
//   ErrEmptyContent for a container with no versions.
// - GetVersioned fails with ErrNotFound for a missing container or version.
type VersionedStore interface {
	PutVersioned(initial []Entry, addr *address.Address, tag uint64) (address.Address, error)
	AppendVersioned(entry Entry, version uint64, addr address.Address, tag uint64) error
	GetLatestVersioned(addr address.Address, tag uint64) (uint64, Entry, error)
	GetVersioned(addr address.Address, tag uint64, version uint64) (Entry, error)
}
