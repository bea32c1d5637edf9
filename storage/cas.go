package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface for immutable blobs.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (CIDv1 raw + sha2-256).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Store is the full storage collaborator: immutable blobs plus versioned
// append-only containers.
type Store interface {
	CAS
	VersionedStore
}
