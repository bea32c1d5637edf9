// Package memstore is an in-memory storage.Store. It backs previews and
// tests, and is the "memory" registry backend.
package memstore

import (
	"bytes"
	"crypto/rand"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/nameres/address"
	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/storage"
)

// Store is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	containers map[storage.ContainerID][]storage.Entry
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		blobs:      make(map[string][]byte),
		containers: make(map[storage.ContainerID][]storage.Entry),
	}
}

func (s *Store) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.blobs[id.KeyString()]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	s.blobs[id.KeyString()] = append([]byte(nil), data...)
	return id, nil
}

func (s *Store) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id.KeyString()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[id.KeyString()]
	return ok
}

func (s *Store) PutVersioned(initial []storage.Entry, addr *address.Address, tag uint64) (address.Address, error) {
	var a address.Address
	if addr != nil {
		a = *addr
	} else if _, err := rand.Read(a[:]); err != nil {
		return address.Zero, err
	}

	key := storage.ContainerID{Address: a, Tag: tag}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[key]; ok {
		return address.Zero, storage.ErrAlreadyExists
	}
	entries := make([]storage.Entry, 0, len(initial))
	for _, e := range initial {
		entries = append(entries, cloneEntry(e))
	}
	s.containers[key] = entries
	return a, nil
}

func (s *Store) AppendVersioned(entry storage.Entry, version uint64, addr address.Address, tag uint64) error {
	key := storage.ContainerID{Address: addr, Tag: tag}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.containers[key]
	if !ok {
		return storage.ErrNotFound
	}
	if version != uint64(len(entries))+1 {
		return storage.ErrVersionConflict
	}
	s.containers[key] = append(entries, cloneEntry(entry))
	return nil
}

func (s *Store) GetLatestVersioned(addr address.Address, tag uint64) (uint64, storage.Entry, error) {
	key := storage.ContainerID{Address: addr, Tag: tag}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.containers[key]
	if !ok {
		return 0, storage.Entry{}, storage.ErrNotFound
	}
	if len(entries) == 0 {
		return 0, storage.Entry{}, storage.ErrEmptyContent
	}
	return uint64(len(entries)), cloneEntry(entries[len(entries)-1]), nil
}

func (s *Store) GetVersioned(addr address.Address, tag uint64, version uint64) (storage.Entry, error) {
	key := storage.ContainerID{Address: addr, Tag: tag}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.containers[key]
	if !ok || version == 0 || version > uint64(len(entries)) {
		return storage.Entry{}, storage.ErrNotFound
	}
	return cloneEntry(entries[version-1]), nil
}

func cloneEntry(e storage.Entry) storage.Entry {
	return storage.Entry{
		Key:   append([]byte(nil), e.Key...),
		Value: append([]byte(nil), e.Value...),
	}
}
