package storage

import (
	"errors"

	"github.com/ipfs/go-cid"

	"xdao.co/nameres/address"
)

// Tiered routes all writes and versioned reads to Primary, and lets blob
// reads fall back across Fallbacks in slice order.
//
// Hydration order is the slice order; callers MUST supply a fixed order.
// This avoids map-iteration nondeterminism and makes the retrieval strategy explicit.
type Tiered struct {
	Primary   Store
	Fallbacks []CAS
}

var _ Store = Tiered{}

func (t Tiered) Put(bytes []byte) (cid.Cid, error) {
	if t.Primary == nil {
		return cid.Undef, errors.New("storage: Tiered has no primary store")
	}
	return t.Primary.Put(bytes)
}

func (t Tiered) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range t.adapters() {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (t Tiered) Has(id cid.Cid) bool {
	for _, cas := range t.adapters() {
		if cas.Has(id) {
			return true
		}
	}
	return false
}

func (t Tiered) PutVersioned(initial []Entry, addr *address.Address, tag uint64) (address.Address, error) {
	if t.Primary == nil {
		return address.Zero, errors.New("storage: Tiered has no primary store")
	}
	return t.Primary.PutVersioned(initial, addr, tag)
}

func (t Tiered) AppendVersioned(entry Entry, version uint64, addr address.Address, tag uint64) error {
	if t.Primary == nil {
		return errors.New("storage: Tiered has no primary store")
	}
	return t.Primary.AppendVersioned(entry, version, addr, tag)
}

func (t Tiered) GetLatestVersioned(addr address.Address, tag uint64) (uint64, Entry, error) {
	if t.Primary == nil {
		return 0, Entry{}, ErrNotFound
	}
	return t.Primary.GetLatestVersioned(addr, tag)
}

func (t Tiered) GetVersioned(addr address.Address, tag uint64, version uint64) (Entry, error) {
	if t.Primary == nil {
		return Entry{}, ErrNotFound
	}
	return t.Primary.GetVersioned(addr, tag, version)
}

func (t Tiered) adapters() []CAS {
	out := make([]CAS, 0, 1+len(t.Fallbacks))
	if t.Primary != nil {
		out = append(out, t.Primary)
	}
	for _, f := range t.Fallbacks {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
