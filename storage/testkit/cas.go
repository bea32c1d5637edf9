// Package testkit holds conformance suites that every storage backend runs.
package testkit

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, nameres storage")

		id, err := cas.Put(want)
		require.NoError(t, err)
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		require.NoError(t, err)
		require.Equal(t, wantID, id)

		got, err := cas.Get(id)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		require.NoError(t, err)
		id2, err := cas.Put(b)
		require.NoError(t, err)
		require.Equal(t, id1, id2)
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		require.NoError(t, err)

		require.False(t, cas.Has(id))
		_, err = cas.Get(id)
		require.True(t, storage.IsNotFound(err), "Get missing: got err=%v want ErrNotFound", err)

		_, err = cas.Put(b)
		require.NoError(t, err)
		require.True(t, cas.Has(id))
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		require.False(t, cas.Has(undef))
		_, err := cas.Get(undef)
		require.Error(t, err)
	})
}
