package testkit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/nameres/address"
	"xdao.co/nameres/storage"
)

// NewVersioned constructs a fresh, empty VersionedStore for a test.
type NewVersioned func(t *testing.T) storage.VersionedStore

const testTag = 1500

func entry(v string) storage.Entry {
	return storage.Entry{Key: []byte("k-" + v), Value: []byte(v)}
}

func RunVersionedConformance(t *testing.T, newStore NewVersioned) {
	t.Helper()

	t.Run("MissingContainer", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("missing")
		_, _, err := s.GetLatestVersioned(addr, testTag)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetVersioned(addr, testTag, 1)
		require.ErrorIs(t, err, storage.ErrNotFound)
		err = s.AppendVersioned(entry("x"), 1, addr, testTag)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("EmptyContainer", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("empty")
		got, err := s.PutVersioned(nil, &addr, testTag)
		require.NoError(t, err)
		require.Equal(t, addr, got)

		_, _, err = s.GetLatestVersioned(addr, testTag)
		require.ErrorIs(t, err, storage.ErrEmptyContent)

		require.NoError(t, s.AppendVersioned(entry("first"), 1, addr, testTag))
		v, e, err := s.GetLatestVersioned(addr, testTag)
		require.NoError(t, err)
		require.Equal(t, uint64(1), v)
		require.Equal(t, []byte("first"), e.Value)
	})

	t.Run("PutThenAppendConsecutive", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("consecutive")
		_, err := s.PutVersioned([]storage.Entry{entry("v1")}, &addr, testTag)
		require.NoError(t, err)

		for v := uint64(2); v <= 5; v++ {
			require.NoError(t, s.AppendVersioned(entry(string(rune('0'+v))), v, addr, testTag))
			latest, _, err := s.GetLatestVersioned(addr, testTag)
			require.NoError(t, err)
			require.Equal(t, v, latest)
		}

		e, err := s.GetVersioned(addr, testTag, 1)
		require.NoError(t, err)
		require.Equal(t, entry("v1"), e)
		_, err = s.GetVersioned(addr, testTag, 0)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetVersioned(addr, testTag, 6)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("AppendRejectsWrongVersion", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("conflict")
		_, err := s.PutVersioned([]storage.Entry{entry("v1")}, &addr, testTag)
		require.NoError(t, err)

		require.ErrorIs(t, s.AppendVersioned(entry("stale"), 1, addr, testTag), storage.ErrVersionConflict)
		require.ErrorIs(t, s.AppendVersioned(entry("gap"), 3, addr, testTag), storage.ErrVersionConflict)
		require.NoError(t, s.AppendVersioned(entry("v2"), 2, addr, testTag))
		require.ErrorIs(t, s.AppendVersioned(entry("again"), 2, addr, testTag), storage.ErrVersionConflict)
	})

	t.Run("PutRejectsExisting", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("exists")
		_, err := s.PutVersioned(nil, &addr, testTag)
		require.NoError(t, err)
		_, err = s.PutVersioned([]storage.Entry{entry("x")}, &addr, testTag)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)

		// Another tag at the same address is a different container.
		_, err = s.PutVersioned(nil, &addr, testTag+1)
		require.NoError(t, err)
	})

	t.Run("PutChoosesAddress", func(t *testing.T) {
		s := newStore(t)
		a, err := s.PutVersioned([]storage.Entry{entry("x")}, nil, testTag)
		require.NoError(t, err)
		require.False(t, a.IsZero())
		v, _, err := s.GetLatestVersioned(a, testTag)
		require.NoError(t, err)
		require.Equal(t, uint64(1), v)
	})

	t.Run("RacingAppendsOneWins", func(t *testing.T) {
		s := newStore(t)
		addr := address.HashName("race")
		_, err := s.PutVersioned([]storage.Entry{entry("v1")}, &addr, testTag)
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.AppendVersioned(entry("racer"), 2, addr, testTag)
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, storage.ErrVersionConflict)
		}
		require.Equal(t, 1, wins)
	})

	// Appends racing a create must never cost the creator, or an
	// acknowledged appender, its entry.
	t.Run("CreateRacesAppend", func(t *testing.T) {
		s := newStore(t)
		for round := 0; round < 20; round++ {
			addr := address.HashName("create-race-" + string(rune('a'+round)))

			const appenders = 4
			var wg sync.WaitGroup
			var putErr error
			appendErrs := make([]error, appenders)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, putErr = s.PutVersioned([]storage.Entry{entry("created")}, &addr, testTag)
			}()
			for i := 0; i < appenders; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					appendErrs[i] = s.AppendVersioned(entry("appended"), 1, addr, testTag)
				}(i)
			}
			wg.Wait()

			require.NoError(t, putErr)
			for _, err := range appendErrs {
				require.Error(t, err)
				require.True(t, storage.IsNotFound(err) || storage.IsVersionConflict(err), err)
			}
			v, e, err := s.GetLatestVersioned(addr, testTag)
			require.NoError(t, err)
			require.Equal(t, uint64(1), v)
			require.Equal(t, entry("created"), e)
		}
	})
}
