package localfs

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"xdao.co/nameres/address"
	"xdao.co/nameres/codec"
	"xdao.co/nameres/storage"
)

const (
	blobsDir      = "blobs"
	containersDir = "containers"

	tmpPrefix  = ".tmp-"
	markerFile = ".container"
)

func (s *Store) containerDir(addr address.Address, tag uint64) string {
	return filepath.Join(s.root, containersDir, storage.ContainerID{Address: addr, Tag: tag}.String())
}

func versionFile(dir string, version uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%020d", version))
}

// PutVersioned builds the container in a staging directory and renames it
// into place, so no other caller sees it before its initial entries exist.
// The marker file keeps every published container directory non-empty, which
// makes the rename fail when the container already exists.
func (s *Store) PutVersioned(initial []storage.Entry, addr *address.Address, tag uint64) (address.Address, error) {
	var a address.Address
	if addr != nil {
		a = *addr
	} else if _, err := rand.Read(a[:]); err != nil {
		return address.Zero, err
	}

	dir := s.containerDir(a, tag)
	if _, err := os.Stat(dir); err == nil {
		return address.Zero, storage.ErrAlreadyExists
	}

	staging := filepath.Join(s.root, containersDir, tmpPrefix+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return address.Zero, err
	}
	defer os.RemoveAll(staging)

	if err := os.WriteFile(filepath.Join(staging, markerFile), nil, 0o444); err != nil {
		return address.Zero, err
	}
	for i, e := range initial {
		if err := s.writeVersion(staging, uint64(i+1), e); err != nil {
			return address.Zero, err
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		if os.IsExist(err) {
			return address.Zero, storage.ErrAlreadyExists
		}
		return address.Zero, err
	}
	return a, nil
}

func (s *Store) AppendVersioned(entry storage.Entry, version uint64, addr address.Address, tag uint64) error {
	dir := s.containerDir(addr, tag)
	latest, err := scanLatest(dir)
	if err != nil {
		return err
	}
	if version != latest+1 {
		return storage.ErrVersionConflict
	}
	return s.writeVersion(dir, version, entry)
}

// writeVersion stages the entry in a temp file and hard-links it into place.
// The link fails if the version file already exists, so only one writer can
// claim a given version.
func (s *Store) writeVersion(dir string, version uint64, entry storage.Entry) error {
	data, err := codec.Marshal(entry)
	if err != nil {
		return err
	}

	tmp := filepath.Join(dir, tmpPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return err
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Link(tmp, versionFile(dir, version)); err != nil {
		if os.IsExist(err) {
			return storage.ErrVersionConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetLatestVersioned(addr address.Address, tag uint64) (uint64, storage.Entry, error) {
	dir := s.containerDir(addr, tag)
	v, err, _ := s.heads.Do(dir, func() (interface{}, error) {
		return scanLatest(dir)
	})
	if err != nil {
		return 0, storage.Entry{}, err
	}
	latest := v.(uint64)
	if latest == 0 {
		return 0, storage.Entry{}, storage.ErrEmptyContent
	}
	e, err := readVersion(dir, latest)
	if err != nil {
		return 0, storage.Entry{}, err
	}
	return latest, e, nil
}

func (s *Store) GetVersioned(addr address.Address, tag uint64, version uint64) (storage.Entry, error) {
	if version == 0 {
		return storage.Entry{}, storage.ErrNotFound
	}
	return readVersion(s.containerDir(addr, tag), version)
}

// scanLatest returns the highest version present in dir, or 0 for an empty
// container. Staged temp files are ignored.
func scanLatest(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}
	var latest uint64
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || e.IsDir() {
			continue
		}
		v, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("localfs: unexpected file %q in %s", name, dir)
		}
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}

func readVersion(dir string, version uint64) (storage.Entry, error) {
	data, err := os.ReadFile(versionFile(dir, version))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Entry{}, storage.ErrNotFound
		}
		return storage.Entry{}, err
	}
	var e storage.Entry
	if err := codec.Unmarshal(data, &e); err != nil {
		return storage.Entry{}, fmt.Errorf("localfs: decode version %d: %w", version, err)
	}
	return e, nil
}
