// Package ipfs reads and writes immutable blobs through the local Kubo
// "ipfs" command. It holds no versioned containers, so it is only usable as
// a blob fallback behind a full store.
//
// No daemon is needed: the command operates on the local repo. Every block
// read back is checked against its CID; reaching a block is not proof that
// it is the right one.
package ipfs

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/storage"
)

// Blobs implements storage.CAS on top of the ipfs command.
type Blobs struct {
	bin string
	env []string
}

var _ storage.CAS = (*Blobs)(nil)

type Options struct {
	// Bin is the ipfs executable. Empty means "ipfs" on PATH.
	Bin string
	// Env replaces the command environment when non-nil (e.g. to set
	// IPFS_PATH).
	Env []string
}

func New(opts Options) *Blobs {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &Blobs{bin: bin, env: opts.Env}
}

// Put stores data as a raw block with CIDv1 raw/sha2-256 parameters, so the
// CID ipfs reports must equal the one computed locally.
func (b *Blobs) Put(data []byte) (cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}

	out, err := b.exec(data,
		"block", "put",
		"--quiet",
		"--format=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"--cid-version=1",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if !got.Equals(want) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return want, nil
}

func (b *Blobs) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	out, err := b.exec(nil, "block", "get", id.String())
	if err != nil {
		if notFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	got, err := cidutil.CIDv1RawSHA256CID(out)
	if err != nil {
		return nil, err
	}
	if !got.Equals(id) {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (b *Blobs) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := b.exec(nil, "block", "stat", "--offline", id.String())
	return err == nil
}

func (b *Blobs) exec(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(b.bin, args...)
	if b.env != nil {
		cmd.Env = b.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if msg := strings.TrimSpace(string(ee.Stderr)); msg != "" {
			return nil, fmt.Errorf("ipfs: %s", msg)
		}
		return nil, fmt.Errorf("ipfs: %v", err)
	}
	return nil, err
}

func notFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
