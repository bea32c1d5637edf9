// Package bundle moves blobs and versioned container history between stores
// as a deterministic TAR archive.
//
// Layout:
//
//	blocks/<cid>                  blob bytes
//	containers/<address>-<tag>    CBOR array of every version's entry, oldest first
//	index.json                    optional, non-authoritative summary
//
// The archive may be wrapped in zstd or lz4; Import detects either.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/nameres/address"
	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/codec"
	"xdao.co/nameres/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

var epoch0 = time.Unix(0, 0).UTC()

// ErrDiverged means an imported container's history disagrees with the
// history already held by the destination store.
var ErrDiverged = errors.New("bundle: container history diverges")

// Contents selects what Export writes.
type Contents struct {
	Blobs      []cid.Cid
	Containers []storage.ContainerID
}

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
	Compression  Compression
}

// Export writes a deterministic bundle holding the requested blobs and the
// full history of the requested containers.
//
// The bundle bytes are deterministic: entry order is lexicographic and TAR headers are normalized.
// All exported blob bytes are validated against their CIDs.
func Export(w io.Writer, s storage.Store, contents Contents, opts ExportOptions) error {
	if s == nil {
		return fmt.Errorf("bundle: nil store")
	}
	cw, err := compressWriter(w, opts.Compression)
	if err != nil {
		return err
	}
	if err := writeArchive(cw, s, contents, opts); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

func writeArchive(w io.Writer, s storage.Store, contents Contents, opts ExportOptions) error {
	tw := tar.NewWriter(w)
	idx := indexJSON{Version: FormatVersion, CIDCodec: "raw", Multihash: "sha2-256"}

	blobs := make(map[string]cid.Cid, len(contents.Blobs))
	for _, id := range contents.Blobs {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		blobs[id.String()] = id
	}
	for _, key := range sortedKeys(blobs) {
		id := blobs[key]
		b, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("bundle: blob %s: %w", key, err)
		}
		got, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			return err
		}
		if !got.Equals(id) {
			return storage.ErrCIDMismatch
		}
		if err := writeFile(tw, "blocks/"+key, b); err != nil {
			return err
		}
		idx.Blocks = append(idx.Blocks, indexBlock{CID: key, Size: len(b)})
	}

	containers := make(map[string]storage.ContainerID, len(contents.Containers))
	for _, c := range contents.Containers {
		containers[c.String()] = c
	}
	for _, key := range sortedKeys(containers) {
		c := containers[key]
		history, err := readHistory(s, c)
		if err != nil {
			return fmt.Errorf("bundle: container %s: %w", key, err)
		}
		b, err := codec.Marshal(history)
		if err != nil {
			return err
		}
		if err := writeFile(tw, "containers/"+key, b); err != nil {
			return err
		}
		idx.Containers = append(idx.Containers, indexContainer{ID: key, Versions: len(history)})
	}

	if opts.IncludeIndex {
		b, err := marshalCanonicalIndexJSON(idx)
		if err != nil {
			return err
		}
		if err := writeFile(tw, "index.json", b); err != nil {
			return err
		}
	}
	return tw.Close()
}

// readHistory returns every version of c, oldest first. An empty container
// yields an empty, non-nil slice.
func readHistory(s storage.VersionedStore, c storage.ContainerID) ([]storage.Entry, error) {
	latest, _, err := s.GetLatestVersioned(c.Address, c.Tag)
	if storage.IsEmptyContent(err) {
		return []storage.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	history := make([]storage.Entry, 0, latest)
	for v := uint64(1); v <= latest; v++ {
		e, err := s.GetVersioned(c.Address, c.Tag, v)
		if err != nil {
			return nil, fmt.Errorf("version %d: %w", v, err)
		}
		history = append(history, e)
	}
	return history, nil
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r into s and reports what it wrote.
//
// Blobs are validated against both the filename CID and the computed CID.
// A container missing from s is created with the bundled history. A
// container already present must hold a prefix of the bundled history; the
// missing versions are appended. Anything else fails with ErrDiverged.
func Import(r io.Reader, s storage.Store, opts ImportOptions) (Contents, error) {
	var out Contents
	if s == nil {
		return out, fmt.Errorf("bundle: nil store")
	}
	dr, err := decompressReader(r)
	if err != nil {
		return out, err
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	seen := map[string]struct{}{}

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		// Non-authoritative metadata.
		if name == "index.json" {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if _, ok := seen[name]; ok {
			return out, fmt.Errorf("bundle: duplicate entry: %s", name)
		}
		seen[name] = struct{}{}

		switch {
		case strings.HasPrefix(name, "blocks/"):
			id, err := importBlob(tr, s, strings.TrimPrefix(name, "blocks/"))
			if err != nil {
				return out, err
			}
			out.Blobs = append(out.Blobs, id)
		case strings.HasPrefix(name, "containers/"):
			c, err := importContainer(tr, s, strings.TrimPrefix(name, "containers/"))
			if err != nil {
				return out, err
			}
			out.Containers = append(out.Containers, c)
		default:
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return out, fmt.Errorf("bundle: unknown entry: %s", name)
		}
	}
}

func importBlob(r io.Reader, s storage.CAS, cidStr string) (cid.Cid, error) {
	id, err := cid.Decode(cidStr)
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return cid.Undef, err
	}
	got, err := cidutil.CIDv1RawSHA256CID(payload)
	if err != nil {
		return cid.Undef, err
	}
	if !got.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	putID, err := s.Put(payload)
	if err != nil {
		return cid.Undef, err
	}
	if !putID.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func importContainer(r io.Reader, s storage.VersionedStore, key string) (storage.ContainerID, error) {
	c, err := parseContainerID(key)
	if err != nil {
		return c, err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return c, err
	}
	var history []storage.Entry
	if err := codec.UnmarshalStrict(payload, &history); err != nil {
		return c, fmt.Errorf("bundle: container %s: %w", key, err)
	}

	_, err = s.PutVersioned(history, &c.Address, c.Tag)
	if err == nil {
		return c, nil
	}
	if !storage.IsAlreadyExists(err) {
		return c, err
	}

	existing, err := readHistory(s, c)
	if err != nil {
		return c, err
	}
	if len(existing) > len(history) {
		return c, fmt.Errorf("%w: %s holds %d versions, bundle has %d", ErrDiverged, key, len(existing), len(history))
	}
	for i, e := range existing {
		if !bytes.Equal(e.Key, history[i].Key) || !bytes.Equal(e.Value, history[i].Value) {
			return c, fmt.Errorf("%w: %s at version %d", ErrDiverged, key, i+1)
		}
	}
	for i := len(existing); i < len(history); i++ {
		if err := s.AppendVersioned(history[i], uint64(i+1), c.Address, c.Tag); err != nil {
			return c, err
		}
	}
	return c, nil
}

// parseContainerID is the inverse of storage.ContainerID.String.
func parseContainerID(s string) (storage.ContainerID, error) {
	hexAddr, tagStr, ok := strings.Cut(s, "-")
	if !ok {
		return storage.ContainerID{}, fmt.Errorf("bundle: invalid container name %q", s)
	}
	addr, err := address.Parse(hexAddr)
	if err != nil {
		return storage.ContainerID{}, fmt.Errorf("bundle: invalid container name %q: %w", s, err)
	}
	tag, err := strconv.ParseUint(tagStr, 10, 64)
	if err != nil {
		return storage.ContainerID{}, fmt.Errorf("bundle: invalid container name %q: %w", s, err)
	}
	return storage.ContainerID{Address: addr, Tag: tag}, nil
}

type indexJSON struct {
	Version    int              `json:"version"`
	CIDCodec   string           `json:"cidCodec"`
	Multihash  string           `json:"multihash"`
	Blocks     []indexBlock     `json:"blocks"`
	Containers []indexContainer `json:"containers"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexContainer struct {
	ID       string `json:"id"`
	Versions int    `json:"versions"`
}

func marshalCanonicalIndexJSON(idx indexJSON) ([]byte, error) {
	// indexJSON is composed only of structs + slices; encoding/json will be deterministic.
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
