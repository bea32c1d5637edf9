package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/nameres/address"
	"xdao.co/nameres/model"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// storeArgs points a command at a localfs store rooted in dir.
func storeArgs(dir string, args ...string) []string {
	return append(args, "--backend", "localfs", "--localfs-dir", dir, "--log-level", "off")
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := runCLI(t, "")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "Usage:")

	code, out, _ := runCLI(t, "", "help")
	require.Equal(t, 0, code)
	require.Contains(t, out, "xdao-nrs name create")

	code, _, errOut = runCLI(t, "", "frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "unknown command: frobnicate")
}

func TestResolve_Name(t *testing.T) {
	code, out, errOut := runCLI(t, "", "resolve", "blog.alice/posts/1")
	require.Equal(t, 0, code, errOut)

	var got model.Locator
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, address.HashName("alice").String(), got.Address)
	require.Equal(t, uint64(1500), got.VersionTag)
	require.Equal(t, "resolution-map", got.ContentKind)
	require.Equal(t, []string{"blog"}, got.Subnames)
	require.Equal(t, "/posts/1", got.Path)
}

func TestResolve_BadCompliance(t *testing.T) {
	code, _, errOut := runCLI(t, "", "resolve", "--compliance", "lenient", "alice")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrInvalidRequest))
}

func TestLocator_EncodeDecode(t *testing.T) {
	addr := address.HashName("x").String()
	code, out, errOut := runCLI(t, "", "locator", "encode",
		"--address", addr, "--version-tag", "7",
		"--data-kind", "immutable-blob", "--content-kind", "text/html",
		"--base", "base58btc", "--subname", "www", "--path", "/index.html")
	require.Equal(t, 0, code, errOut)
	encoded := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(encoded, "xdao://www.z"), encoded)

	code, out, errOut = runCLI(t, "", "locator", "decode", encoded)
	require.Equal(t, 0, code, errOut)
	var got model.Locator
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, addr, got.Address)
	require.Equal(t, uint64(7), got.VersionTag)
	require.Equal(t, "immutable-blob", got.DataKind)
	require.Equal(t, "text/html", got.ContentKind)
	require.Equal(t, "base58btc", got.Base)
	require.Equal(t, []string{"www"}, got.Subnames)
	require.Equal(t, "/index.html", got.Path)
}

func TestLocator_DecodeFailure(t *testing.T) {
	code, _, errOut := runCLI(t, "", "locator", "decode", "not-a-locator")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrInvalidLocator))
}

func TestLocator_Kinds(t *testing.T) {
	code, out, _ := runCLI(t, "", "locator", "kinds")
	require.Equal(t, 0, code)
	require.Contains(t, out, "versioned-append-only")
	require.Contains(t, out, "resolution-map")
}

func TestName_Lifecycle(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, "", storeArgs(dir, "name", "create", "alice", "target-1")...)
	require.Equal(t, 0, code, errOut)
	var created model.MutationResult
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, uint64(1), created.Version)
	require.Equal(t, "target-1", created.Map.Default.Link)
	require.Equal(t, []model.ProcessedEntry{{Name: "alice", Action: "added", Link: "target-1"}}, created.Processed)

	code, _, errOut = runCLI(t, "", storeArgs(dir, "name", "create", "alice", "again")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrAlreadyExists))

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "add", "blog.alice", "target-2", "--default")...)
	require.Equal(t, 0, code, errOut)
	var added model.MutationResult
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.Equal(t, uint64(2), added.Version)
	require.Equal(t, []string{"blog"}, added.Locator.Subnames)

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "link", "alice")...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "target-2", strings.TrimSpace(out))

	// Preview leaves the store untouched.
	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "remove", "blog.alice", "--preview")...)
	require.Equal(t, 0, code, errOut)
	var preview model.MutationResult
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	require.True(t, preview.Preview)
	require.Equal(t, uint64(3), preview.Version)

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "get", "alice")...)
	require.Equal(t, 0, code, errOut)
	var m model.Map
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.Equal(t, uint64(2), m.Version)
	require.Equal(t, map[string]string{"blog": "target-2"}, m.Subnames)

	code, _, errOut = runCLI(t, "", storeArgs(dir, "name", "remove", "blog.alice")...)
	require.Equal(t, 0, code, errOut)

	// The default still points at the removed subname.
	code, _, errOut = runCLI(t, "", storeArgs(dir, "name", "link", "alice")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrEntryNotFound))

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "get", "--diag", "alice?v=2")...)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "# version 2")
	require.Contains(t, out, `"subnames": {"blog": "target-2"}`)

	// Older versions stay readable.
	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "get", "alice?v=1")...)
	require.Equal(t, 0, code, errOut)
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.Equal(t, uint64(1), m.Version)
	require.Equal(t, "target-1", m.Default.Link)
}

func TestName_Errors(t *testing.T) {
	dir := t.TempDir()

	code, _, errOut := runCLI(t, "", storeArgs(dir, "name", "add", "www.nobody", "x")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrNotFound))

	code, _, errOut = runCLI(t, "", storeArgs(dir, "name", "create", "alice/path", "x")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrInvalidRequest))

	code, _, _ = runCLI(t, "", storeArgs(dir, "name", "create")...)
	require.Equal(t, 2, code)

	code, _, errOut = runCLI(t, "", "name", "get", "alice", "--backend", "localfs", "--log-level", "off")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "localfs-dir")
}

func TestBlob_PutGet(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, "hello blob", storeArgs(dir, "blob", "put", "--content-type", "text/plain")...)
	require.Equal(t, 0, code, errOut)
	var put blobResult
	require.NoError(t, json.Unmarshal([]byte(out), &put))
	id := put.CID
	require.True(t, strings.HasPrefix(id, "bafkrei"), id)
	require.Equal(t, len("hello blob"), put.Size)

	code, out, errOut = runCLI(t, "", "locator", "decode", put.Locator)
	require.Equal(t, 0, code, errOut)
	var l model.Locator
	require.NoError(t, json.Unmarshal([]byte(out), &l))
	require.Equal(t, "immutable-blob", l.DataKind)
	require.Equal(t, "text/plain", l.ContentKind)

	// The locator reads back the same blob as the CID.
	code, out, errOut = runCLI(t, "", storeArgs(dir, "blob", "get", put.Locator)...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "hello blob", out)

	code, out, errOut = runCLI(t, "", storeArgs(dir, "blob", "get", id)...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "hello blob", out)

	dst := filepath.Join(t.TempDir(), "out.bin")
	code, _, errOut = runCLI(t, "", storeArgs(dir, "blob", "get", "-o", dst, id)...)
	require.Equal(t, 0, code, errOut)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "hello blob", string(b))

	code, _, errOut = runCLI(t, "", storeArgs(dir, "blob", "get", "not-a-cid")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, string(model.ErrInvalidRequest))

	code, out, errOut = runCLI(t, "", "resolve", "alice")
	require.Equal(t, 0, code, errOut)
	require.NoError(t, json.Unmarshal([]byte(out), &l))
	code, _, errOut = runCLI(t, "", storeArgs(dir, "blob", "get", l.URL)...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "not an immutable blob")
}

func TestName_TextFormat(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, "", storeArgs(dir, "name", "create", "www.dave", "site", "--default", "--format", "text")...)
	require.Equal(t, 0, code, errOut)
	require.True(t, strings.HasPrefix(out, "+ www.dave\tsite\n"), out)
	require.Contains(t, out, "version 1 at xdao://")

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "remove", "www.dave", "--preview", "--format", "text")...)
	require.Equal(t, 0, code, errOut)
	require.True(t, strings.HasPrefix(out, "- www.dave\tsite\n"), out)
	require.Contains(t, out, "(preview, not written)")

	code, out, errOut = runCLI(t, "", storeArgs(dir, "name", "get", "dave", "--format", "text")...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "version 1\ndefault -> www\nwww\tsite\n", out)

	code, _, errOut = runCLI(t, "", storeArgs(dir, "name", "get", "dave", "--format", "yaml")...)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "--format")
}

func TestBundle_MovesHistoryBetweenStores(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	bundlePath := filepath.Join(t.TempDir(), "alice.tar.zst")

	code, _, errOut := runCLI(t, "", storeArgs(src, "name", "create", "www.alice", "site-v1", "--default")...)
	require.Equal(t, 0, code, errOut)
	code, _, errOut = runCLI(t, "", storeArgs(src, "name", "add", "www.alice", "site-v2")...)
	require.Equal(t, 0, code, errOut)
	code, out, errOut := runCLI(t, "payload", storeArgs(src, "blob", "put")...)
	require.Equal(t, 0, code, errOut)
	var put blobResult
	require.NoError(t, json.Unmarshal([]byte(out), &put))
	blobID := put.CID

	code, _, errOut = runCLI(t, "", storeArgs(src, "bundle", "export", "-o", bundlePath,
		"--name", "alice", "--blob", blobID, "--index", "--compression", "zstd")...)
	require.Equal(t, 0, code, errOut)

	code, out, errOut = runCLI(t, "", storeArgs(dst, "bundle", "import", bundlePath)...)
	require.Equal(t, 0, code, errOut)
	var summary bundleSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Equal(t, []string{blobID}, summary.Blobs)
	require.Len(t, summary.Containers, 1)

	code, out, errOut = runCLI(t, "", storeArgs(dst, "name", "link", "www.alice")...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "site-v2", strings.TrimSpace(out))

	code, out, errOut = runCLI(t, "", storeArgs(dst, "name", "get", "alice")...)
	require.Equal(t, 0, code, errOut)
	var m model.Map
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.Equal(t, uint64(2), m.Version)

	// Re-importing the same history is a no-op.
	code, _, errOut = runCLI(t, "", storeArgs(dst, "bundle", "import", bundlePath)...)
	require.Equal(t, 0, code, errOut)
}

func TestStoreConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "stores.jsonc")
	cfg := `{
  // single local store
  "backends": [{"name": "localfs", "config": {"localfs-dir": "` + filepath.ToSlash(dir) + `"}}]
}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	code, _, errOut := runCLI(t, "", "name", "create", "carol", "dest", "--store-config", cfgPath, "--log-level", "off")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, "", storeArgs(dir, "name", "link", "carol")...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "dest", strings.TrimSpace(out))
}
