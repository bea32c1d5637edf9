package model

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/nameres/address"
	"xdao.co/nameres/locator"
	"xdao.co/nameres/namesys"
	"xdao.co/nameres/resmap"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/bundle"
)

func TestSnapshot_Map_JSONShape(t *testing.T) {
	m := resmap.New()
	_, err := m.UpdateOrCreate([]string{"www"}, "target-2", true)
	require.NoError(t, err)

	b, err := json.MarshalIndent(FromMap(2, m), "", "  ")
	require.NoError(t, err)

	const want = "{\n" +
		"  \"version\": 2,\n" +
		"  \"default\": {\n" +
		"    \"kind\": \"subname\",\n" +
		"    \"subname\": \"www\"\n" +
		"  },\n" +
		"  \"subnames\": {\n" +
		"    \"www\": \"target-2\"\n" +
		"  }\n" +
		"}"
	require.Equal(t, want, string(b))
}

func TestSnapshot_EmptyMap_JSONShape(t *testing.T) {
	b, err := json.Marshal(FromMap(0, resmap.New()))
	require.NoError(t, err)
	require.Equal(t, `{"version":0,"default":{"kind":"not-set"},"subnames":{}}`, string(b))
}

func TestFromLocator(t *testing.T) {
	l := locator.New(address.HashName("example"), 1500, locator.DataKindVersionedAppendOnly, locator.ContentKindResolutionMap)
	l.Subnames = []string{"www"}
	v := uint64(3)
	l.ContentVersion = &v

	got := FromLocator(l)
	require.Equal(t, l.String(), got.URL)
	require.Equal(t, address.HashName("example").String(), got.Address)
	require.Equal(t, "versioned-append-only", got.DataKind)
	require.Equal(t, "resolution-map", got.ContentKind)
	require.Equal(t, "base32", got.Base)
	require.Equal(t, []string{"www"}, got.Subnames)
	require.Equal(t, uint64(3), *got.ContentVersion)

	bare := FromLocator(l.WithoutSubnames().WithoutVersion())
	b, err := json.Marshal(bare)
	require.NoError(t, err)
	require.Contains(t, string(b), `"subnames":[]`)
	require.NotContains(t, string(b), "contentVersion")
}

func TestFromResult_ProcessedSorted(t *testing.T) {
	r := namesys.Result{
		Version:   1,
		Locator:   locator.New(address.HashName("x"), 1500, locator.DataKindVersionedAppendOnly, locator.ContentKindResolutionMap),
		Processed: resmap.Processed("x", resmap.ActionAdded, "link"),
		Map:       resmap.New(),
	}
	out := FromResult(r, true)
	require.True(t, out.Preview)
	require.Equal(t, []ProcessedEntry{{Name: "x", Action: "added", Link: "link"}}, out.Processed)
}

func TestCodeOf(t *testing.T) {
	cases := map[ErrorCode]error{
		ErrConflict:       &namesys.Error{Kind: namesys.KindConflict},
		ErrAlreadyExists:  &namesys.Error{Kind: namesys.KindAlreadyExists},
		ErrInvalidLocator: &locator.DecodeError{Input: "x", Reason: "bad"},
		ErrNotFound:       storage.ErrNotFound,
		ErrCIDMismatch:    storage.ErrImmutable,
		ErrInternal:       json.Unmarshal([]byte("{"), &struct{}{}),
	}
	for want, err := range cases {
		require.Equal(t, want, CodeOf(err), "%v", err)
	}
	require.Equal(t, ErrConflict, CodeOf(fmt.Errorf("import: %w", bundle.ErrDiverged)))
	require.Nil(t, FromError(nil))
	require.Equal(t, ErrConflict, FromError(&namesys.Error{Kind: namesys.KindConflict, Message: "m"}).Code)
}

func TestEncodeRequest(t *testing.T) {
	addr := address.HashName("blob")
	l, err := EncodeRequest{
		Address:     addr.String(),
		VersionTag:  9,
		DataKind:    "immutable-blob",
		ContentKind: "text/html",
		Base:        "base58btc",
		Path:        "/index.html",
	}.Encode()
	require.NoError(t, err)
	require.Equal(t, addr, l.Address)
	require.Equal(t, "text/html", l.ContentKind.MediaType())

	_, err = EncodeRequest{Address: "zz", DataKind: "key", ContentKind: "raw"}.Encode()
	require.Error(t, err)
	require.Equal(t, ErrInvalidRequest, CodeOf(err))

	_, err = EncodeRequest{Address: addr.String(), DataKind: "nope", ContentKind: "raw"}.Encode()
	require.Equal(t, ErrInvalidRequest, CodeOf(err))
}
