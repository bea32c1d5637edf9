package locator

import (
	"encoding/binary"
	"math/rand"
	"strings"
	"testing"

	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/require"

	"xdao.co/nameres/address"
)

func randomAddress(r *rand.Rand) address.Address {
	var a address.Address
	_, _ = r.Read(a[:])
	return a
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	dataKinds := []DataKind{DataKindKey, DataKindImmutableBlob, DataKindVersionedAppendOnly, DataKindPrivateUnversionedAppendOnly}
	contentKinds := []ContentKind{ContentKindRaw, ContentKindWallet, ContentKindResolutionMap}
	if k, ok := MediaKind("image/png"); ok {
		contentKinds = append(contentKinds, k)
	}
	paths := []string{"", "/", "/index.html", "/a/b/c.txt"}
	subnameSets := [][]string{nil, {"www"}, {"a", "b", "c"}}
	baseList := []multibase.Encoding{multibase.Base32, multibase.Base36, multibase.Base58BTC, multibase.Base64url}

	for i := 0; i < 200; i++ {
		addr := randomAddress(r)
		tag := r.Uint64()
		dk := dataKinds[r.Intn(len(dataKinds))]
		ck := contentKinds[r.Intn(len(contentKinds))]
		path := paths[r.Intn(len(paths))]
		subs := subnameSets[r.Intn(len(subnameSets))]
		base := baseList[r.Intn(len(baseList))]

		s, err := Encode(addr, tag, dk, ck, path, subs, base)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(s, SchemePrefix))

		got, err := Decode(s)
		require.NoError(t, err, s)
		require.Equal(t, addr, got.Address)
		require.Equal(t, tag, got.VersionTag)
		require.Equal(t, dk, got.DataKind)
		require.Equal(t, ck, got.ContentKind)
		require.Equal(t, path, got.Path)
		require.Equal(t, len(subs), len(got.Subnames))
		for j := range subs {
			require.Equal(t, subs[j], got.Subnames[j])
		}
		require.Equal(t, base, got.Base)

		again, err := got.Encode()
		require.NoError(t, err)
		require.Equal(t, s, again)
	}
}

func TestEncodeWithPath_OverridesOnlyPath(t *testing.T) {
	l := New(address.HashName("site"), 1500, DataKindVersionedAppendOnly, ContentKindResolutionMap)
	l.Subnames = []string{"blog"}
	l.Path = "/old"

	s, err := l.EncodeWithPath("/new/page")
	require.NoError(t, err)
	got, err := Decode(s)
	require.NoError(t, err)
	require.Equal(t, "/new/page", got.Path)
	require.True(t, got.WithPath("/old").Equal(l))

	bare, err := l.EncodeWithPath("")
	require.NoError(t, err)
	got, err = Decode(bare)
	require.NoError(t, err)
	require.Equal(t, "", got.Path)
	require.Equal(t, []string{"blog"}, got.Subnames)

	_, err = l.EncodeWithPath("rel")
	require.Error(t, err)
}

// Paths that would not survive a decode are refused instead of rewritten.
func TestEncode_RejectsPathsThatDoNotRoundTrip(t *testing.T) {
	addr := address.HashName("paths")
	for _, path := range []string{"docs/a", "/a?v=7", "/a#frag", "?"} {
		_, err := Encode(addr, 1, DataKindKey, ContentKindRaw, path, nil, multibase.Base32)
		require.Error(t, err, path)
	}

	l := New(addr, 1, DataKindKey, ContentKindRaw)
	l.Path = "/a?v=7"
	require.Contains(t, l.String(), "invalid locator")
}

func TestDecode_ContentVersionQuery(t *testing.T) {
	l := New(address.HashName("versioned"), 1500, DataKindVersionedAppendOnly, ContentKindResolutionMap)
	v := uint64(42)
	l.ContentVersion = &v
	l.Path = "/p"

	s := l.String()
	require.True(t, strings.HasSuffix(s, "/p?v=42"))

	got, err := Decode(s)
	require.NoError(t, err)
	require.NotNil(t, got.ContentVersion)
	require.Equal(t, uint64(42), *got.ContentVersion)
	require.True(t, got.Equal(l))
	require.Nil(t, got.WithoutVersion().ContentVersion)
	require.NotNil(t, got.ContentVersion)

	_, err = Decode(strings.TrimSuffix(s, "42") + "x")
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecode_SchemeIsCaseInsensitive(t *testing.T) {
	l := New(address.HashName("caps"), 9, DataKindImmutableBlob, ContentKindRaw)
	s := l.String()
	got, err := Decode("XDAO://" + strings.TrimPrefix(s, SchemePrefix))
	require.NoError(t, err)
	require.True(t, got.Equal(l))
}

func TestDecode_Failures(t *testing.T) {
	valid := New(address.HashName("x"), 1, DataKindImmutableBlob, ContentKindRaw)
	header := valid.header()

	encodeHeader := func(h []byte) string {
		s, err := multibase.Encode(multibase.Base32, h)
		require.NoError(t, err)
		return SchemePrefix + s
	}

	badVersion := append([]byte(nil), header...)
	badVersion[0] = 9

	badData := append([]byte(nil), header...)
	badData[3] = 0x7f

	badContent := append([]byte(nil), header...)
	binary.BigEndian.PutUint16(badContent[1:3], 0x00ff)

	base16, err := multibase.Encode(multibase.Base16, header)
	require.NoError(t, err)

	cases := map[string]string{
		"no scheme":         "example",
		"other scheme":      "https://example.com",
		"empty host":        SchemePrefix,
		"empty host path":   SchemePrefix + "/path",
		"empty label":       SchemePrefix + "a..b",
		"not multibase":     SchemePrefix + "example",
		"short header":      SchemePrefix + "sub.bob",
		"truncated":         encodeHeader(header[:HeaderSize-1]),
		"trailing bytes":    encodeHeader(append(append([]byte(nil), header...), 0)),
		"format version":    encodeHeader(badVersion),
		"data kind":         encodeHeader(badData),
		"content kind":      encodeHeader(badContent),
		"unsupported base":  SchemePrefix + base16,
		"double scheme":     SchemePrefix + valid.String(),
		"leading space":     " " + valid.String(),
		"fragment subname":  SchemePrefix + "a#b." + strings.TrimPrefix(valid.String(), SchemePrefix),
		"fragment path":     valid.String() + "/a#b",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(in)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrDecode)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, in, de.Input)
		})
	}
}

func TestEncode_RejectsInvalidParts(t *testing.T) {
	addr := address.HashName("x")
	_, err := Encode(addr, 1, DataKind(0xee), ContentKindRaw, "", nil, multibase.Base32)
	require.Error(t, err)
	_, err = Encode(addr, 1, DataKindKey, ContentKind(0x0fff), "", nil, multibase.Base32)
	require.Error(t, err)
	_, err = Encode(addr, 1, DataKindKey, ContentKindRaw, "", []string{"a.b"}, multibase.Base32)
	require.Error(t, err)
	_, err = Encode(addr, 1, DataKindKey, ContentKindRaw, "", []string{""}, multibase.Base32)
	require.Error(t, err)
	require.Contains(t, Locator{DataKind: 0xee}.String(), "invalid locator")
}

func TestEncode_UnsupportedBaseFallsBackToDefault(t *testing.T) {
	l := New(address.HashName("x"), 1, DataKindKey, ContentKindRaw)
	l.Base = multibase.Base16
	got, err := Decode(l.String())
	require.NoError(t, err)
	require.Equal(t, DefaultBase, got.Base)
}

func TestKinds_StableNumbers(t *testing.T) {
	require.Equal(t, uint8(5), uint8(DataKindVersionedAppendOnly))
	require.Equal(t, uint16(3), uint16(ContentKindResolutionMap))

	k, ok := MediaKind("text/html")
	require.True(t, ok)
	require.Equal(t, ContentKind(0x0100), k)
	require.Equal(t, "text/html", k.MediaType())
	require.Equal(t, "", ContentKindRaw.MediaType())

	_, ok = MediaKind("application/x-unknown")
	require.False(t, ok)

	dk, err := ParseDataKind("versioned-append-only")
	require.NoError(t, err)
	require.Equal(t, DataKindVersionedAppendOnly, dk)
	_, err = ParseDataKind("nope")
	require.Error(t, err)

	ck, err := ParseContentKind("resolution-map")
	require.NoError(t, err)
	require.Equal(t, ContentKindResolutionMap, ck)
	ck, err = ParseContentKind("image/png")
	require.NoError(t, err)
	require.Equal(t, "image/png", ck.String())
	require.Contains(t, ContentKindNames(), "files-container")
}

func TestParseBase(t *testing.T) {
	enc, err := ParseBase("Base58BTC")
	require.NoError(t, err)
	require.Equal(t, multibase.Encoding(multibase.Base58BTC), enc)
	require.Equal(t, "base58btc", BaseName(enc))
	_, err = ParseBase("base2")
	require.Error(t, err)
}

func TestTrimScheme(t *testing.T) {
	require.Equal(t, "example", TrimScheme("xdao://xdao://example"))
	require.Equal(t, "a.example", TrimScheme("XDAO://a.example"))
	require.True(t, HasScheme("xdao://x"))
	require.False(t, HasScheme("x"))
}

func TestTrimScheme_NonASCII(t *testing.T) {
	// Unicode lowercasing shrinks "İ" from two bytes to one; trimming must
	// still cut at the right offset.
	require.Equal(t, "İblog.alice", TrimScheme("İxdao://blog.alice"))
	require.Equal(t, "İ", TrimScheme("İXDAO://"))
	require.Equal(t, "ünï.çode", TrimScheme("xdao://ünï.çode"))
	require.False(t, HasScheme("İxdao://x"))
}
