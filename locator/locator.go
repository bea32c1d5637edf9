// Package locator encodes content addresses as shareable strings.
//
// A locator string has the form
//
//	xdao://[subname.]*<header>[/path][?v=<version>]
//
// where <header> is a multibase encoding of a fixed 44-byte binary header:
//
//	offset  size  field
//	0       1     format version (1)
//	1       2     content kind, big-endian
//	3       1     data kind
//	4       32    address
//	36      8     version tag, big-endian
//
// The multibase prefix makes the header self-describing, so any supported
// base decodes without out-of-band configuration.
package locator

import (
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/multiformats/go-multibase"

	"xdao.co/nameres/address"
)

const (
	Scheme = "xdao"

	// SchemePrefix is prepended to every encoded locator.
	SchemePrefix = Scheme + "://"

	FormatVersion byte = 1

	HeaderSize = 1 + 2 + 1 + address.Size + 8
)

// DefaultBase is used when a Locator carries no base of its own.
const DefaultBase multibase.Encoding = multibase.Base32

var bases = map[string]multibase.Encoding{
	"base32":    multibase.Base32,
	"base36":    multibase.Base36,
	"base58btc": multibase.Base58BTC,
	"base64url": multibase.Base64url,
}

// ParseBase maps a base name ("base32", "base36", "base58btc", "base64url")
// to its multibase encoding.
func ParseBase(name string) (multibase.Encoding, error) {
	enc, ok := bases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("locator: unsupported base %q", name)
	}
	return enc, nil
}

// BaseName is the inverse of ParseBase. Unsupported encodings return "".
func BaseName(enc multibase.Encoding) string {
	for name, e := range bases {
		if e == enc {
			return name
		}
	}
	return ""
}

func supportedBase(enc multibase.Encoding) bool { return BaseName(enc) != "" }

// Locator is the structured form of a locator string.
type Locator struct {
	Address     address.Address
	VersionTag  uint64
	DataKind    DataKind
	ContentKind ContentKind

	// Path is kept verbatim, including its leading slash. See CheckPath.
	Path string

	// Subnames are ordered outermost-first, as written.
	Subnames []string

	// ContentVersion selects a specific version of versioned content.
	// Nil means latest.
	ContentVersion *uint64

	// Base is the multibase used by String. Decode records the base it saw.
	Base multibase.Encoding
}

// New returns a Locator with no path, subnames or content version, using
// DefaultBase.
func New(addr address.Address, versionTag uint64, dataKind DataKind, contentKind ContentKind) Locator {
	return Locator{
		Address:     addr,
		VersionTag:  versionTag,
		DataKind:    dataKind,
		ContentKind: contentKind,
		Base:        DefaultBase,
	}
}

// Encode builds a locator string from its parts.
func Encode(addr address.Address, versionTag uint64, dataKind DataKind, contentKind ContentKind, path string, subnames []string, base multibase.Encoding) (string, error) {
	l := New(addr, versionTag, dataKind, contentKind)
	l.Path = path
	l.Subnames = subnames
	l.Base = base
	return l.Encode()
}

// Encode renders l using its own path.
func (l Locator) Encode() (string, error) {
	return l.EncodeWithPath(l.Path)
}

// EncodeWithPath renders l with path in place of l.Path. Address, tags,
// subnames and content version are unchanged.
func (l Locator) EncodeWithPath(path string) (string, error) {
	if !l.DataKind.Valid() {
		return "", fmt.Errorf("locator: unknown data kind 0x%02x", uint8(l.DataKind))
	}
	if !l.ContentKind.Valid() {
		return "", fmt.Errorf("locator: unknown content kind 0x%04x", uint16(l.ContentKind))
	}
	base := l.Base
	if !supportedBase(base) {
		base = DefaultBase
	}
	header, err := multibase.Encode(base, l.header())
	if err != nil {
		return "", fmt.Errorf("locator: encode header: %w", err)
	}

	var b strings.Builder
	b.WriteString(SchemePrefix)
	for _, s := range l.Subnames {
		if err := CheckSubname(s); err != nil {
			return "", err
		}
		b.WriteString(s)
		b.WriteByte('.')
	}
	b.WriteString(header)
	if err := CheckPath(path); err != nil {
		return "", err
	}
	b.WriteString(path)
	if l.ContentVersion != nil {
		b.WriteString("?v=")
		b.WriteString(strconv.FormatUint(*l.ContentVersion, 10))
	}
	return b.String(), nil
}

// String renders l, or a diagnostic placeholder if l cannot be encoded.
func (l Locator) String() string {
	s, err := l.Encode()
	if err != nil {
		return "<invalid locator: " + err.Error() + ">"
	}
	return s
}

// WithPath returns a copy of l with a different path.
func (l Locator) WithPath(path string) Locator {
	l.Subnames = append([]string(nil), l.Subnames...)
	l.Path = path
	return l
}

// WithoutVersion returns a copy of l that refers to the latest version.
func (l Locator) WithoutVersion() Locator {
	l.Subnames = append([]string(nil), l.Subnames...)
	l.ContentVersion = nil
	return l
}

// WithoutSubnames returns a copy of l addressing the container itself.
func (l Locator) WithoutSubnames() Locator {
	l.Subnames = nil
	return l
}

// Equal compares the structural fields. Base is ignored; a nil and an empty
// subname list are equal.
func (l Locator) Equal(o Locator) bool {
	if l.Address != o.Address || l.VersionTag != o.VersionTag ||
		l.DataKind != o.DataKind || l.ContentKind != o.ContentKind || l.Path != o.Path {
		return false
	}
	if len(l.Subnames) != len(o.Subnames) {
		return false
	}
	for i := range l.Subnames {
		if l.Subnames[i] != o.Subnames[i] {
			return false
		}
	}
	switch {
	case l.ContentVersion == nil && o.ContentVersion == nil:
		return true
	case l.ContentVersion == nil || o.ContentVersion == nil:
		return false
	default:
		return *l.ContentVersion == *o.ContentVersion
	}
}

// IsResolutionMap reports whether l addresses a resolution map container.
func (l Locator) IsResolutionMap() bool {
	return l.ContentKind == ContentKindResolutionMap
}

func (l Locator) header() []byte {
	h := make([]byte, HeaderSize)
	h[0] = FormatVersion
	binary.BigEndian.PutUint16(h[1:3], uint16(l.ContentKind))
	h[3] = byte(l.DataKind)
	copy(h[4:4+address.Size], l.Address[:])
	binary.BigEndian.PutUint64(h[4+address.Size:], l.VersionTag)
	return h
}

// Decode parses a locator string. Any failure is a *DecodeError.
func Decode(s string) (Locator, error) {
	var l Locator

	rest, ok := cutScheme(s)
	if !ok {
		return l, decodeError(s, "missing "+SchemePrefix+" scheme", nil)
	}

	host := rest
	tail := ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		host, tail = rest[:i], rest[i:]
	}
	if host == "" {
		return l, decodeError(s, "empty host", nil)
	}

	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" {
			return l, decodeError(s, "empty label", nil)
		}
	}
	for _, label := range labels[:len(labels)-1] {
		if err := CheckSubname(label); err != nil {
			return l, decodeError(s, "bad subname", err)
		}
	}

	enc, header, err := multibase.Decode(labels[len(labels)-1])
	if err != nil {
		return l, decodeError(s, "header is not multibase", err)
	}
	if !supportedBase(enc) {
		return l, decodeError(s, fmt.Sprintf("unsupported base %q", multibase.EncodingToStr[enc]), nil)
	}
	if len(header) < HeaderSize {
		return l, decodeError(s, fmt.Sprintf("header is %d bytes, want %d", len(header), HeaderSize), nil)
	}
	if len(header) > HeaderSize {
		return l, decodeError(s, fmt.Sprintf("header has %d trailing bytes", len(header)-HeaderSize), nil)
	}
	if header[0] != FormatVersion {
		return l, decodeError(s, fmt.Sprintf("unknown format version %d", header[0]), nil)
	}

	l.ContentKind = ContentKind(binary.BigEndian.Uint16(header[1:3]))
	if !l.ContentKind.Valid() {
		return Locator{}, decodeError(s, fmt.Sprintf("unknown content kind 0x%04x", uint16(l.ContentKind)), nil)
	}
	l.DataKind = DataKind(header[3])
	if !l.DataKind.Valid() {
		return Locator{}, decodeError(s, fmt.Sprintf("unknown data kind 0x%02x", header[3]), nil)
	}
	copy(l.Address[:], header[4:4+address.Size])
	l.VersionTag = binary.BigEndian.Uint64(header[4+address.Size:])
	l.Base = enc

	if len(labels) > 1 {
		l.Subnames = append([]string(nil), labels[:len(labels)-1]...)
	}

	path, rawQuery, _ := strings.Cut(tail, "?")
	if err := CheckPath(path); err != nil {
		return Locator{}, decodeError(s, "bad path", err)
	}
	l.Path = path
	if rawQuery != "" {
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return Locator{}, decodeError(s, "malformed query", err)
		}
		if v := q.Get("v"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Locator{}, decodeError(s, "malformed content version", err)
			}
			l.ContentVersion = &n
		}
	}
	return l, nil
}

// HasScheme reports whether s starts with the locator scheme.
func HasScheme(s string) bool {
	_, ok := cutScheme(s)
	return ok
}

// TrimScheme removes every occurrence of the scheme prefix. Only ASCII case
// is folded, so byte offsets in s are never shifted.
func TrimScheme(s string) string {
	for {
		i := indexScheme(s)
		if i < 0 {
			return s
		}
		s = s[:i] + s[i+len(SchemePrefix):]
	}
}

func indexScheme(s string) int {
	for i := 0; i+len(SchemePrefix) <= len(s); i++ {
		if hasSchemeAt(s, i) {
			return i
		}
	}
	return -1
}

func hasSchemeAt(s string, i int) bool {
	for j := 0; j < len(SchemePrefix); j++ {
		c := s[i+j]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != SchemePrefix[j] {
			return false
		}
	}
	return true
}

func cutScheme(s string) (string, bool) {
	if len(s) < len(SchemePrefix) || !hasSchemeAt(s, 0) {
		return "", false
	}
	return s[len(SchemePrefix):], true
}

// CheckSubname reports whether s can be written as a subname label.
func CheckSubname(s string) error {
	if s == "" {
		return fmt.Errorf("locator: empty subname")
	}
	if strings.ContainsAny(s, "./?#") {
		return fmt.Errorf("locator: invalid subname %q", s)
	}
	return nil
}

// CheckPath reports whether path can be written after the header. A path is
// empty or starts with "/", and never contains "?" or "#".
func CheckPath(path string) error {
	if path == "" {
		return nil
	}
	if path[0] != '/' {
		return fmt.Errorf("locator: path %q does not start with /", path)
	}
	if strings.ContainsAny(path, "?#") {
		return fmt.Errorf("locator: invalid path %q", path)
	}
	return nil
}
