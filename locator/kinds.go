package locator

import (
	"fmt"
	"sort"
)

// DataKind says how the addressed object is stored. The numeric values are
// part of the header format and must never be renumbered.
type DataKind uint8

const (
	DataKindKey                          DataKind = 0x00
	DataKindImmutableBlob                DataKind = 0x01
	DataKindPrivateImmutableBlob         DataKind = 0x02
	DataKindMutableMap                   DataKind = 0x03
	DataKindUnsequencedMutableMap        DataKind = 0x04
	DataKindVersionedAppendOnly          DataKind = 0x05
	DataKindUnversionedAppendOnly        DataKind = 0x06
	DataKindPrivateVersionedAppendOnly   DataKind = 0x07
	DataKindPrivateUnversionedAppendOnly DataKind = 0x08
)

var dataKindNames = map[DataKind]string{
	DataKindKey:                          "key",
	DataKindImmutableBlob:                "immutable-blob",
	DataKindPrivateImmutableBlob:         "private-immutable-blob",
	DataKindMutableMap:                   "mutable-map",
	DataKindUnsequencedMutableMap:        "unsequenced-mutable-map",
	DataKindVersionedAppendOnly:          "versioned-append-only",
	DataKindUnversionedAppendOnly:        "unversioned-append-only",
	DataKindPrivateVersionedAppendOnly:   "private-versioned-append-only",
	DataKindPrivateUnversionedAppendOnly: "private-unversioned-append-only",
}

func (k DataKind) Valid() bool {
	_, ok := dataKindNames[k]
	return ok
}

func (k DataKind) String() string {
	if name, ok := dataKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("data-kind(0x%02x)", uint8(k))
}

// ParseDataKind looks up a DataKind by its String form.
func ParseDataKind(name string) (DataKind, error) {
	for k, n := range dataKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("locator: unknown data kind %q", name)
}

// ContentKind says how the addressed bytes are to be interpreted.
// Values from 0x0100 up are media types.
type ContentKind uint16

const (
	ContentKindRaw            ContentKind = 0x0000
	ContentKindWallet         ContentKind = 0x0001
	ContentKindFilesContainer ContentKind = 0x0002
	ContentKindResolutionMap  ContentKind = 0x0003
)

const mediaKindBase ContentKind = 0x0100

// Media types, in header order. Append only.
var mediaTypes = []string{
	"text/html",
	"text/plain",
	"text/css",
	"application/javascript",
	"application/json",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/svg+xml",
	"video/mp4",
	"audio/mpeg",
	"application/pdf",
}

var contentKindNames = map[ContentKind]string{
	ContentKindRaw:            "raw",
	ContentKindWallet:         "wallet",
	ContentKindFilesContainer: "files-container",
	ContentKindResolutionMap:  "resolution-map",
}

// MediaKind returns the ContentKind for a media type.
func MediaKind(mediaType string) (ContentKind, bool) {
	for i, mt := range mediaTypes {
		if mt == mediaType {
			return mediaKindBase + ContentKind(i), true
		}
	}
	return 0, false
}

// MediaType returns the media type of a media ContentKind, or "" for the
// structural kinds.
func (k ContentKind) MediaType() string {
	if k < mediaKindBase {
		return ""
	}
	i := int(k - mediaKindBase)
	if i >= len(mediaTypes) {
		return ""
	}
	return mediaTypes[i]
}

func (k ContentKind) Valid() bool {
	if _, ok := contentKindNames[k]; ok {
		return true
	}
	return k.MediaType() != ""
}

func (k ContentKind) String() string {
	if name, ok := contentKindNames[k]; ok {
		return name
	}
	if mt := k.MediaType(); mt != "" {
		return mt
	}
	return fmt.Sprintf("content-kind(0x%04x)", uint16(k))
}

// ParseContentKind accepts a structural kind name or a known media type.
func ParseContentKind(name string) (ContentKind, error) {
	for k, n := range contentKindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := MediaKind(name); ok {
		return k, nil
	}
	return 0, fmt.Errorf("locator: unknown content kind %q", name)
}

// ContentKindNames lists every accepted content kind name, sorted.
func ContentKindNames() []string {
	out := make([]string, 0, len(contentKindNames)+len(mediaTypes))
	for _, n := range contentKindNames {
		out = append(out, n)
	}
	out = append(out, mediaTypes...)
	sort.Strings(out)
	return out
}
