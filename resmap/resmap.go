// Package resmap models one version of a public name's resolution map: a
// default entry plus a table from subname to link.
//
// A Map is a working copy. Callers fetch a version, mutate their own copy,
// and write it back as the next version; nothing here is shared between calls.
package resmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEntryNotFound      = errors.New("resmap: subname not found")
	ErrNoDefault          = errors.New("resmap: no default entry")
	ErrMissingDestination = errors.New("resmap: destination is required")
	ErrRootEntry          = errors.New("resmap: the root entry has no subname to remove")
)

// DefaultKind selects the variant held by a Default entry.
type DefaultKind uint8

const (
	DefaultNotSet DefaultKind = iota
	// DefaultSubname points at a key of the subname table.
	DefaultSubname
	// DefaultLink holds an opaque link directly.
	DefaultLink
)

func (k DefaultKind) String() string {
	switch k {
	case DefaultNotSet:
		return "not-set"
	case DefaultSubname:
		return "subname"
	case DefaultLink:
		return "link"
	default:
		return fmt.Sprintf("default-kind(%d)", uint8(k))
	}
}

// Default is the entry used when a name carries no subname.
type Default struct {
	Kind DefaultKind
	// Ref is the subname key for DefaultSubname and the link for DefaultLink.
	Ref string
}

type Map struct {
	Default  Default
	Subnames map[string]string
}

// New returns an empty map: no default, no subnames.
func New() *Map {
	return &Map{Subnames: make(map[string]string)}
}

// Key is the subname table key for a subname chain ("a", "b" -> "a.b").
func Key(subnames []string) string {
	return strings.Join(subnames, ".")
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := &Map{Default: m.Default, Subnames: make(map[string]string, len(m.Subnames))}
	for k, v := range m.Subnames {
		out.Subnames[k] = v
	}
	return out
}

func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Default != o.Default || len(m.Subnames) != len(o.Subnames) {
		return false
	}
	for k, v := range m.Subnames {
		if ov, ok := o.Subnames[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the subname keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.Subnames))
	for k := range m.Subnames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdateOrCreate sets the link for a subname chain and returns the link now
// associated with it.
//
// An empty subname chain addresses the root: destination becomes the
// default entry's opaque link. Otherwise the subname entry is inserted or
// overwritten, and makeDefault points the default entry at it. destination
// may be empty only to promote an existing subname to default.
func (m *Map) UpdateOrCreate(subnames []string, destination string, makeDefault bool) (string, error) {
	if m.Subnames == nil {
		m.Subnames = make(map[string]string)
	}
	if len(subnames) == 0 {
		if destination == "" {
			return "", ErrMissingDestination
		}
		m.Default = Default{Kind: DefaultLink, Ref: destination}
		return destination, nil
	}

	key := Key(subnames)
	link := destination
	if destination == "" {
		existing, ok := m.Subnames[key]
		if !ok || !makeDefault {
			return "", ErrMissingDestination
		}
		link = existing
	} else {
		m.Subnames[key] = destination
	}

	if makeDefault {
		m.Default = Default{Kind: DefaultSubname, Ref: key}
	}
	return link, nil
}

// Remove deletes a subname entry and returns the link it held. The default
// entry is left untouched even if it pointed at the removed subname.
func (m *Map) Remove(subnames []string) (string, error) {
	if len(subnames) == 0 {
		return "", ErrRootEntry
	}
	key := Key(subnames)
	link, ok := m.Subnames[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrEntryNotFound, key)
	}
	delete(m.Subnames, key)
	return link, nil
}

// Link returns the link for a subname chain, or the default link when the
// chain is empty.
func (m *Map) Link(subnames []string) (string, error) {
	if len(subnames) == 0 {
		return m.DefaultLink()
	}
	key := Key(subnames)
	link, ok := m.Subnames[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrEntryNotFound, key)
	}
	return link, nil
}

// DefaultLink follows the default entry. A default that points at a removed
// subname reports ErrEntryNotFound.
func (m *Map) DefaultLink() (string, error) {
	switch m.Default.Kind {
	case DefaultLink:
		return m.Default.Ref, nil
	case DefaultSubname:
		link, ok := m.Subnames[m.Default.Ref]
		if !ok {
			return "", fmt.Errorf("%w: default points at %q", ErrEntryNotFound, m.Default.Ref)
		}
		return link, nil
	default:
		return "", ErrNoDefault
	}
}
