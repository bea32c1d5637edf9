package model

import (
	"github.com/multiformats/go-multibase"

	"xdao.co/nameres/locator"
	"xdao.co/nameres/namesys"
	"xdao.co/nameres/resmap"
)

// Locator is the decoded view of a locator string.
type Locator struct {
	URL            string   `json:"url"`
	Address        string   `json:"address"`
	VersionTag     uint64   `json:"versionTag"`
	DataKind       string   `json:"dataKind"`
	ContentKind    string   `json:"contentKind"`
	Base           string   `json:"base"`
	Subnames       []string `json:"subnames"`
	Path           string   `json:"path,omitempty"`
	ContentVersion *uint64  `json:"contentVersion,omitempty"`
}

func FromLocator(l locator.Locator) Locator {
	subnames := l.Subnames
	if subnames == nil {
		subnames = []string{}
	}
	base := locator.BaseName(l.Base)
	if base == "" {
		base = locator.BaseName(locator.DefaultBase)
	}
	return Locator{
		URL:            l.String(),
		Address:        l.Address.String(),
		VersionTag:     l.VersionTag,
		DataKind:       l.DataKind.String(),
		ContentKind:    l.ContentKind.String(),
		Base:           base,
		Subnames:       subnames,
		Path:           l.Path,
		ContentVersion: l.ContentVersion,
	}
}

// Default is the default entry of a map. Subname is set when the default
// points at a subname, Link when it holds a link directly.
type Default struct {
	Kind    string `json:"kind"`
	Subname string `json:"subname,omitempty"`
	Link    string `json:"link,omitempty"`
}

type Map struct {
	Version  uint64            `json:"version"`
	Default  Default           `json:"default"`
	Subnames map[string]string `json:"subnames"`
}

func FromMap(version uint64, m *resmap.Map) Map {
	out := Map{Version: version, Subnames: map[string]string{}}
	if m == nil {
		out.Default.Kind = resmap.DefaultNotSet.String()
		return out
	}
	out.Default.Kind = m.Default.Kind.String()
	switch m.Default.Kind {
	case resmap.DefaultSubname:
		out.Default.Subname = m.Default.Ref
	case resmap.DefaultLink:
		out.Default.Link = m.Default.Ref
	}
	for k, v := range m.Subnames {
		out.Subnames[k] = v
	}
	return out
}

type ProcessedEntry struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	Link   string `json:"link"`
}

// FromProcessed lists processed entries sorted by name.
func FromProcessed(p resmap.ProcessedEntries) []ProcessedEntry {
	out := make([]ProcessedEntry, 0, len(p))
	for _, name := range sortedNames(p) {
		e := p[name]
		out = append(out, ProcessedEntry{Name: name, Action: string(e.Action), Link: e.Link})
	}
	return out
}

// MutationResult is the response of create, add and remove.
type MutationResult struct {
	Version   uint64           `json:"version"`
	Locator   Locator          `json:"locator"`
	Processed []ProcessedEntry `json:"processed"`
	Map       Map              `json:"map"`
	Preview   bool             `json:"preview"`
}

func FromResult(r namesys.Result, preview bool) MutationResult {
	return MutationResult{
		Version:   r.Version,
		Locator:   FromLocator(r.Locator),
		Processed: FromProcessed(r.Processed),
		Map:       FromMap(r.Version, r.Map),
		Preview:   preview,
	}
}

// EncodeRequest builds a locator from named parts.
type EncodeRequest struct {
	Address     string   `json:"address"`
	VersionTag  uint64   `json:"versionTag"`
	DataKind    string   `json:"dataKind"`
	ContentKind string   `json:"contentKind"`
	Base        string   `json:"base,omitempty"`
	Path        string   `json:"path,omitempty"`
	Subnames    []string `json:"subnames,omitempty"`
}

// Encode validates r and produces the locator it describes.
func (r EncodeRequest) Encode() (locator.Locator, error) {
	addr, err := parseAddress(r.Address)
	if err != nil {
		return locator.Locator{}, err
	}
	dk, err := locator.ParseDataKind(r.DataKind)
	if err != nil {
		return locator.Locator{}, NewError(ErrInvalidRequest, err.Error())
	}
	ck, err := locator.ParseContentKind(r.ContentKind)
	if err != nil {
		return locator.Locator{}, NewError(ErrInvalidRequest, err.Error())
	}
	base := multibase.Encoding(locator.DefaultBase)
	if r.Base != "" {
		if base, err = locator.ParseBase(r.Base); err != nil {
			return locator.Locator{}, NewError(ErrInvalidRequest, err.Error())
		}
	}
	l := locator.New(addr, r.VersionTag, dk, ck)
	l.Base = base
	l.Path = r.Path
	l.Subnames = r.Subnames
	if _, err := l.Encode(); err != nil {
		return locator.Locator{}, NewError(ErrInvalidRequest, err.Error())
	}
	return l, nil
}
