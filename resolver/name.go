package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"xdao.co/nameres/address"
	"xdao.co/nameres/locator"
)

// NameMapVersionTag is the version tag of every resolution-map container.
const NameMapVersionTag uint64 = 1500

var ErrInvalidName = errors.New("resolver: invalid public name")

// Name is a public name split into its parts. Only Public is hashed.
type Name struct {
	// Subnames are ordered outermost-first, as written.
	Subnames []string
	Public   string
	Path     string

	// ContentVersion carries a "?v=" query, if any.
	ContentVersion *uint64
}

// Sanitize strips every scheme prefix from name and adds exactly one back.
func Sanitize(name string) string {
	return locator.SchemePrefix + locator.TrimScheme(strings.TrimSpace(name))
}

// ParseName splits a name such as "xdao://blog.alice/posts/1?v=3" into
// subnames ["blog"], public name "alice", path "/posts/1" and content
// version 3. The scheme prefix is optional.
func ParseName(input string) (Name, error) {
	var n Name
	rest := locator.TrimScheme(strings.TrimSpace(input))

	host := rest
	tail := ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		host, tail = rest[:i], rest[i:]
	}
	if host == "" {
		return n, fmt.Errorf("%w: %q has no public name", ErrInvalidName, input)
	}
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" {
			return n, fmt.Errorf("%w: %q has an empty label", ErrInvalidName, input)
		}
	}
	n.Public = labels[len(labels)-1]
	if len(labels) > 1 {
		n.Subnames = labels[:len(labels)-1]
	}
	for _, sub := range n.Subnames {
		if err := locator.CheckSubname(sub); err != nil {
			return Name{}, fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
	}

	path, rawQuery, _ := strings.Cut(tail, "?")
	if err := locator.CheckPath(path); err != nil {
		return Name{}, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	n.Path = path
	if rawQuery != "" {
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return n, fmt.Errorf("%w: %q: %v", ErrInvalidName, input, err)
		}
		if v := q.Get("v"); v != "" {
			ver, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return n, fmt.Errorf("%w: %q: bad version %q", ErrInvalidName, input, v)
			}
			n.ContentVersion = &ver
		}
	}
	return n, nil
}

// Address is the content address of the name's resolution map.
func (n Name) Address() address.Address { return address.HashName(n.Public) }

// Host renders the name without path or query, e.g. "blog.alice".
func (n Name) Host() string {
	return strings.Join(append(append([]string(nil), n.Subnames...), n.Public), ".")
}

// Locator is the resolution-map locator this name falls back to.
func (n Name) Locator() locator.Locator {
	l := locator.New(n.Address(), NameMapVersionTag, locator.DataKindVersionedAppendOnly, locator.ContentKindResolutionMap)
	l.Path = n.Path
	if len(n.Subnames) > 0 {
		l.Subnames = append([]string(nil), n.Subnames...)
	}
	l.ContentVersion = n.ContentVersion
	return l
}
