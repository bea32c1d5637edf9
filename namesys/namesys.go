// Package namesys implements the resolution-map container protocol: create,
// add to, remove from and read the versioned map behind a public name.
//
// Every call reads the latest version, mutates a private copy and appends
// the result as the next version. Two writers racing on one name both read
// version v; the store accepts only one append of v+1 and the other gets a
// KindConflict error. Nothing is retried here.
package namesys

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"xdao.co/nameres/locator"
	"xdao.co/nameres/resmap"
	"xdao.co/nameres/resolver"
	"xdao.co/nameres/storage"
)

// Protocol is safe for concurrent use; it holds no per-name state.
type Protocol struct {
	store    storage.VersionedStore
	sugar    *zap.SugaredLogger
	resolver resolver.Options
	now      func() time.Time
}

type Option func(*Protocol)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Protocol) {
		if logger != nil {
			p.sugar = logger.Sugar()
		}
	}
}

// WithResolverOptions controls how names and locators given to the protocol
// are resolved, including the base of returned locators.
func WithResolverOptions(opts resolver.Options) Option {
	return func(p *Protocol) { p.resolver = opts }
}

// WithClock replaces time.Now for entry keys.
func WithClock(now func() time.Time) Option {
	return func(p *Protocol) { p.now = now }
}

func New(store storage.VersionedStore, opts ...Option) *Protocol {
	p := &Protocol{
		store: store,
		sugar: zap.NewNop().Sugar(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is what a mutation produced. Map is the caller's own copy.
type Result struct {
	Version   uint64
	Locator   locator.Locator
	Processed resmap.ProcessedEntries
	Map       *resmap.Map
}

// Create writes version 1 of a new name's map holding the single entry for
// name. It fails with KindAlreadyExists if any container, even an empty one,
// exists for the name. In preview mode nothing is written.
func (p *Protocol) Create(name, destination string, makeDefault, preview bool) (Result, error) {
	const op = "create"
	p.sugar.Infow("creating resolution map", "name", name, "preview", preview)

	l, err := p.nameLocator(op, name)
	if err != nil {
		return Result{}, err
	}
	container := containerLocator(l)

	switch _, _, err := p.GetLatest(container); {
	case err == nil:
		return Result{}, &Error{Kind: KindAlreadyExists, Op: op, Name: name,
			Message: "public name already exists; add subnames to it instead"}
	case !IsKind(err, KindNotFound):
		return Result{}, withOp(err, op, name)
	}

	m := resmap.New()
	link, err := m.UpdateOrCreate(l.Subnames, destination, makeDefault)
	if err != nil {
		return Result{}, mapError(op, name, err)
	}
	entry, err := p.entry(op, name, m)
	if err != nil {
		return Result{}, err
	}

	if !preview {
		addr := container.Address
		if _, err := p.store.PutVersioned([]storage.Entry{entry}, &addr, container.VersionTag); err != nil {
			if storage.IsAlreadyExists(err) {
				return Result{}, &Error{Kind: KindAlreadyExists, Op: op, Name: name, Message: "public name already exists", Cause: err}
			}
			return Result{}, storeError(op, name, 1, err)
		}
	}

	return Result{
		Version:   1,
		Locator:   container,
		Processed: resmap.Processed(processedKey(name), resmap.ActionAdded, link),
		Map:       m,
	}, nil
}

// Add inserts or overwrites the entry for name and appends the map as the
// next version. The name's root must have been created first.
func (p *Protocol) Add(name, destination string, makeDefault, preview bool) (Result, error) {
	const op = "add"
	p.sugar.Infow("adding to resolution map", "name", name, "preview", preview)

	return p.mutate(op, name, preview, resmap.ActionAdded, func(l locator.Locator, m *resmap.Map) (string, error) {
		return m.UpdateOrCreate(l.Subnames, destination, makeDefault)
	})
}

// Remove deletes the subname entry for name and appends the map as the next
// version. A default entry that pointed at the removed subname is left as is.
func (p *Protocol) Remove(name string, preview bool) (Result, error) {
	const op = "remove"
	p.sugar.Infow("removing from resolution map", "name", name, "preview", preview)

	return p.mutate(op, name, preview, resmap.ActionDeleted, func(l locator.Locator, m *resmap.Map) (string, error) {
		return m.Remove(l.Subnames)
	})
}

func (p *Protocol) mutate(op, name string, preview bool, action resmap.Action, apply func(locator.Locator, *resmap.Map) (string, error)) (Result, error) {
	l, err := p.nameLocator(op, name)
	if err != nil {
		return Result{}, err
	}
	container := containerLocator(l)

	version, m, err := p.GetLatest(container)
	if err != nil {
		return Result{}, withOp(err, op, name)
	}
	p.sugar.Debugw("fetched resolution map", "name", name, "version", version, "subnames", len(m.Subnames))

	link, err := apply(l, m)
	if err != nil {
		return Result{}, mapError(op, name, err)
	}
	entry, err := p.entry(op, name, m)
	if err != nil {
		return Result{}, err
	}

	next := version + 1
	if !preview {
		if err := p.store.AppendVersioned(entry, next, container.Address, container.VersionTag); err != nil {
			switch {
			case storage.IsVersionConflict(err):
				return Result{}, &Error{Kind: KindConflict, Op: op, Name: name, Version: next,
					Message: "another writer appended this version first", Cause: err}
			case storage.IsNotFound(err):
				return Result{}, &Error{Kind: KindNotFound, Op: op, Name: name, Message: MsgNoMapFound, Cause: err}
			default:
				return Result{}, storeError(op, name, next, err)
			}
		}
	}

	return Result{
		Version:   next,
		Locator:   l.WithPath("").WithoutVersion(),
		Processed: resmap.Processed(processedKey(name), action, link),
		Map:       m,
	}, nil
}

// GetLatest fetches the newest map at l's address and version tag. A
// container with no versions yet is version 0 with an empty map.
func (p *Protocol) GetLatest(l locator.Locator) (uint64, *resmap.Map, error) {
	const op = "get-latest"
	version, entry, err := p.store.GetLatestVersioned(l.Address, l.VersionTag)
	switch {
	case err == nil:
	case storage.IsEmptyContent(err):
		p.sugar.Warnw("resolution map container is empty", "address", l.Address.String())
		return 0, resmap.New(), nil
	case storage.IsNotFound(err):
		return 0, nil, &Error{Kind: KindNotFound, Op: op, Name: l.String(), Message: MsgNoMapFound, Cause: err}
	default:
		return 0, nil, storeError(op, l.String(), 0, err)
	}

	m, err := resmap.Unmarshal(entry.Value)
	if err != nil {
		return 0, nil, &Error{Kind: KindCorruptMap, Op: op, Name: l.String(), Version: version,
			Message: "stored resolution map is not decodable", Cause: err}
	}
	return version, m, nil
}

// Get is GetLatest unless l selects a content version, in which case that
// version is read.
func (p *Protocol) Get(l locator.Locator) (uint64, *resmap.Map, error) {
	if l.ContentVersion == nil {
		return p.GetLatest(l)
	}
	const op = "get"
	version := *l.ContentVersion
	entry, err := p.store.GetVersioned(l.Address, l.VersionTag, version)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
		return 0, nil, &Error{Kind: KindNotFound, Op: op, Name: l.String(), Version: version,
			Message: "no resolution map version at this address", Cause: err}
	default:
		return 0, nil, storeError(op, l.String(), version, err)
	}
	m, err := resmap.Unmarshal(entry.Value)
	if err != nil {
		return 0, nil, &Error{Kind: KindCorruptMap, Op: op, Name: l.String(), Version: version,
			Message: "stored resolution map is not decodable", Cause: err}
	}
	return version, m, nil
}

// ResolveLink resolves input to a name and returns the link its map holds:
// the subname entry when input carries subnames, the default entry otherwise.
func (p *Protocol) ResolveLink(input string) (string, error) {
	const op = "resolve-link"
	l, err := resolver.ResolveWithOptions(input, p.resolver)
	if err != nil {
		return "", &Error{Kind: KindInvalidInput, Op: op, Name: input, Message: "cannot resolve input", Cause: err}
	}
	if !l.IsResolutionMap() {
		return "", &Error{Kind: KindInvalidInput, Op: op, Name: input, Message: "input does not address a resolution map"}
	}
	_, m, err := p.Get(l)
	if err != nil {
		return "", withOp(err, op, input)
	}
	link, err := m.Link(l.Subnames)
	if err != nil {
		return "", mapError(op, input, err)
	}
	return link, nil
}

// nameLocator resolves a mutation's name to its resolution-map locator.
func (p *Protocol) nameLocator(op, name string) (locator.Locator, error) {
	l, err := resolver.ResolveWithOptions(resolver.Sanitize(name), p.resolver)
	if err != nil {
		return locator.Locator{}, &Error{Kind: KindInvalidInput, Op: op, Name: name, Message: "invalid public name", Cause: err}
	}
	if !l.IsResolutionMap() {
		return locator.Locator{}, &Error{Kind: KindInvalidInput, Op: op, Name: name, Message: "name does not address a resolution map"}
	}
	if l.Path != "" || l.ContentVersion != nil {
		return locator.Locator{}, &Error{Kind: KindInvalidInput, Op: op, Name: name, Message: "name must not carry a path or version"}
	}
	return l, nil
}

// entry serializes m as the value of a new version keyed by the write time.
func (p *Protocol) entry(op, name string, m *resmap.Map) (storage.Entry, error) {
	payload, err := resmap.Marshal(m)
	if err != nil {
		return storage.Entry{}, &Error{Kind: KindCorruptMap, Op: op, Name: name, Message: "cannot encode resolution map", Cause: err}
	}
	return storage.Entry{
		Key:   []byte(strconv.FormatInt(p.now().Unix(), 10)),
		Value: payload,
	}, nil
}

// containerLocator is the bare locator of the container behind l.
// processedKey is name as the caller wrote it, minus whitespace and scheme.
func processedKey(name string) string {
	return locator.TrimScheme(strings.TrimSpace(name))
}

func containerLocator(l locator.Locator) locator.Locator {
	return l.WithoutSubnames().WithPath("").WithoutVersion()
}
