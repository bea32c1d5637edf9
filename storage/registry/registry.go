// Package registry opens storage backends by name.
//
// Each backend declares its options once. The same options surface as
// command-line flags (RegisterFlags) and as string keys in a store config
// file (OpenWithConfig).
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"xdao.co/nameres/storage"
)

// Option is one backend setting. Name doubles as the flag name and the
// config key, so it should carry the backend prefix (e.g. "localfs-dir").
type Option struct {
	Name    string
	Default string
	Usage   string
}

// Options holds the resolved option values passed to Backend.Open.
type Options map[string]string

func (o Options) Get(name string) string { return strings.TrimSpace(o[name]) }

// Backend is a build-time plugin that can open a storage.Store implementation.
//
// Backends typically register themselves in init():
//
//	registry.MustRegister(registry.Backend{ ... })
type Backend struct {
	Name        string
	Description string
	Usage       Usage
	Options     []Option

	// Open constructs the store. It returns an optional close function.
	Open func(opts Options) (storage.Store, func() error, error)

	// OpenBlobs is set instead of Open by backends that only hold immutable
	// blobs. Such a backend can serve as a blob fallback but never as the
	// primary store.
	OpenBlobs func(opts Options) (storage.CAS, func() error, error)
}

// BlobsOnly reports whether b can only serve blobs.
func (b Backend) BlobsOnly() bool { return b.Open == nil }

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Open == nil && b.OpenBlobs == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}
	for _, o := range b.Options {
		if o.Name == "" {
			return fmt.Errorf("registry: backend %q has an unnamed option", b.Name)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

func lookup(name string, usage Usage) (Backend, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("backend %q not supported in this binary", name)
	}
	return b, nil
}

// OpenWithConfig opens the named backend from config values keyed by option
// name. Unknown keys are rejected; missing keys take the option default.
func OpenWithConfig(name string, usage Usage, cfg map[string]string) (storage.Store, func() error, error) {
	b, opts, err := configure(name, usage, cfg)
	if err != nil {
		return nil, nil, err
	}
	return b.openStore(opts)
}

// OpenBlobsWithConfig is OpenWithConfig for a blob fallback. Full stores
// are accepted too.
func OpenBlobsWithConfig(name string, usage Usage, cfg map[string]string) (storage.CAS, func() error, error) {
	b, opts, err := configure(name, usage, cfg)
	if err != nil {
		return nil, nil, err
	}
	if b.OpenBlobs != nil {
		return b.OpenBlobs(opts)
	}
	return b.Open(opts)
}

func configure(name string, usage Usage, cfg map[string]string) (Backend, Options, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return Backend{}, nil, err
	}
	opts := make(Options, len(b.Options))
	for _, o := range b.Options {
		opts[o.Name] = o.Default
	}
	for k, v := range cfg {
		if _, ok := opts[k]; !ok {
			return Backend{}, nil, fmt.Errorf("backend %q: unknown config key %q", name, k)
		}
		opts[k] = v
	}
	return b, opts, nil
}

func (b Backend) openStore(opts Options) (storage.Store, func() error, error) {
	if b.BlobsOnly() {
		return nil, nil, fmt.Errorf("backend %q holds blobs only; use it as a fallback in a store config", b.Name)
	}
	return b.Open(opts)
}

// Flags holds the flag values bound by RegisterFlags.
type Flags struct {
	usage  Usage
	values map[string]*string
}

// RegisterFlags binds the options of every backend matching usage to fs.
// Options shared by name across backends are bound once.
func RegisterFlags(fs *pflag.FlagSet, usage Usage) *Flags {
	f := &Flags{usage: usage, values: map[string]*string{}}
	for _, b := range List(usage) {
		for _, o := range b.Options {
			if _, ok := f.values[o.Name]; ok {
				continue
			}
			f.values[o.Name] = fs.String(o.Name, o.Default, fmt.Sprintf("%s (for --backend=%s)", o.Usage, b.Name))
		}
	}
	return f
}

// Open opens the named backend using the parsed flag values.
func (f *Flags) Open(name string) (storage.Store, func() error, error) {
	b, err := lookup(name, f.usage)
	if err != nil {
		return nil, nil, err
	}
	opts := make(Options, len(b.Options))
	for _, o := range b.Options {
		opts[o.Name] = o.Default
		if v, ok := f.values[o.Name]; ok {
			opts[o.Name] = *v
		}
	}
	return b.openStore(opts)
}
