// Package storeconfig opens one or more registry backends from a config file.
//
// This provides config-driven runtime backend selection. Callers still need
// to link desired backend plugins via blank imports.
//
// Example (YAML):
//
//	primary: local
//	backends:
//	  - name: localfs
//	    id: local
//	    config:
//	      localfs-dir: /var/lib/xdao
//	  - name: grpc
//	    config:
//	      grpc-target: 10.0.0.5:7777
//
// The primary backend takes all writes and versioned reads. The others are
// blob read fallbacks, tried in file order; blob-only backends such as
// "ipfs" may appear only there. Config values are backend-specific
// and mirror the backend's flag names.
package storeconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
)

type Config struct {
	// Primary names the backend (by ID, or Name when ID is empty) that takes
	// writes. Empty means the first backend.
	Primary  string          `json:"primary,omitempty" yaml:"primary,omitempty"`
	Backends []BackendConfig `json:"backends" yaml:"backends"`
}

type BackendConfig struct {
	// Name is the registry backend name to open (e.g. "grpc", "localfs", "memory").
	Name string `json:"name" yaml:"name"`
	// ID is an optional stable alias. If empty, Name is used.
	ID     string            `json:"id,omitempty" yaml:"id,omitempty"`
	Config map[string]string `json:"config,omitempty" yaml:"config,omitempty"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a config file. ".yaml" and ".yml" files are YAML; anything
// else is JSON with comments and trailing commas allowed.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("storeconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return ParseJSONC(b)
	}
}

func ParseYAML(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("storeconfig: %w", err)
	}
	return cfg, cfg.Validate()
}

func ParseJSONC(b []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(b), &cfg); err != nil {
		return Config{}, fmt.Errorf("storeconfig: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		if _, ok := seen[b.id()]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", b.id())
		}
		seen[b.id()] = struct{}{}
	}
	if c.Primary != "" {
		if _, ok := seen[c.Primary]; !ok {
			return fmt.Errorf("storeconfig: primary backend %q not found in config", c.Primary)
		}
	}
	return nil
}

// ordered returns the backends with the primary moved to the front. The
// relative order of the rest is kept.
func (c Config) ordered() []BackendConfig {
	out := make([]BackendConfig, 0, len(c.Backends))
	idx := 0
	for i, b := range c.Backends {
		if c.Primary != "" && b.id() == c.Primary {
			idx = i
			break
		}
	}
	out = append(out, c.Backends[idx])
	for i, b := range c.Backends {
		if i != idx {
			out = append(out, b)
		}
	}
	return out
}

// Open opens every configured backend. A single backend is returned as is;
// several are combined into a storage.Tiered.
func (c Config) Open(usage registry.Usage) (storage.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	backends := c.ordered()
	primary, closeFn, err := registry.OpenWithConfig(backends[0].Name, usage, backends[0].Config)
	if err != nil {
		return nil, nil, fmt.Errorf("storeconfig: backend %q: %w", backends[0].id(), err)
	}
	if closeFn != nil {
		closers = append(closers, closeFn)
	}
	if len(backends) == 1 {
		return primary, closeAll, nil
	}

	fallbacks := make([]storage.CAS, 0, len(backends)-1)
	for _, b := range backends[1:] {
		cas, closeFn, err := registry.OpenBlobsWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("storeconfig: backend %q: %w", b.id(), err)
		}
		fallbacks = append(fallbacks, cas)
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}
	return storage.Tiered{Primary: primary, Fallbacks: fallbacks}, closeAll, nil
}
