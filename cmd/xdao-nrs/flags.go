package main

import (
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"xdao.co/nameres/compliance"
	"xdao.co/nameres/internal/logging"
	"xdao.co/nameres/locator"
	"xdao.co/nameres/model"
	"xdao.co/nameres/namesys"
	"xdao.co/nameres/resolver"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
	"xdao.co/nameres/storage/storeconfig"
)

// resolveFlags controls how inputs are turned into locators.
type resolveFlags struct {
	mode string
	base string
}

func addResolveFlags(fs *pflag.FlagSet) *resolveFlags {
	f := &resolveFlags{}
	fs.StringVar(&f.mode, "compliance", "permissive", "compliance mode: permissive|strict")
	fs.StringVar(&f.base, "base", "", "multibase of printed locators (base32, base36, base58btc, base64url)")
	return f
}

func (f *resolveFlags) options() (resolver.Options, error) {
	mode, err := compliance.ParseMode(f.mode)
	if err != nil {
		return resolver.Options{}, model.NewError(model.ErrInvalidRequest, err.Error())
	}
	opts := resolver.Options{Mode: mode}
	if f.base != "" {
		base, err := parseBase(f.base)
		if err != nil {
			return resolver.Options{}, err
		}
		opts.Base = base
	}
	return opts, nil
}

func parseBase(name string) (multibase.Encoding, error) {
	base, err := locator.ParseBase(name)
	if err != nil {
		return 0, model.NewError(model.ErrInvalidRequest, err.Error())
	}
	return base, nil
}

// storeFlags selects the store and logging for commands that touch storage.
type storeFlags struct {
	resolve     *resolveFlags
	backend     string
	storeConfig string
	logLevel    string
	format      string
	backends    *registry.Flags
}

func addStoreFlags(fs *pflag.FlagSet) *storeFlags {
	f := &storeFlags{resolve: addResolveFlags(fs)}
	fs.StringVar(&f.backend, "backend", "localfs", "storage backend name")
	fs.StringVar(&f.storeConfig, "store-config", "", "YAML or JSONC store config file (overrides --backend)")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level (debug, info, warn, error, off)")
	fs.StringVar(&f.format, "format", "json", "output format for name commands: json|text")
	f.backends = registry.RegisterFlags(fs, registry.UsageCLI)
	return f
}

func (f *storeFlags) open() (storage.Store, func() error, error) {
	if f.storeConfig == "" {
		return f.backends.Open(f.backend)
	}
	cfg, err := storeconfig.LoadFile(f.storeConfig)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(registry.UsageCLI)
}

// session is an open store plus the protocol bound to it.
type session struct {
	store    storage.Store
	protocol *namesys.Protocol
	logger   *zap.Logger
	closeFn  func() error
}

func (f *storeFlags) session(c *cli) (*session, error) {
	if f.format != "json" && f.format != "text" {
		return nil, model.NewError(model.ErrInvalidRequest, fmt.Sprintf("unknown --format %q", f.format))
	}
	logger, err := logging.New(f.logLevel, c.errOut)
	if err != nil {
		return nil, model.NewError(model.ErrInvalidRequest, err.Error())
	}
	opts, err := f.resolve.options()
	if err != nil {
		return nil, err
	}
	store, closeFn, err := f.open()
	if err != nil {
		return nil, model.NewError(model.ErrStore, err.Error())
	}
	return &session{
		store:    store,
		protocol: namesys.New(store, namesys.WithLogger(logger), namesys.WithResolverOptions(opts)),
		logger:   logger,
		closeFn:  closeFn,
	}, nil
}

func (s *session) Close() {
	_ = s.logger.Sync()
	if s.closeFn != nil {
		_ = s.closeFn()
	}
}
