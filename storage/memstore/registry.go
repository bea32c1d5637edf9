package memstore

import (
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "memory",
		Description: "In-memory store; contents are lost on exit",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Open: func(registry.Options) (storage.Store, func() error, error) {
			return New(), nil, nil
		},
	})
}
