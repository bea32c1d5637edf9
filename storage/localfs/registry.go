package localfs

import (
	"fmt"

	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Options: []registry.Option{
			{Name: "localfs-dir", Usage: "LocalFS store directory"},
		},
		Open: func(opts registry.Options) (storage.Store, func() error, error) {
			dir := opts.Get("localfs-dir")
			if dir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			s, err := New(dir)
			return s, nil, err
		},
	})
}
