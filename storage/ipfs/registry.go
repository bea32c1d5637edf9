package ipfs

import (
	"os"

	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repo via the ipfs command (blob fallback only)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Options: []registry.Option{
			{Name: "ipfs-bin", Default: "ipfs", Usage: "ipfs executable"},
			{Name: "ipfs-path", Usage: "IPFS_PATH for the ipfs command; empty inherits the environment"},
		},
		OpenBlobs: func(opts registry.Options) (storage.CAS, func() error, error) {
			o := Options{Bin: opts.Get("ipfs-bin")}
			if p := opts.Get("ipfs-path"); p != "" {
				o.Env = append(os.Environ(), "IPFS_PATH="+p)
			}
			return New(o), nil, nil
		},
	})
}
