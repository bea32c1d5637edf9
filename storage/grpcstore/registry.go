package grpcstore

import (
	"fmt"
	"strconv"
	"time"

	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "gRPC store client (talks to xdao-stored)",
		Usage:       registry.UsageCLI,
		Options: []registry.Option{
			{Name: "grpc-target", Usage: "gRPC target host:port"},
			{Name: "grpc-dial-timeout", Default: "5s", Usage: "Dial timeout"},
			{Name: "grpc-timeout", Default: "0s", Usage: "Per-RPC timeout"},
			{Name: "grpc-max-msg-bytes", Default: "0", Usage: "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults"},
		},
		Open: func(opts registry.Options) (storage.Store, func() error, error) {
			target := opts.Get("grpc-target")
			if target == "" {
				return nil, nil, fmt.Errorf("missing --grpc-target")
			}
			dialTimeout, err := time.ParseDuration(opts.Get("grpc-dial-timeout"))
			if err != nil {
				return nil, nil, fmt.Errorf("grpc-dial-timeout: %w", err)
			}
			timeout, err := time.ParseDuration(opts.Get("grpc-timeout"))
			if err != nil {
				return nil, nil, fmt.Errorf("grpc-timeout: %w", err)
			}
			maxMsg, err := strconv.Atoi(opts.Get("grpc-max-msg-bytes"))
			if err != nil {
				return nil, nil, fmt.Errorf("grpc-max-msg-bytes: %w", err)
			}
			client, err := Dial(target, DialOptions{Timeout: dialTimeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = timeout
			return client, client.Close, nil
		},
	})
}
