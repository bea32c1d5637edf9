package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/nameres/internal/logging"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/grpcstore"
	"xdao.co/nameres/storage/registry"
	"xdao.co/nameres/storage/storeconfig"

	_ "xdao.co/nameres/storage/ipfs"
	_ "xdao.co/nameres/storage/localfs"
	_ "xdao.co/nameres/storage/memstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet("xdao-stored", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "storage backend name")
	storeConfig := fs.String("store-config", "", "YAML or JSONC store config file (overrides --backend)")
	listBackends := fs.Bool("list-backends", false, "list supported backends and exit")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	flags := registry.RegisterFlags(fs, registry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	logger, err := logging.NewDaemon(*logLevel)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	store, closeFn, err := openStore(flags, *backend, *storeConfig)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	logger.Info("xdao-stored listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("backend", *backend),
		zap.String("store_config", *storeConfig))
	if err := serve(ctx, lis, store, logger); err != nil {
		logger.Error("serve", zap.Error(err))
		return 1
	}
	return 0
}

func openStore(flags *registry.Flags, backend, configPath string) (storage.Store, func() error, error) {
	if configPath == "" {
		return flags.Open(backend)
	}
	cfg, err := storeconfig.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(registry.UsageDaemon)
}

// serve runs the store service on lis until ctx is done, then drains
// in-flight calls.
func serve(ctx context.Context, lis net.Listener, store storage.Store, logger *zap.Logger) error {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(logCalls(logger)))
	grpcstore.RegisterStoreServer(s, &grpcstore.Server{Store: store})

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("shutting down")
		s.GracefulStop()
	}()

	err := s.Serve(lis)
	if ctx.Err() != nil {
		<-done
		return nil
	}
	return err
}

func logCalls(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("call",
			zap.String("method", info.FullMethod),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return resp, err
	}
}
