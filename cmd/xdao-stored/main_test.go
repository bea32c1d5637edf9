package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/nameres/address"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/grpcstore"
	"xdao.co/nameres/storage/memstore"
)

func TestRun_ListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--list-backends"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "localfs")
	require.Contains(t, out.String(), "memory")
	require.NotContains(t, out.String(), "grpc")
}

func TestRun_UnknownBackend(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--backend", "grpc", "--listen", "127.0.0.1:0"}, &out, &errOut)
	require.Equal(t, 2, code)
	require.NotEmpty(t, errOut.String())
}

func TestRun_BadFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 2, run(context.Background(), []string{"--nope"}, &out, &errOut))
}

func TestOpenStore_FromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "stores.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backends:\n  - name: memory\n"), 0o644))

	store, closeFn, err := openStore(nil, "ignored", cfgPath)
	require.NoError(t, err)
	if closeFn != nil {
		defer closeFn()
	}
	id, err := store.Put([]byte("configured"))
	require.NoError(t, err)
	require.True(t, store.Has(id))
}

func TestServe_StopsOnCancel(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, lis, memstore.New(), zaptest.NewLogger(t)) }()

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	client, err := grpcstore.Dial("bufnet", grpcstore.DialOptions{Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)}})
	require.NoError(t, err)
	client.Timeout = 5 * time.Second
	defer client.Close()

	addr := address.HashName("daemon")
	_, err = client.PutVersioned([]storage.Entry{{Key: []byte("1"), Value: []byte("v1")}}, &addr, 1500)
	require.NoError(t, err)
	version, e, err := client.GetLatestVersioned(addr, 1500)
	require.NoError(t, err)
	require.Equal(t, uint64(1), version)
	require.Equal(t, []byte("v1"), e.Value)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
