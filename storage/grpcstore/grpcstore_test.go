package grpcstore

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/nameres/address"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/localfs"
	"xdao.co/nameres/storage/memstore"
	"xdao.co/nameres/storage/testkit"
)

// serve runs a Store service over an in-process listener and returns a
// client connected to it.
func serve(t *testing.T, backend storage.Store) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterStoreServer(srv, &Server{Store: backend})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	client, err := Dial("bufnet", DialOptions{Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)}})
	require.NoError(t, err)
	client.Timeout = 5 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCStore_CASConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS { return serve(t, memstore.New()) })
}

func TestGRPCStore_VersionedConformance(t *testing.T) {
	testkit.RunVersionedConformance(t, func(t *testing.T) storage.VersionedStore { return serve(t, memstore.New()) })
}

func TestGRPCStore_LocalFSRoundTrip(t *testing.T) {
	backend, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	client := serve(t, backend)

	payload := []byte("hello grpcstore")
	id, err := client.Put(payload)
	require.NoError(t, err)
	require.True(t, client.Has(id))
	got, err := client.Get(id)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	addr := address.HashName("over-the-wire")
	_, err = client.PutVersioned(nil, &addr, 1500)
	require.NoError(t, err)
	_, _, err = client.GetLatestVersioned(addr, 1500)
	require.ErrorIs(t, err, storage.ErrEmptyContent)
}

func TestErrorMapping_RoundTrip(t *testing.T) {
	for _, s := range sentinels {
		require.ErrorIs(t, mapRPC(mapErr(s.err)), s.err, s.err.Error())
	}
	require.ErrorIs(t, mapRPC(status.Error(codes.Aborted, "raced")), storage.ErrVersionConflict)

	st, ok := status.FromError(mapErr(context.DeadlineExceeded))
	require.True(t, ok)
	require.Equal(t, codes.Internal, st.Code())
}

func TestServer_MissingStore(t *testing.T) {
	client := serve(t, nil)
	_, err := client.Put([]byte("x"))
	require.Error(t, err)
	require.Equal(t, codes.Unavailable, status.Code(err))
}
