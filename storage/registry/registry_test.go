package registry_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"xdao.co/nameres/storage"
	_ "xdao.co/nameres/storage/grpcstore"
	"xdao.co/nameres/storage/localfs"
	"xdao.co/nameres/storage/memstore"
	"xdao.co/nameres/storage/registry"
)

func TestNames_FilterByUsage(t *testing.T) {
	require.Equal(t, []string{"grpc", "localfs", "memory"}, registry.Names(registry.UsageCLI))
	require.Equal(t, []string{"localfs", "memory"}, registry.Names(registry.UsageDaemon))
}

func TestRegister_Rejects(t *testing.T) {
	open := func(registry.Options) (storage.Store, func() error, error) { return nil, nil, nil }
	require.Error(t, registry.Register(registry.Backend{Usage: registry.UsageCLI, Open: open}))
	require.Error(t, registry.Register(registry.Backend{Name: "x", Usage: registry.UsageCLI}))
	require.Error(t, registry.Register(registry.Backend{Name: "x", Open: open}))
	require.Error(t, registry.Register(registry.Backend{Name: "memory", Usage: registry.UsageCLI, Open: open}))
}

func TestFlags_Open(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := registry.RegisterFlags(fs, registry.UsageCLI)
	dir := t.TempDir()
	require.NoError(t, fs.Parse([]string{"--localfs-dir", dir}))

	s, _, err := flags.Open("localfs")
	require.NoError(t, err)
	require.IsType(t, &localfs.Store{}, s)

	_, _, err = flags.Open("nope")
	require.Error(t, err)
}

func TestFlags_DaemonHidesClientOnlyBackends(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := registry.RegisterFlags(fs, registry.UsageDaemon)
	require.Nil(t, fs.Lookup("grpc-target"))
	_, _, err := flags.Open("grpc")
	require.Error(t, err)
}

func TestOpenWithConfig(t *testing.T) {
	_, _, err := registry.OpenWithConfig("localfs", registry.UsageCLI, nil)
	require.Error(t, err)

	s, _, err := registry.OpenWithConfig("localfs", registry.UsageCLI, map[string]string{"localfs-dir": t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, s)

	_, _, err = registry.OpenWithConfig("memory", registry.UsageCLI, map[string]string{"extra": "1"})
	require.Error(t, err)
}

func TestBlobsOnlyBackend(t *testing.T) {
	const testUsage registry.Usage = 1 << 7
	registry.MustRegister(registry.Backend{
		Name:  "blobs-test",
		Usage: testUsage,
		OpenBlobs: func(registry.Options) (storage.CAS, func() error, error) {
			return memstore.New(), nil, nil
		},
	})

	_, _, err := registry.OpenWithConfig("blobs-test", testUsage, nil)
	require.ErrorContains(t, err, "blobs only")

	cas, _, err := registry.OpenBlobsWithConfig("blobs-test", testUsage, nil)
	require.NoError(t, err)
	require.NotNil(t, cas)

	// Full stores serve as blob fallbacks too.
	cas, _, err = registry.OpenBlobsWithConfig("memory", registry.UsageCLI, nil)
	require.NoError(t, err)
	require.NotNil(t, cas)
}
