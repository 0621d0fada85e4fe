package nftmeta

import (
	"context"
	"testing"
	"time"

	"github.com/nftmeta/nftmeta/util"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := ResolveConfig(util.TestLogger(), fs, "./nowhere.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("LoadsAndDefaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, DefaultConfigPath, []byte(`
logLevel: warn
server:
  httpPort: 4100
providers:
  opensea:
    apiKey: os-key
    maxBatchSize: 10
`), 0o644))

		cfg, err := ResolveConfig(util.TestLogger(), fs, "")
		require.NoError(t, err)
		assert.Equal(t, 4100, cfg.Server.HttpPort)
		assert.Equal(t, "os-key", cfg.Providers.Opensea.ApiKey)
		require.NotNil(t, cfg.Providers.Opensea.MaxBatchSize)
		assert.Equal(t, 10, *cfg.Providers.Opensea.MaxBatchSize)
		assert.NotNil(t, cfg.Providers.Centerdev)
	})

	t.Run("InvalidConfigIsRejected", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`
server:
  httpPort: 99999
`), 0o644))

		_, err := ResolveConfig(util.TestLogger(), fs, "bad.yaml")
		require.Error(t, err)
	})
}

func TestInit_BootsWithMinimalConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "test.yaml", []byte(`
logLevel: error
server:
  httpHost: 127.0.0.1
  httpPort: 38421
custom:
  ens:
    enabled: false
`), 0o644))

	exitCodes := make(chan int, 1)
	prevExit := util.OsExit
	util.OsExit = func(code int) { exitCodes <- code }
	defer func() { util.OsExit = prevExit }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := Init(ctx, *util.TestLogger(), fs, "test.yaml")
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond)
	select {
	case code := <-exitCodes:
		t.Fatalf("server exited with code %d", code)
	default:
	}
}
