package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SOLANA_RPC_URL", "SOLANA_WS_RPC_URL", "SWAPIO_RPC", "SWAPIO_WS", "SWAPIO_POOL", "SWAPIO_NEIGHBORHOOD_SIZE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Empty(t, cfg.WSURL)
	assert.Equal(t, "SWPammPnp7L9qFgV436u3CSPmcxU6ZQm6ttawzDTRuw", cfg.ProgramID)
	assert.Equal(t, "HR1xNcU5XPHpEZDsEknw22oPFELk1VGyBzoSaCJrL926", cfg.Pool)
	assert.Equal(t, 5, cfg.NeighborhoodSize)
	assert.Equal(t, 8.0, cfg.RPS)
	assert.Equal(t, "0.005", cfg.Slippage)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEndpointPrecedence(t *testing.T) {
	testCases := []struct {
		name  string
		env   map[string]string
		flags []string
		want  string
	}{
		{"solana env fallback", map[string]string{"SOLANA_RPC_URL": "http://solana-env"}, nil, "http://solana-env"},
		{"prefixed env wins", map[string]string{"SOLANA_RPC_URL": "http://solana-env", "SWAPIO_RPC": "http://swapio-env"}, nil, "http://swapio-env"},
		{"flag wins", map[string]string{"SOLANA_RPC_URL": "http://solana-env"}, []string{"--rpc=http://flag"}, "http://flag"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.String("rpc", "", "")
			require.NoError(t, fs.Parse(tc.flags))

			cfg, err := LoadConfig("", fs)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.RPCURL)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOLANA_WS_RPC_URL", "wss://ignored")

	path := filepath.Join(t.TempDir(), "swapio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ws: wss://from-file
neighborhood-size: 3
refresh-interval: 2s
redis-addr: localhost:6379
`), 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "wss://from-file", cfg.WSURL)
	assert.Equal(t, 3, cfg.NeighborhoodSize)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SWAPIO_NEIGHBORHOOD_SIZE", "0")
	_, err := LoadConfig("", nil)
	assert.ErrorContains(t, err, "neighborhood-size")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "read config")
}
