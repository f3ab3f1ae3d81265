package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
rpc: "https://eth.example/rpc"
registry_dsn: "root:root@tcp(127.0.0.1:3306)/arbengine"
anchor_token:
  address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
  symbol: "WETH"
  decimals: 18
max_hops: 4
optimizer:
  flashloan_fee_bps: 9
  estimated_gas_units: 700000
  slippage_bps: 5
tick_interval_sec: 12
`

func writeSampleConfig(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeSampleConfig(t)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://eth.example/rpc", cfg.RPC)
	require.Equal(t, 4, cfg.MaxHops)
	require.Equal(t, uint64(9), cfg.Optimizer.FlashloanFeeBps)

	anchor := cfg.ToAnchorToken()
	require.Equal(t, "WETH", anchor.Symbol)
	require.Equal(t, uint8(18), anchor.Decimals)
}

func TestToAnchorToken_DefaultsToWETH(t *testing.T) {
	cfg := &Config{}
	anchor := cfg.ToAnchorToken()
	require.Equal(t, "WETH", anchor.Symbol)
}

func TestToOptimizerBounds_Defaults(t *testing.T) {
	cfg := &Config{}
	lower, upper := cfg.ToOptimizerBounds()
	require.Equal(t, "100000000000000000", lower.String())
	require.Equal(t, "50000000000000000000", upper.String())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yml")
	require.Error(t, err)
}
