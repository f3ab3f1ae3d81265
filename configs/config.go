// Package configs loads the engine's YAML configuration, following the
// teacher's configs/config.go shape: a flat struct-tagged YAML document
// plus converter methods onto the domain types the rest of the module
// actually consumes.
package configs

import (
	"fmt"
	"math/big"
	"os"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/arbitrage"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config is the entire configuration structure loaded from config.yml.
type Config struct {
	RPC          string           `yaml:"rpc"`
	RegistryDSN  string           `yaml:"registry_dsn"`
	AnchorToken  TokenYAMLData    `yaml:"anchor_token"`
	MaxHops      int              `yaml:"max_hops"`
	Optimizer    OptimizerYAMLData `yaml:"optimizer"`
	TickInterval int              `yaml:"tick_interval_sec"`
}

// TokenYAMLData identifies the profit anchor token (WETH by default, per
// spec §4.D).
type TokenYAMLData struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// OptimizerYAMLData carries the per-block constants spec §4.F/§4.G name as
// "overridable; defaults" — all optional, zero (or empty) means "use the
// package default". The bounds, profit floor and slippage are applied by
// cmd/arbengine; FlashloanFeeBps and EstimatedGasUnits are parsed but not
// applied, and the engine always uses arbitrage.FlashloanFeeBps and
// arbitrage.EstimatedGasUnits.
type OptimizerYAMLData struct {
	LowerBoundWei        string `yaml:"lower_bound_wei"`
	UpperBoundWei        string `yaml:"upper_bound_wei"`
	FlashloanFeeBps      uint64 `yaml:"flashloan_fee_bps"`
	EstimatedGasUnits    uint64 `yaml:"estimated_gas_units"`
	MinNetProfitWei      string `yaml:"min_net_profit_wei"`
	SlippageBps          uint64 `yaml:"slippage_bps"`
}

// LoadConfig reads and parses config.yml into a Config struct.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &config, nil
}

// ToAnchorToken converts the YAML anchor-token block into arbengine.Token,
// falling back to arbengine.WETH when the config omits it.
func (c *Config) ToAnchorToken() arbengine.Token {
	if c.AnchorToken.Address == "" {
		return arbengine.WETH
	}
	return arbengine.Token{
		Address:  common.HexToAddress(c.AnchorToken.Address),
		Symbol:   c.AnchorToken.Symbol,
		Decimals: c.AnchorToken.Decimals,
	}
}

// ToOptimizerBounds converts the configured lower/upper search bounds to
// big.Int wei amounts, defaulting to spec §4.F's 0.1 / 50 ETH-equivalent
// interval when unset.
func (c *Config) ToOptimizerBounds() (lower, upper *big.Int) {
	lower = bigOrDefault(c.Optimizer.LowerBoundWei, big.NewInt(100_000_000_000_000_000)) // 0.1 ETH
	upper = bigOrDefault(c.Optimizer.UpperBoundWei, new(big.Int).Mul(big.NewInt(50), big.NewInt(1_000_000_000_000_000_000)))
	return lower, upper
}

// ToMinNetProfit converts the configured profit floor, defaulting to
// arbitrage.MinNetProfitThreshold.
func (c *Config) ToMinNetProfit() *big.Int {
	return bigOrDefault(c.Optimizer.MinNetProfitWei, big.NewInt(arbitrage.MinNetProfitThreshold))
}

func bigOrDefault(s string, def *big.Int) *big.Int {
	if s == "" {
		return def
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return def
	}
	return v
}
