package pool

import (
	"testing"

	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threePool() (*CurvePool, PoolSnapshot) {
	p := &CurvePool{
		Addr: common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"),
		Tokens_: []arbengine.Token{
			{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18}, // DAI
			{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},  // USDC
			{Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},  // USDT
		},
		Attributes: CurveAttributes{
			Variant:      VariantPlain,
			SwapStrategy: StrategyDefault,
			NCoins:       3,
		},
	}

	rate := new(uint256.Int).Mul(uint256.NewInt(1), curvePrecision)
	snap := NewCurveSnapshot(&CurveSnapshot{
		Balances: []*uint256.Int{
			new(uint256.Int).Mul(uint256.NewInt(10_000_000), uint256.NewInt(1_000_000_000_000_000_000)),
			new(uint256.Int).Mul(uint256.NewInt(10_000_000), uint256.NewInt(1_000_000)),
			new(uint256.Int).Mul(uint256.NewInt(10_000_000), uint256.NewInt(1_000_000)),
		},
		APrecise: new(uint256.Int).Mul(uint256.NewInt(2000), uint256.NewInt(100)),
		Fee:      uint256.NewInt(1_000_000), // 0.01% in FEE_DENOMINATOR=10^10 units
		Rates: []*uint256.Int{
			rate,
			new(uint256.Int).Mul(rate, uint256.NewInt(1_000_000_000_000)), // 6-decimal token upscale
			new(uint256.Int).Mul(rate, uint256.NewInt(1_000_000_000_000)),
		},
	})
	return p, snap
}

func TestCurveThreePoolDAIToUSDC(t *testing.T) {
	p, snap := threePool()
	amountIn := new(uint256.Int).Mul(uint256.NewInt(10_000), uint256.NewInt(1_000_000_000_000_000_000)) // 10k DAI

	out, err := p.CalculateTokensOut(p.Tokens_[0].Address, p.Tokens_[1].Address, amountIn, snap)
	require.NoError(t, err)
	assert.False(t, out.IsZero())

	// A balanced stableswap pool should return close to 1:1 (accounting for
	// USDC's 6 decimals): ~10000 * 10^6.
	expected := new(uint256.Int).Mul(uint256.NewInt(10_000), uint256.NewInt(1_000_000))
	diff := new(uint256.Int).Sub(expected, out)
	if out.Cmp(expected) > 0 {
		diff = new(uint256.Int).Sub(out, expected)
	}
	ratio := new(uint256.Int).Div(new(uint256.Int).Mul(diff, uint256.NewInt(10000)), expected)
	assert.True(t, ratio.Cmp(uint256.NewInt(50)) < 0, "deviation from par should be under 50bps, got %s", ratio.Dec())
}

func TestCurveZeroInputIsZero(t *testing.T) {
	p, snap := threePool()
	out, err := p.CalculateTokensOut(p.Tokens_[0].Address, p.Tokens_[1].Address, new(uint256.Int), snap)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}
