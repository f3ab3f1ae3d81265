package pool

import (
	"testing"

	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balWethPool() (*BalancerPool, PoolSnapshot) {
	p := &BalancerPool{
		Addr: common.HexToAddress("0x5c6Ee304399DBdB9C8Ef030aB642B10820DB8F56"),
		Tokens_: []arbengine.Token{
			{Address: common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3"), Decimals: 18}, // BAL
			{Address: arbengine.WETH.Address, Decimals: 18},
		},
		Weights: []*uint256.Int{
			new(uint256.Int).Mul(uint256.NewInt(8), uint256.NewInt(100_000_000_000_000_000)), // 0.8e18
			new(uint256.Int).Mul(uint256.NewInt(2), uint256.NewInt(100_000_000_000_000_000)), // 0.2e18
		},
		Fee: uint256.NewInt(1_500_000_000_000_000), // 0.15%
	}
	snap := NewBalancerSnapshot(&BalancerSnapshot{
		Balances: []*uint256.Int{
			new(uint256.Int).Mul(uint256.NewInt(1_000_000), uint256.NewInt(1_000_000_000_000_000_000)), // 1M BAL
			new(uint256.Int).Mul(uint256.NewInt(100_000), uint256.NewInt(1_000_000_000_000_000_000)),   // 100k WETH
		},
	})
	return p, snap
}

func TestBalancerZeroInputIsZero(t *testing.T) {
	p, snap := balWethPool()
	out, err := p.CalculateTokensOut(p.Tokens_[0].Address, p.Tokens_[1].Address, new(uint256.Int), snap)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestBalancerCalcOutGivenInMonotonic(t *testing.T) {
	p, snap := balWethPool()
	var prev *uint256.Int
	for _, amt := range []uint64{1_000, 10_000, 100_000} {
		in := new(uint256.Int).Mul(uint256.NewInt(amt), uint256.NewInt(1_000_000_000_000_000_000))
		out, err := p.CalculateTokensOut(p.Tokens_[0].Address, p.Tokens_[1].Address, in, snap)
		require.NoError(t, err)
		if prev != nil {
			assert.True(t, out.Cmp(prev) > 0)
		}
		prev = out
	}
}

func TestBalancerInverseRoundTripRoundsUp(t *testing.T) {
	p, snap := balWethPool()
	amountIn := new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(1_000_000_000_000_000_000))
	out, err := p.CalculateTokensOut(p.Tokens_[0].Address, p.Tokens_[1].Address, amountIn, snap)
	require.NoError(t, err)

	back, err := p.CalculateTokensIn(p.Tokens_[0].Address, p.Tokens_[1].Address, out, snap)
	require.NoError(t, err)
	assert.True(t, back.Cmp(amountIn) >= 0)
}

func TestBalancerRejectsUnknownTokenPair(t *testing.T) {
	p, snap := balWethPool()
	_, err := p.CalculateTokensOut(common.HexToAddress("0xdead"), p.Tokens_[1].Address, uint256.NewInt(1), snap)
	assert.Error(t, err)
}
