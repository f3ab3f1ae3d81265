package pool

import (
	"testing"

	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wbtcWethPool() (*V2Pool, PoolSnapshot) {
	p := &V2Pool{
		Addr:   common.HexToAddress("0xBB2b8038a1640196FbE3e38816F3e67Cba72D940"),
		Token0: arbengine.Token{Address: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8},
		Token1: arbengine.Token{Address: arbengine.WETH.Address, Decimals: 18},
		FeeBps: 30,
	}
	snap := NewV2Snapshot(&V2Snapshot{
		Reserve0: new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(100_000_000)),    // 1000 WBTC
		Reserve1: new(uint256.Int).Mul(uint256.NewInt(15000), uint256.NewInt(1_000_000_000_000_000_000)), // 15000 WETH
	})
	return p, snap
}

func TestV2ZeroInputIsZeroOutput(t *testing.T) {
	p, snap := wbtcWethPool()
	out, err := p.CalculateTokensOut(p.Token0.Address, p.Token1.Address, new(uint256.Int), snap)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestV2MonotonicOutput(t *testing.T) {
	p, snap := wbtcWethPool()
	var prev *uint256.Int
	for _, amt := range []uint64{1, 10, 100, 1000} {
		out, err := p.CalculateTokensOut(p.Token0.Address, p.Token1.Address, uint256.NewInt(amt*100_000_000), snap)
		require.NoError(t, err)
		if prev != nil {
			assert.True(t, out.Cmp(prev) > 0)
		}
		prev = out
	}
}

func TestV2InverseRoundTripRoundsUp(t *testing.T) {
	p, snap := wbtcWethPool()
	amountIn := uint256.NewInt(100_000_000) // 1 WBTC
	out, err := p.CalculateTokensOut(p.Token0.Address, p.Token1.Address, amountIn, snap)
	require.NoError(t, err)

	back, err := p.CalculateTokensIn(p.Token0.Address, p.Token1.Address, out, snap)
	require.NoError(t, err)
	assert.True(t, back.Cmp(amountIn) >= 0)
}

func TestV2RejectsUnknownTokenPair(t *testing.T) {
	p, snap := wbtcWethPool()
	_, err := p.CalculateTokensOut(common.HexToAddress("0xdead"), p.Token1.Address, uint256.NewInt(1), snap)
	assert.Error(t, err)
}
