package pool

import (
	"testing"

	"github.com/7suyash7/arbengine"
	v3math "github.com/7suyash7/arbengine/math/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestV3CalculateTokensOutZeroIsZero(t *testing.T) {
	p := &V3Pool{
		Addr:        common.HexToAddress("0x1"),
		Token0:      arbengine.Token{Address: common.HexToAddress("0xA")},
		Token1:      arbengine.Token{Address: common.HexToAddress("0xB")},
		FeePips:     3000,
		TickSpacing: 60,
	}
	snap := NewV3Snapshot(&V3Snapshot{
		SqrtPriceX96: v3math.Q96,
		Tick:         0,
		Liquidity:    uint256.NewInt(1_000_000_000_000),
	})

	out, err := p.CalculateTokensOut(p.Token0.Address, p.Token1.Address, new(uint256.Int), snap)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestV3CalculateTokensOutWithinSingleTickRange(t *testing.T) {
	p := &V3Pool{
		Addr:        common.HexToAddress("0x1"),
		Token0:      arbengine.Token{Address: common.HexToAddress("0xA")},
		Token1:      arbengine.Token{Address: common.HexToAddress("0xB")},
		FeePips:     3000,
		TickSpacing: 60,
	}
	snap := NewV3Snapshot(&V3Snapshot{
		SqrtPriceX96: v3math.Q96,
		Tick:         0,
		Liquidity:    new(uint256.Int).Mul(uint256.NewInt(1_000_000), v3math.Q96),
		// No bitmap words populated and no fetcher: the traversal treats
		// every word as all-zero, i.e. no initialized ticks nearby, so each
		// step targets the current word's boundary tick.
	})

	amountIn := new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(1_000_000_000_000_000_000))
	out, err := p.CalculateTokensOut(p.Token0.Address, p.Token1.Address, amountIn, snap)
	require.NoError(t, err)
	assert.False(t, out.IsZero())
	assert.True(t, out.Cmp(amountIn) < 0, "fee and price impact should leave output below input at parity price")
}

func TestV3WrongTokenPairErrors(t *testing.T) {
	p := &V3Pool{
		Addr:   common.HexToAddress("0x1"),
		Token0: arbengine.Token{Address: common.HexToAddress("0xA")},
		Token1: arbengine.Token{Address: common.HexToAddress("0xB")},
	}
	snap := NewV3Snapshot(&V3Snapshot{
		SqrtPriceX96: v3math.Q96,
		Liquidity:    uint256.NewInt(1),
	})
	_, err := p.CalculateTokensOut(common.HexToAddress("0xC"), p.Token1.Address, uint256.NewInt(1), snap)
	assert.Error(t, err)
}
