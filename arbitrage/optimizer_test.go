package arbitrage

import (
	"math/big"
	"testing"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/graph"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parabolaPool is a synthetic single-hop pool whose gross-profit function
// g(x) = out(x) - x is a known parabola peaking at x0, used to test the
// optimizer's ability to recover a unimodal maximum without depending on
// any real pricing formula.
type parabolaPool struct {
	addr       common.Address
	tokenA     arbengine.Token
	tokenB     arbengine.Token
	x0         *big.Int
	peakProfit *big.Int
	curvature  *big.Int // larger = flatter parabola
}

func (p *parabolaPool) Address() common.Address  { return p.addr }
func (p *parabolaPool) Family() pool.Family       { return pool.FamilyV2 }
func (p *parabolaPool) Tokens() []arbengine.Token { return []arbengine.Token{p.tokenA, p.tokenB} }

func (p *parabolaPool) CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap pool.PoolSnapshot) (*uint256.Int, error) {
	x := amountIn.ToBig()
	diff := new(big.Int).Sub(x, p.x0)
	sq := new(big.Int).Mul(diff, diff)
	sq.Div(sq, p.curvature)
	gx := new(big.Int).Sub(p.peakProfit, sq)

	out := new(big.Int).Add(x, gx)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	v, overflow := uint256.FromBig(out)
	if overflow {
		return nil, arbengine.ArithmeticFailure("parabola overflow")
	}
	return v, nil
}

func (p *parabolaPool) CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap pool.PoolSnapshot) (*uint256.Int, error) {
	return nil, arbengine.ArithmeticFailure("not supported")
}

func syntheticCycle() (graph.Cycle, map[common.Address]pool.PoolSnapshot) {
	p := &parabolaPool{
		addr:       common.HexToAddress("0xF00D"),
		tokenA:     arbengine.Token{Address: common.HexToAddress("0xA"), Decimals: 18},
		tokenB:     arbengine.Token{Address: common.HexToAddress("0xB"), Decimals: 18},
		x0:         big.NewInt(0).SetUint64(10_000_000_000_000_000_000), // 10 ETH-equivalent
		peakProfit: big.NewInt(0).SetUint64(5_000_000_000_000_000_000),  // 5 ETH-equivalent
		curvature:  new(big.Int).Mul(big.NewInt(1_000), big.NewInt(1_000_000_000_000_000_000)),
	}
	cyc := graph.Cycle{
		Pools:  []pool.LiquidityPool{p},
		Tokens: []common.Address{p.tokenA.Address, p.tokenB.Address},
	}
	snaps := map[common.Address]pool.PoolSnapshot{
		p.Address(): pool.NewV2Snapshot(&pool.V2Snapshot{Reserve0: uint256.NewInt(1), Reserve1: uint256.NewInt(1)}),
	}
	return cyc, snaps
}

func TestFindOptimalInputRecoversParabolaPeak(t *testing.T) {
	cyc, snaps := syntheticCycle()
	a := uint256.NewInt(100_000_000_000_000_000)     // 0.1 ETH
	b := new(uint256.Int).Mul(uint256.NewInt(50), uint256.NewInt(1_000_000_000_000_000_000)) // 50 ETH

	xStar, profit, err := FindOptimalInput(cyc, snaps, a, b)
	require.NoError(t, err)

	expectedPeak := big.NewInt(0).SetUint64(10_000_000_000_000_000_000)
	diff := new(big.Int).Sub(xStar.ToBig(), expectedPeak)
	diff.Abs(diff)
	// Golden-section tolerance is 10^15; allow a small multiple of slack
	// for the discrete narrowing steps.
	assert.True(t, diff.Cmp(big.NewInt(10_000_000_000_000_000)) < 0, "recovered peak %s not close to expected %s", xStar.Dec(), expectedPeak.String())
	assert.True(t, profit.Sign() > 0)
}

func TestFindMaxCapacityMonotoneInThreshold(t *testing.T) {
	cyc, snaps := syntheticCycle()
	xStar := uint256.NewInt(10_000_000_000_000_000_000)
	upper := new(uint256.Int).Mul(uint256.NewInt(50), uint256.NewInt(1_000_000_000_000_000_000))
	gas := new(uint256.Int)

	// Lower the threshold via a smaller gas cost (acts as a proxy for a
	// lower effective threshold since net = gross - fee - gas).
	capLow, err := FindMaxCapacity(cyc, snaps, xStar, upper, gas)
	require.NoError(t, err)

	higherGas := uint256.NewInt(4_000_000_000_000_000_000)
	capHigh, err := FindMaxCapacity(cyc, snaps, xStar, upper, higherGas)
	require.NoError(t, err)

	assert.True(t, capLow.Cmp(capHigh) >= 0, "capacity should shrink (or stay) as the effective threshold rises")
}
