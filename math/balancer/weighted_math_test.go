package balancer

import (
	"testing"

	"github.com/7suyash7/arbengine/fixedpoint"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wad(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), fixedpoint.WAD)
}

func TestCalculateInvariantEvenPool(t *testing.T) {
	weights := []*uint256.Int{
		new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2)),
		new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2)),
	}
	balances := []*uint256.Int{wad(100), wad(100)}
	v, err := CalculateInvariant(weights, balances)
	require.NoError(t, err)
	assert.False(t, v.IsZero())
}

func Test80_20CalcOutGivenInMonotonic(t *testing.T) {
	// An 80/20 BAL/WETH pool: weight_in = 0.8 WAD, weight_out = 0.2 WAD.
	weightIn := new(uint256.Int).Mul(uint256.NewInt(8), new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(10)))
	weightOut := new(uint256.Int).Mul(uint256.NewInt(2), new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(10)))
	balanceIn := wad(1_000_000)
	balanceOut := wad(10_000)

	inputs := []uint64{1000, 10000, 100000}
	var prevOut *uint256.Int
	for _, amt := range inputs {
		out, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, wad(amt))
		require.NoError(t, err)
		if prevOut != nil {
			assert.True(t, out.Cmp(prevOut) > 0, "output should increase with input size")
		}
		prevOut = out
	}
}

func TestCalcOutGivenInRejectsOverMaxInRatio(t *testing.T) {
	weightIn := new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2))
	weightOut := new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2))
	balanceIn := wad(100)
	balanceOut := wad(100)

	_, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, wad(40))
	assert.ErrorIs(t, err, ErrMaxInRatio)
}

func TestCalcInGivenOutRoundTripsCloseToCalcOutGivenIn(t *testing.T) {
	weightIn := new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2))
	weightOut := new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(2))
	balanceIn := wad(1_000_000)
	balanceOut := wad(1_000_000)

	amountIn := wad(1000)
	out, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn)
	require.NoError(t, err)

	back, err := CalcInGivenOut(balanceIn, weightIn, balanceOut, weightOut, out)
	require.NoError(t, err)

	// Rounding is conservative in both directions, so the round trip should
	// never require strictly less input than the original amount.
	assert.True(t, back.Cmp(amountIn) >= 0)
}
