package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestMulDownRoundsTowardZero(t *testing.T) {
	a := uint256.NewInt(3)
	b := new(uint256.Int).Mul(WAD, uint256.NewInt(2))
	b.Div(b, uint256.NewInt(3)) // 0.666... WAD

	out, overflow := MulDown(a, b)
	assert.False(t, overflow)
	// 3 * 0.666...e18 / 1e18 = 1.999...; rounding toward zero gives 1.
	assert.Equal(t, uint64(1), out.Uint64())
}

func TestComplement(t *testing.T) {
	half := new(uint256.Int).Div(WAD, uint256.NewInt(2))
	c := Complement(half)
	assert.Equal(t, half.Uint64(), c.Uint64())

	above := new(uint256.Int).Mul(WAD, uint256.NewInt(2))
	assert.Equal(t, uint64(0), Complement(above).Uint64())
}

func TestDivUpRoundsAwayFromZero(t *testing.T) {
	a := uint256.NewInt(1)
	b := new(uint256.Int).Mul(WAD, uint256.NewInt(3))
	out, overflow := DivUp(a, b)
	assert.False(t, overflow)
	assert.True(t, out.Sign() > 0)
}
