// Package fixedpoint implements the 256/512-bit WAD fixed-point arithmetic
// shared by every pool pricing model: mul/div with explicit rounding
// direction, complement, and the pow/exp/ln kernel used by Balancer's
// weighted-pool math.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// WAD is the fixed-point unit, 10^18.
var WAD = uint256.NewInt(1_000_000_000_000_000_000)

// MulDiv computes x*y/d with a 512-bit intermediate product, rounding
// toward zero. It reports overflow if the result does not fit in 256 bits.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, bool) {
	if d.IsZero() {
		return nil, true
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	return z, overflow
}

// MulDivRoundingUp is MulDiv with the remainder rounded away from zero.
func MulDivRoundingUp(x, y, d *uint256.Int) (*uint256.Int, bool) {
	z, overflow := MulDiv(x, y, d)
	if overflow {
		return nil, true
	}
	// mulmod(x, y, d) != 0 => round up.
	xb, yb, db := x.ToBig(), y.ToBig(), d.ToBig()
	prod := new(big.Int).Mul(xb, yb)
	rem := new(big.Int).Mod(prod, db)
	if rem.Sign() != 0 {
		one := uint256.NewInt(1)
		sum, carry := new(uint256.Int).AddOverflow(z, one)
		if carry {
			return nil, true
		}
		z = sum
	}
	return z, false
}

// MulDown multiplies two WAD fixed-point numbers, rounding down.
func MulDown(a, b *uint256.Int) (*uint256.Int, bool) {
	return MulDiv(a, b, WAD)
}

// MulUp multiplies two WAD fixed-point numbers, rounding up.
func MulUp(a, b *uint256.Int) (*uint256.Int, bool) {
	if a.IsZero() || b.IsZero() {
		return uint256.NewInt(0), false
	}
	return MulDivRoundingUp(a, b, WAD)
}

// DivDown divides two WAD fixed-point numbers, rounding down.
func DivDown(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, true
	}
	num, overflow := new(uint256.Int).MulOverflow(a, WAD)
	if overflow {
		return MulDiv(a, WAD, b)
	}
	return new(uint256.Int).Div(num, b), false
}

// DivUp divides two WAD fixed-point numbers, rounding up.
func DivUp(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, true
	}
	if a.IsZero() {
		return uint256.NewInt(0), false
	}
	return MulDivRoundingUp(a, WAD, b)
}

// Complement returns max(WAD - x, 0).
func Complement(x *uint256.Int) *uint256.Int {
	if x.Cmp(WAD) >= 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(WAD, x)
}

// ToFloat64 converts a WAD fixed-point value to a float64, used only by the
// viability screen (spec: "never used for profit accounting").
func ToFloat64(x *uint256.Int) float64 {
	f := new(big.Float).SetInt(x.ToBig())
	wadF := new(big.Float).SetInt(WAD.ToBig())
	out, _ := new(big.Float).Quo(f, wadF).Float64()
	return out
}

// U256ToFloat64 converts an arbitrary (non-WAD-scaled) 256-bit integer to a
// float64. Used by the cycle evaluator's viability screen.
func U256ToFloat64(x *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return f
}
