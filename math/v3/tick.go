package v3

import "github.com/holiman/uint256"

// TickInfo is the per-tick state populated lazily during swap traversal,
// mirroring spec 3's tick_data entries.
type TickInfo struct {
	LiquidityGross *uint256.Int
	LiquidityNet   *big256Signed
}

// big256Signed is a signed 128-bit-range liquidity delta. liquidity_net can
// be negative (a position's upper tick removes liquidity on the way up).
type big256Signed struct {
	Abs *uint256.Int
	Neg bool
}

// NewSignedDelta builds a signed delta from a magnitude and sign.
func NewSignedDelta(abs *uint256.Int, neg bool) *big256Signed {
	return &big256Signed{Abs: abs, Neg: neg}
}

// TickSpacingToMaxLiquidityPerTick computes the maximum liquidity_gross a
// single initialized tick may hold, given the pool's tick spacing.
func TickSpacingToMaxLiquidityPerTick(tickSpacing int) *uint256.Int {
	minTickCompressed := MinTick / tickSpacing
	maxTickCompressed := MaxTick / tickSpacing
	numTicks := uint64(maxTickCompressed-minTickCompressed) + 1

	maxU128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	return new(uint256.Int).Div(maxU128, uint256.NewInt(numTicks))
}

// AddDelta adds a signed liquidity delta to a liquidity value, matching
// LiquidityMath.addDelta's overflow/underflow checks.
func AddDelta(liquidity *uint256.Int, delta *big256Signed) (*uint256.Int, error) {
	if delta.Neg {
		if liquidity.Cmp(delta.Abs) < 0 {
			return nil, ErrOverflow
		}
		return new(uint256.Int).Sub(liquidity, delta.Abs), nil
	}
	out, overflow := new(uint256.Int).AddOverflow(liquidity, delta.Abs)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}
