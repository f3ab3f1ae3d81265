// Package v3 implements the Uniswap V3 concentrated-liquidity math kernels:
// tick <-> sqrt-price conversion, per-step swap math, and the tick bitmap
// used to locate the next initialized tick during a swap traversal. Every
// function here is a pure, bit-exact port of the published reference
// arithmetic; nothing here touches chain state.
package v3

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick: log_1.0001(2^-128) rounded toward zero.
	MinTick = -887272
	// MaxTick is the maximum tick, the negation of MinTick.
	MaxTick = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick, Q96 fixed point.
	MinSqrtRatio = mustFromDecimal("4295128739")
	// MaxSqrtRatio is the sqrt price at MaxTick, Q96 fixed point.
	MaxSqrtRatio = mustFromDecimal("1461446703485210103287273052203988822378723970342")

	// Q96 is 2^96, the fixed-point scale for sqrtPriceX96.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	// sqrt10001 and tickLow/tickHigh are the signed, 2^128-scaled constants
	// used by getTickAtSqrtRatio's binary-logarithm approximation. They are
	// kept as math/big.Int because the approximation is genuinely signed
	// arithmetic, unlike every other V3 quantity.
	sqrt10001 = big.NewInt(0).SetInt64(0) // replaced below, see init
	tickLow   = big.NewInt(0)
	tickHigh  = big.NewInt(0)
)

func init() {
	sqrt10001.SetString("255738958999603826347141", 10)
	tickLow.SetString("-3402992956809132418596140100660247210", 10)
	tickHigh.SetString("291339464771989622907027621153398088495", 10)
}

func mustFromDecimal(s string) *uint256.Int {
	z, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return z
}
