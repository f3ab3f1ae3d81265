package v3

import (
	"github.com/7suyash7/arbengine/fixedpoint"
	"github.com/holiman/uint256"
)

// feeDenominator is the fee-pips scale (parts per million).
var feeDenominator = uint256.NewInt(1_000_000)

// SwapStep is the outcome of a single tick-to-tick price movement inside a
// swap traversal.
type SwapStep struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep computes the result of swapping within a single tick
// range, bounded by sqrtRatioTargetX96, for either an exact-input or
// exact-output amount. feePips is in hundredths of a basis point (e.g. 3000
// = 0.3%).
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int, exactIn bool, feePips uint32) (*SwapStep, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	feePipsU := uint256.NewInt(uint64(feePips))

	var sqrtRatioNextX96, amountIn, amountOut *uint256.Int
	var err error

	if exactIn {
		remainingLessFee, overflow := fixedpoint.MulDiv(amountRemaining, new(uint256.Int).Sub(feeDenominator, feePipsU), feeDenominator)
		if overflow {
			return nil, ErrOverflow
		}
		if zeroForOne {
			amountIn, err = GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn, err = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return nil, err
		}
		if remainingLessFee.Cmp(amountIn) >= 0 {
			sqrtRatioNextX96 = sqrtRatioTargetX96
		} else {
			sqrtRatioNextX96, err = GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if zeroForOne {
			amountOut, err = GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut, err = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return nil, err
		}
		if amountRemaining.Cmp(amountOut) >= 0 {
			sqrtRatioNextX96 = sqrtRatioTargetX96
		} else {
			sqrtRatioNextX96, err = GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
	}

	max := sqrtRatioTargetX96.Cmp(sqrtRatioNextX96) == 0

	if zeroForOne {
		if !(max && exactIn) {
			amountIn, err = GetAmount0Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		if !(max && !exactIn) {
			amountOut, err = GetAmount1Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if !(max && exactIn) {
			amountIn, err = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		if !(max && !exactIn) {
			amountOut, err = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false)
			if err != nil {
				return nil, err
			}
		}
	}

	if !exactIn && amountOut.Cmp(amountRemaining) > 0 {
		amountOut = new(uint256.Int).Set(amountRemaining)
	}

	var feeAmount *uint256.Int
	if exactIn && sqrtRatioNextX96.Cmp(sqrtRatioTargetX96) != 0 {
		feeAmount = new(uint256.Int).Sub(amountRemaining, amountIn)
	} else {
		denom := new(uint256.Int).Sub(feeDenominator, feePipsU)
		if denom.IsZero() {
			feeAmount = uint256.NewInt(0)
		} else {
			var overflow bool
			feeAmount, overflow = fixedpoint.MulDivRoundingUp(amountIn, feePipsU, denom)
			if overflow {
				return nil, ErrOverflow
			}
		}
	}

	return &SwapStep{
		SqrtRatioNextX96: sqrtRatioNextX96,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}, nil
}
