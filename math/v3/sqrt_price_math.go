package v3

import (
	"errors"

	"github.com/7suyash7/arbengine/fixedpoint"
	"github.com/holiman/uint256"
)

// ErrOverflow signals a 256-bit overflow inside a sqrt-price computation.
var ErrOverflow = errors.New("v3: arithmetic overflow")

// GetAmount0Delta computes the amount of token0 required to move the price
// from sqrtRatioAX96 to sqrtRatioBX96 for the given liquidity.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return nil, ErrOverflow
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		n, overflow := fixedpoint.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96)
		if overflow {
			return nil, ErrOverflow
		}
		return v3DivRoundingUp(n, sqrtRatioAX96), nil
	}
	n, overflow := fixedpoint.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if overflow {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Div(n, sqrtRatioAX96), nil
}

func v3DivRoundingUp(x, y *uint256.Int) *uint256.Int {
	return DivRoundingUp(x, y)
}

// GetAmount1Delta computes the amount of token1 required to move the price
// from sqrtRatioAX96 to sqrtRatioBX96 for the given liquidity.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		out, overflow := fixedpoint.MulDivRoundingUp(liquidity, diff, Q96)
		if overflow {
			return nil, ErrOverflow
		}
		return out, nil
	}
	out, overflow := fixedpoint.MulDiv(liquidity, diff, Q96)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// GetNextSqrtPriceFromAmount0RoundingUp computes the new sqrt price after
// adding or removing amount of token0 at the given liquidity.
func GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	if add {
		product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
		if !overflow {
			denominator := new(uint256.Int).Add(numerator1, product)
			if denominator.Cmp(numerator1) >= 0 {
				out, overflow := fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
				if overflow {
					return nil, ErrOverflow
				}
				return out, nil
			}
		}
		denom := new(uint256.Int).Div(numerator1, sqrtPX96)
		denom.Add(denom, amount)
		return DivRoundingUp(numerator1, denom), nil
	}

	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
	if overflow || numerator1.Cmp(product) <= 0 {
		return nil, ErrOverflow
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	out, overflow := fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// GetNextSqrtPriceFromAmount1RoundingDown computes the new sqrt price after
// adding or removing amount of token1 at the given liquidity.
func GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		quotient, overflow := fixedpoint.MulDiv(amount, Q96, liquidity)
		if overflow {
			return nil, ErrOverflow
		}
		out := new(uint256.Int).Add(sqrtPX96, quotient)
		return out, nil
	}
	quotient, overflow := fixedpoint.MulDivRoundingUp(amount, Q96, liquidity)
	if overflow {
		return nil, ErrOverflow
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}

// GetNextSqrtPriceFromInput derives the sqrt price after swapping amountIn
// of the input token in the given direction.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() || liquidity.IsZero() {
		return nil, ErrOverflow
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput derives the sqrt price after swapping amountOut
// of the output token in the given direction.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() || liquidity.IsZero() {
		return nil, ErrOverflow
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}
