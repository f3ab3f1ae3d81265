// Package balancer implements Balancer weighted-pool math: the invariant,
// exact-in/exact-out swap formulas, swap-fee deduction, and the token
// scaling helpers that normalize non-18-decimal balances to WAD before any
// of the above runs.
package balancer

import (
	"errors"

	"github.com/7suyash7/arbengine/fixedpoint"
	"github.com/holiman/uint256"
)

// ErrZeroInvariant signals a weighted pool whose computed invariant is zero,
// which should never happen for a pool holding positive balances.
var ErrZeroInvariant = errors.New("balancer: zero invariant")

// ErrMaxInRatio signals a swap whose input exceeds 30% of the input token's
// balance, the limit Balancer enforces to bound price impact per trade.
var ErrMaxInRatio = errors.New("balancer: amount_in exceeds MAX_IN_RATIO")

// ErrMaxOutRatio is the output-side counterpart of ErrMaxInRatio.
var ErrMaxOutRatio = errors.New("balancer: amount_out exceeds MAX_OUT_RATIO")

// ErrOverflow signals a WAD mul/div/pow intermediate that does not fit in
// 256 bits.
var ErrOverflow = errors.New("balancer: fixed point overflow")

// maxInRatio and maxOutRatio cap a single swap to 30% of the relevant
// token's pool balance.
var (
	maxInRatio  = new(uint256.Int).Mul(uint256.NewInt(3), new(uint256.Int).Div(fixedpoint.WAD, uint256.NewInt(10)))
	maxOutRatio = new(uint256.Int).Set(maxInRatio)
)

func mulDown(a, b *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.MulDown(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func mulUp(a, b *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.MulUp(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func divDown(a, b *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.DivDown(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func divUp(a, b *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.DivUp(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func powUp(x, y *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.PowUp(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func powDown(x, y *uint256.Int) (*uint256.Int, error) {
	v, overflow := fixedpoint.PowDown(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

// CalculateInvariant computes V = prod(balance_i ^ weight_i) for a weighted
// pool, given normalized weights (summing to WAD) and WAD-scaled balances.
func CalculateInvariant(normalizedWeights, balances []*uint256.Int) (*uint256.Int, error) {
	invariant := new(uint256.Int).Set(fixedpoint.WAD)
	for i := range normalizedWeights {
		p, err := powDown(balances[i], normalizedWeights[i])
		if err != nil {
			return nil, err
		}
		v, err := mulDown(invariant, p)
		if err != nil {
			return nil, err
		}
		invariant = v
	}
	if invariant.IsZero() {
		return nil, ErrZeroInvariant
	}
	return invariant, nil
}

// CalcOutGivenIn computes the output amount for a given input, holding the
// invariant fixed:
//
//	amountOut = balanceOut * (1 - (balanceIn / (balanceIn + amountIn)) ^ (weightIn / weightOut))
func CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn *uint256.Int) (*uint256.Int, error) {
	limit, err := mulDown(balanceIn, maxInRatio)
	if err != nil {
		return nil, err
	}
	if amountIn.Cmp(limit) > 0 {
		return nil, ErrMaxInRatio
	}

	denominator := new(uint256.Int).Add(balanceIn, amountIn)
	base, err := divUp(balanceIn, denominator)
	if err != nil {
		return nil, err
	}
	exponent, err := divDown(weightIn, weightOut)
	if err != nil {
		return nil, err
	}
	power, err := powUp(base, exponent)
	if err != nil {
		return nil, err
	}

	return mulDown(balanceOut, fixedpoint.Complement(power))
}

// CalcInGivenOut computes the input amount required to extract a given
// output, holding the invariant fixed:
//
//	amountIn = balanceIn * ((balanceOut / (balanceOut - amountOut)) ^ (weightOut / weightIn) - 1)
func CalcInGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut *uint256.Int) (*uint256.Int, error) {
	limit, err := mulDown(balanceOut, maxOutRatio)
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(limit) > 0 {
		return nil, ErrMaxOutRatio
	}
	if amountOut.Cmp(balanceOut) >= 0 {
		return nil, ErrMaxOutRatio
	}

	remaining := new(uint256.Int).Sub(balanceOut, amountOut)
	base, err := divUp(balanceOut, remaining)
	if err != nil {
		return nil, err
	}
	exponent, err := divUp(weightOut, weightIn)
	if err != nil {
		return nil, err
	}
	power, err := powUp(base, exponent)
	if err != nil {
		return nil, err
	}

	ratio := new(uint256.Int).Sub(power, fixedpoint.WAD)
	return mulUp(balanceIn, ratio)
}

// SubtractSwapFeeAmount removes a swap fee (a WAD-scaled percentage) from an
// input amount before it's fed into CalcOutGivenIn.
func SubtractSwapFeeAmount(amount, feePercentage *uint256.Int) (*uint256.Int, error) {
	feeAmount, err := mulUp(amount, feePercentage)
	if err != nil {
		return nil, err
	}
	if feeAmount.Cmp(amount) >= 0 {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Sub(amount, feeAmount), nil
}
