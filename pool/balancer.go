package pool

import (
	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/math/balancer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CalculateTokensOut prices a weighted-pool swap: scales both balances to
// WAD, deducts the swap fee from the input, runs the weighted invariant
// formula, then downscales the output back to the output token's decimals.
func (p *BalancerPool) CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyBalancer || snap.Balancer == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	i := tokenIndex(p.Tokens_, tokenIn)
	j := tokenIndex(p.Tokens_, tokenOut)
	if i < 0 || j < 0 || i == j {
		return nil, arbengine.ArithmeticFailure("balancer token pair not in pool")
	}

	sfIn := balancerScalingFactor(p.Tokens_[i].Decimals)
	sfOut := balancerScalingFactor(p.Tokens_[j].Decimals)

	scaledIn, err := balancer.Upscale(amountIn, sfIn)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale amount_in: " + err.Error())
	}
	balanceIn, err := balancer.Upscale(snap.Balancer.Balances[i], sfIn)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale balance_in: " + err.Error())
	}
	balanceOut, err := balancer.Upscale(snap.Balancer.Balances[j], sfOut)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale balance_out: " + err.Error())
	}

	amountInAfterFee, err := balancer.SubtractSwapFeeAmount(scaledIn, p.Fee)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer swap fee: " + err.Error())
	}

	scaledOut, err := balancer.CalcOutGivenIn(balanceIn, p.Weights[i], balanceOut, p.Weights[j], amountInAfterFee)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer calc_out_given_in: " + err.Error())
	}

	return balancer.DownscaleDown(scaledOut, sfOut)
}

// CalculateTokensIn inverts CalculateTokensOut via Balancer's public
// in-given-out formula, adding a +1 wei rounding term.
func (p *BalancerPool) CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyBalancer || snap.Balancer == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountOut.IsZero() {
		return new(uint256.Int), nil
	}

	i := tokenIndex(p.Tokens_, tokenIn)
	j := tokenIndex(p.Tokens_, tokenOut)
	if i < 0 || j < 0 || i == j {
		return nil, arbengine.ArithmeticFailure("balancer token pair not in pool")
	}

	sfIn := balancerScalingFactor(p.Tokens_[i].Decimals)
	sfOut := balancerScalingFactor(p.Tokens_[j].Decimals)

	balanceIn, err := balancer.Upscale(snap.Balancer.Balances[i], sfIn)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale balance_in: " + err.Error())
	}
	balanceOut, err := balancer.Upscale(snap.Balancer.Balances[j], sfOut)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale balance_out: " + err.Error())
	}
	scaledOut, err := balancer.Upscale(amountOut, sfOut)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer upscale amount_out: " + err.Error())
	}

	scaledInBeforeFee, err := balancer.CalcInGivenOut(balanceIn, p.Weights[i], balanceOut, p.Weights[j], scaledOut)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer calc_in_given_out: " + err.Error())
	}

	// Re-derive the pre-fee input: amount_in_after_fee = amount_in*(1-f), so
	// amount_in = amount_in_after_fee / (1-f), rounding up.
	complement := new(uint256.Int)
	if p.Fee.Cmp(oneWad) >= 0 {
		return nil, arbengine.ArithmeticFailure("balancer fee >= 1.0")
	}
	complement.Sub(oneWad, p.Fee)

	grossed, err := divWadUp(scaledInBeforeFee, complement)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("balancer fee inversion: " + err.Error())
	}

	amountIn, err := balancer.DownscaleUp(grossed, sfIn)
	if err != nil {
		return nil, err
	}
	return amountIn.Add(amountIn, uint256.NewInt(1)), nil
}

var oneWad = uint256.NewInt(1_000_000_000_000_000_000)

func balancerScalingFactor(decimals uint8) *uint256.Int {
	return balancer.ComputeScalingFactor(decimals)
}

// divWadUp divides two WAD fixed-point numbers rounding up, used locally to
// invert the swap-fee deduction.
func divWadUp(a, b *uint256.Int) (*uint256.Int, error) {
	num, overflow := new(uint256.Int).MulOverflow(a, oneWad)
	if overflow {
		return nil, arbengine.ArithmeticFailure("div_wad_up overflow")
	}
	q := new(uint256.Int).Div(num, b)
	rem := new(uint256.Int).Mod(num, b)
	if !rem.IsZero() {
		q.Add(q, uint256.NewInt(1))
	}
	return q, nil
}
