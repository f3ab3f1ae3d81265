package pool

import (
	"github.com/7suyash7/arbengine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var feeDenomV2 = uint256.NewInt(10000)

// CalculateTokensOut prices a constant-product swap:
//
//	amountOut = (amountIn * (10000 - feeBps) * reserveOut) / (reserveIn*10000 + amountIn*(10000-feeBps))
func (p *V2Pool) CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyV2 || snap.V2 == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	reserveIn, reserveOut, err := p.orderedReserves(tokenIn, tokenOut, snap.V2)
	if err != nil {
		return nil, err
	}

	feeMultiplier := new(uint256.Int).Sub(feeDenomV2, uint256.NewInt(p.FeeBps))

	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeMultiplier)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 amount_in * fee_multiplier overflow")
	}

	numerator, overflow := new(uint256.Int).MulOverflow(amountInWithFee, reserveOut)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 numerator overflow")
	}

	reserveInScaled, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDenomV2)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 reserve_in * 10000 overflow")
	}
	denominator, overflow := new(uint256.Int).AddOverflow(reserveInScaled, amountInWithFee)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 denominator overflow")
	}
	if denominator.IsZero() {
		return nil, arbengine.ArithmeticFailure("v2 zero denominator")
	}

	return new(uint256.Int).Div(numerator, denominator), nil
}

// CalculateTokensIn inverts CalculateTokensOut, adding the protocol's +1
// wei rounding term so that feeding the result back through
// CalculateTokensOut never returns less than amountOut.
func (p *V2Pool) CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyV2 || snap.V2 == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountOut.IsZero() {
		return new(uint256.Int), nil
	}

	reserveIn, reserveOut, err := p.orderedReserves(tokenIn, tokenOut, snap.V2)
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, arbengine.ArithmeticFailure("v2 amount_out exceeds reserve_out")
	}

	feeMultiplier := new(uint256.Int).Sub(feeDenomV2, uint256.NewInt(p.FeeBps))

	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn, amountOut)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 numerator overflow")
	}
	numerator, overflow = numerator.MulOverflow(numerator, feeDenomV2)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 numerator overflow")
	}

	denominator := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator, overflow = denominator.MulOverflow(denominator, feeMultiplier)
	if overflow {
		return nil, arbengine.ArithmeticFailure("v2 denominator overflow")
	}
	if denominator.IsZero() {
		return nil, arbengine.ArithmeticFailure("v2 zero denominator")
	}

	amountIn := new(uint256.Int).Div(numerator, denominator)
	return amountIn.Add(amountIn, uint256.NewInt(1)), nil
}

func (p *V2Pool) orderedReserves(tokenIn, tokenOut common.Address, snap *V2Snapshot) (reserveIn, reserveOut *uint256.Int, err error) {
	switch {
	case tokenIn == p.Token0.Address && tokenOut == p.Token1.Address:
		return snap.Reserve0, snap.Reserve1, nil
	case tokenIn == p.Token1.Address && tokenOut == p.Token0.Address:
		return snap.Reserve1, snap.Reserve0, nil
	default:
		return nil, nil, arbengine.ArithmeticFailure("v2 token pair not in pool")
	}
}
