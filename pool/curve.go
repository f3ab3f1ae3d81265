package pool

import (
	"github.com/7suyash7/arbengine"
	curvemath "github.com/7suyash7/arbengine/math/curve"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	curvePrecision     = curvemath.Precision
	curveFeeDenominator = curvemath.FeeDenominator
)

func toMathYVariant(g CurveYVariantGroup) curvemath.YVariant {
	switch g {
	case YVariantGroupLegacy0:
		return curvemath.YVariantLegacyGroup0
	case YVariantGroupLegacy1:
		return curvemath.YVariantLegacyGroup1
	default:
		return curvemath.YVariantModern
	}
}

// CalculateTokensOut dispatches to the strategy selected at discovery time
// in p.Attributes.SwapStrategy. Every strategy except Tricrypto (which uses
// NewtonY) calls get_y on the shared Newton solver in math/curve; what
// differs between them is how
// rates, balances (gross vs net-of-admin-fee), and the final dy rounding
// are assembled.
func (p *CurvePool) CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyCurve || snap.Curve == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	i := tokenIndex(p.Tokens_, tokenIn)
	j := tokenIndex(p.Tokens_, tokenOut)
	if i < 0 || j < 0 || i == j {
		return nil, arbengine.ArithmeticFailure("curve token pair not in pool")
	}

	switch p.Attributes.SwapStrategy {
	case StrategyUnscaled, StrategyDynamicFee:
		return p.unscaledSwap(i, j, amountIn, snap.Curve)
	case StrategyTricrypto:
		return p.tricryptoSwap(i, j, amountIn, snap.Curve)
	case StrategyMetapool:
		return p.metapoolSwap(i, j, amountIn, snap.Curve)
	case StrategyLending:
		return p.lendingSwap(i, j, amountIn, snap.Curve)
	case StrategyOracle:
		return p.oracleSwap(i, j, amountIn, snap.Curve)
	default: // StrategyDefault, StrategyAdminFee: both use gross balances + attribute rates.
		return p.defaultSwap(i, j, amountIn, snap.Curve, snap.Curve.Rates, snap.Curve.Balances)
	}
}

// CalculateTokensIn is not provided for Curve pools: the quadratic Newton
// solve does not invert cheaply, and the evaluator never needs it (it only
// drives the forward direction through the optimizer).
func (p *CurvePool) CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	return nil, arbengine.ArithmeticFailure("curve calculate_tokens_in is not supported")
}

// defaultSwap implements the Default/AdminFee/Oracle shared core: scale
// balances by rates, solve get_y, apply the proportional fee, unscale by
// the output rate.
func (p *CurvePool) defaultSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot, rates, balances []*uint256.Int) (*uint256.Int, error) {
	xp, err := curvemath.XP(rates, balances)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("curve xp: " + err.Error())
	}

	dxScaled, overflow := mulDivCurve(dx, rates[i], curvePrecision)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve dx_scaled overflow")
	}
	x, overflow := new(uint256.Int).AddOverflow(xp[i], dxScaled)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve x add overflow")
	}

	d, err := curvemath.GetD(xp, snap.APrecise)
	if err != nil {
		return nil, wrapCurveErr(err)
	}
	y, err := curvemath.GetY(i, j, x, xp, snap.APrecise, d, toMathYVariant(p.Attributes.YVariant))
	if err != nil {
		return nil, wrapCurveErr(err)
	}

	dy := subFloor(xp[j], y, uint256.NewInt(1))

	dyAfterFee, err := applyCurveFee(dy, snap.Fee)
	if err != nil {
		return nil, err
	}

	if rates[j].IsZero() {
		return nil, arbengine.ArithmeticFailure("curve output rate is zero")
	}
	out, overflow := mulDivCurve(dyAfterFee, curvePrecision, rates[j])
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve final_dy overflow")
	}
	return out, nil
}

// metapoolSwap replaces rates with [rate_for_non_lp, base_pool_virtual_price]
// (or the RAI redemption price for the reth/eth metapool), otherwise runs
// the Default core. Cross-base-pool composition (calc_token_amount /
// calc_withdraw_one_coin) is the caller's concern when a cycle routes
// through the base pool's own coins instead of its LP token.
func (p *CurvePool) metapoolSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot) (*uint256.Int, error) {
	if p.Attributes.NCoins != 2 {
		return nil, arbengine.ArithmeticFailure("metapool strategy only supports 2-coin pools")
	}
	if snap.VirtualPriceOfBase == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}

	var rate0 *uint256.Int
	switch p.Addr {
	case StethUSDCMetapool:
		rate0 = curvePrecision
	case RethEthMetapool:
		if snap.ScaledRedemptionPrice == nil {
			return nil, arbengine.MissingPoolState(p.Addr)
		}
		rate0 = snap.ScaledRedemptionPrice
	default:
		rate0 = snap.Rates[0]
	}
	rates := []*uint256.Int{rate0, snap.VirtualPriceOfBase}

	return p.defaultSwap(i, j, dx, snap, rates, snap.Balances)
}

// lendingSwap consumes rates the snapshot assembler has already derived
// from live lending-token exchange rates (Component C's concern; pricing
// stays pure over the pinned snapshot per I5), then applies the
// per-address dy-rounding quirks observed on LendingGroupA/B pools.
func (p *CurvePool) lendingSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot) (*uint256.Int, error) {
	rates := snap.Rates
	xp, err := curvemath.XP(rates, snap.Balances)
	if err != nil {
		return nil, arbengine.ArithmeticFailure("curve xp: " + err.Error())
	}

	dxScaled, overflow := mulDivCurve(dx, rates[i], curvePrecision)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve dx_scaled overflow")
	}
	x, overflow := new(uint256.Int).AddOverflow(xp[i], dxScaled)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve x add overflow")
	}

	d, err := curvemath.GetD(xp, snap.APrecise)
	if err != nil {
		return nil, wrapCurveErr(err)
	}
	y, err := curvemath.GetY(i, j, x, xp, snap.APrecise, d, toMathYVariant(p.Attributes.YVariant))
	if err != nil {
		return nil, wrapCurveErr(err)
	}

	var finalDy *uint256.Int
	switch {
	case addrInList(p.Addr, LendingGroupA):
		dyRaw := subSat(xp[j], y)
		v, overflow := mulDivCurve(dyRaw, curvePrecision, rates[j])
		if overflow {
			return nil, arbengine.ArithmeticFailure("curve final_dy overflow")
		}
		finalDy = v
	case addrInList(p.Addr, LendingGroupB):
		finalDy = subSat(xp[j], y)
	default:
		dyRaw := subFloor(xp[j], y, uint256.NewInt(1))
		v, overflow := mulDivCurve(dyRaw, curvePrecision, rates[j])
		if overflow {
			return nil, arbengine.ArithmeticFailure("curve final_dy overflow")
		}
		finalDy = v
	}

	feeAmount, overflow := mulDivCurve(finalDy, snap.Fee, curveFeeDenominator)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve fee_amount overflow")
	}
	return subSat(finalDy, feeAmount), nil
}

// oracleSwap uses net (live - admin) balances and live oracle rates, both
// assembled by the snapshot stage, otherwise runs the Default core.
func (p *CurvePool) oracleSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot) (*uint256.Int, error) {
	if snap.AdminBalances == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	netBalances := make([]*uint256.Int, len(snap.Balances))
	for k := range snap.Balances {
		netBalances[k] = subSat(snap.Balances[k], snap.AdminBalances[k])
	}
	return p.defaultSwap(i, j, dx, snap, snap.Rates, netBalances)
}

// unscaledSwap is the UnscaledStrategy (and DynamicFeeStrategy, which the
// reference delegates to it unmodified): xp equals the raw balances, dx is
// unscaled, and the result is never converted by a rate.
func (p *CurvePool) unscaledSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot) (*uint256.Int, error) {
	xp := snap.Balances

	x, overflow := new(uint256.Int).AddOverflow(xp[i], dx)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve x add overflow")
	}

	d, err := curvemath.GetD(xp, snap.APrecise)
	if err != nil {
		return nil, wrapCurveErr(err)
	}
	y, err := curvemath.GetY(i, j, x, xp, snap.APrecise, d, toMathYVariant(p.Attributes.YVariant))
	if err != nil {
		return nil, wrapCurveErr(err)
	}

	dy := subFloor(xp[j], y, uint256.NewInt(1))
	return applyCurveFee(dy, snap.Fee)
}

// tricryptoSwap prices against the pinned Tricrypto invariant D, curvature
// gamma, and per-coin price_scale, using the bespoke Newton solver in
// math/curve, then applies the two-zone mid_fee/out_fee blend.
func (p *CurvePool) tricryptoSwap(i, j int, dx *uint256.Int, snap *CurveSnapshot) (*uint256.Int, error) {
	if snap.TricryptoD == nil || snap.TricryptoGamma == nil || len(snap.TricryptoPriceScale) == 0 {
		return nil, arbengine.MissingPoolState(p.Addr)
	}

	precisions := []*uint256.Int{
		new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(12)), // USDT
		new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(10)), // WBTC
		uint256.NewInt(1),                                           // WETH
	}

	xp := make([]*uint256.Int, len(snap.Balances))
	copy(xp, snap.Balances)
	xp[i] = new(uint256.Int).Add(xp[i], dx)

	xp[0] = new(uint256.Int).Mul(xp[0], precisions[0])
	for k := 0; k < p.Attributes.NCoins-1; k++ {
		v, overflow := mulDivCurve(new(uint256.Int).Mul(xp[k+1], snap.TricryptoPriceScale[k]), precisions[k+1], curvePrecision)
		if overflow {
			return nil, arbengine.ArithmeticFailure("tricrypto xp overflow")
		}
		xp[k+1] = v
	}

	ann := new(uint256.Int).Mul(snap.APrecise, uint256.NewInt(uint64(p.Attributes.NCoins)))
	y, err := curvemath.NewtonY(ann, snap.TricryptoGamma, xp, snap.TricryptoD, j)
	if err != nil {
		return nil, wrapCurveErr(err)
	}
	dy := subFloor(xp[j], y, uint256.NewInt(1))

	if j > 0 {
		v, overflow := mulDivCurve(dy, curvePrecision, snap.TricryptoPriceScale[j-1])
		if overflow {
			return nil, arbengine.ArithmeticFailure("tricrypto dy unscale overflow")
		}
		dy = v
	}
	dy = new(uint256.Int).Div(dy, precisions[j])

	xpPostSwap := make([]*uint256.Int, len(xp))
	copy(xpPostSwap, xp)
	xpPostSwap[j] = y

	feeGamma := p.Attributes.FeeGamma
	if feeGamma == nil {
		feeGamma = new(uint256.Int)
	}
	midFee := p.Attributes.MidFee
	outFee := p.Attributes.OutFee
	if midFee == nil || outFee == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}

	f, err := curvemath.ReductionCoefficient(xpPostSwap, feeGamma)
	if err != nil {
		return nil, wrapCurveErr(err)
	}

	tenE18 := curvePrecision
	feeCalc, overflow := mulDivCurve(midFee, f, tenE18)
	if overflow {
		return nil, arbengine.ArithmeticFailure("tricrypto fee_calc overflow")
	}
	outPart, overflow := mulDivCurve(outFee, new(uint256.Int).Sub(tenE18, f), tenE18)
	if overflow {
		return nil, arbengine.ArithmeticFailure("tricrypto fee_calc overflow")
	}
	feeCalc = new(uint256.Int).Add(feeCalc, outPart)

	feeAmount, overflow := mulDivCurve(dy, feeCalc, uint256.NewInt(10_000_000_000))
	if overflow {
		return nil, arbengine.ArithmeticFailure("tricrypto fee_amount overflow")
	}
	return subSat(dy, feeAmount), nil
}

func applyCurveFee(dy, fee *uint256.Int) (*uint256.Int, error) {
	feeAmount, overflow := mulDivCurve(dy, fee, curveFeeDenominator)
	if overflow {
		return nil, arbengine.ArithmeticFailure("curve fee_amount overflow")
	}
	return subSat(dy, feeAmount), nil
}

func mulDivCurve(a, b, d *uint256.Int) (*uint256.Int, bool) {
	return new(uint256.Int).MulDivOverflow(a, b, d)
}

func subSat(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

func subFloor(a, b, floor *uint256.Int) *uint256.Int {
	d := subSat(a, b)
	return subSat(d, floor)
}

func wrapCurveErr(err error) error {
	switch err {
	case curvemath.ErrNonConvergence:
		return arbengine.NonConvergence(err.Error())
	default:
		return arbengine.ArithmeticFailure(err.Error())
	}
}
