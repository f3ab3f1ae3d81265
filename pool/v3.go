package pool

import (
	"github.com/7suyash7/arbengine"
	v3math "github.com/7suyash7/arbengine/math/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	minSqrtRatioPlus1 = new(uint256.Int).Add(v3math.MinSqrtRatio, uint256.NewInt(1))
	maxSqrtRatioMinus1 = new(uint256.Int).Sub(v3math.MaxSqrtRatio, uint256.NewInt(1))
)

// CalculateTokensOut traverses the tick/√P state machine exact-in, crossing
// initialized ticks as needed and fetching missing bitmap words/tick data
// from the snapshot's lazy fetchers on demand.
func (p *V3Pool) CalculateTokensOut(tokenIn, tokenOut common.Address, amountIn *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyV3 || snap.V3 == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	zeroForOne, err := p.direction(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	sqrtPriceLimit := maxSqrtRatioMinus1
	if zeroForOne {
		sqrtPriceLimit = minSqrtRatioPlus1
	}

	amountOut, err := p.swap(snap.V3, amountIn, zeroForOne, sqrtPriceLimit, true)
	if err != nil {
		return nil, err
	}
	return amountOut, nil
}

// CalculateTokensIn traverses the same state machine exact-out.
func (p *V3Pool) CalculateTokensIn(tokenIn, tokenOut common.Address, amountOut *uint256.Int, snap PoolSnapshot) (*uint256.Int, error) {
	if snap.family != FamilyV3 || snap.V3 == nil {
		return nil, arbengine.MissingPoolState(p.Addr)
	}
	if amountOut.IsZero() {
		return new(uint256.Int), nil
	}

	zeroForOne, err := p.direction(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	sqrtPriceLimit := maxSqrtRatioMinus1
	if zeroForOne {
		sqrtPriceLimit = minSqrtRatioPlus1
	}

	amountIn, err := p.swap(snap.V3, amountOut, zeroForOne, sqrtPriceLimit, false)
	if err != nil {
		return nil, err
	}
	return amountIn, nil
}

func (p *V3Pool) direction(tokenIn, tokenOut common.Address) (zeroForOne bool, err error) {
	switch {
	case tokenIn == p.Token0.Address && tokenOut == p.Token1.Address:
		return true, nil
	case tokenIn == p.Token1.Address && tokenOut == p.Token0.Address:
		return false, nil
	default:
		return false, arbengine.ArithmeticFailure("v3 token pair not in pool")
	}
}

// swapState mirrors the traversal accumulators the published reference
// threads through SwapMath.computeSwapStep calls.
type swapState struct {
	amountSpecifiedRemaining *uint256.Int
	amountCalculated         *uint256.Int
	sqrtPriceX96             *uint256.Int
	tick                     int
	liquidity                *uint256.Int
}

// swap runs the tick-crossing state machine until amountSpecifiedRemaining
// is exhausted or the price limit is reached, returning the computed
// amount (amount_out for exactIn, amount_in for !exactIn).
func (p *V3Pool) swap(snap *V3Snapshot, amountSpecified *uint256.Int, zeroForOne bool, sqrtPriceLimitX96 *uint256.Int, exactIn bool) (*uint256.Int, error) {
	state := &swapState{
		amountSpecifiedRemaining: new(uint256.Int).Set(amountSpecified),
		amountCalculated:         new(uint256.Int),
		sqrtPriceX96:             new(uint256.Int).Set(snap.SqrtPriceX96),
		tick:                     snap.Tick,
		liquidity:                new(uint256.Int).Set(snap.Liquidity),
	}

	// Bound iterations generously; a well-formed pool crosses at most a
	// handful of initialized ticks for any realistic trade size.
	for iter := 0; iter < 500 && !state.amountSpecifiedRemaining.IsZero() && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0; iter++ {
		nextTick, initialized, err := p.nextInitializedTick(snap, state.tick, zeroForOne)
		if err != nil {
			return nil, err
		}
		if nextTick < v3math.MinTick {
			nextTick = v3math.MinTick
		}
		if nextTick > v3math.MaxTick {
			nextTick = v3math.MaxTick
		}

		sqrtPriceNextX96, err := v3math.GetSqrtRatioAtTick(nextTick)
		if err != nil {
			return nil, arbengine.ArithmeticFailure("v3 sqrt_ratio_at_tick: " + err.Error())
		}

		target := sqrtPriceNextX96
		if zeroForOne {
			if target.Cmp(sqrtPriceLimitX96) < 0 {
				target = sqrtPriceLimitX96
			}
		} else {
			if target.Cmp(sqrtPriceLimitX96) > 0 {
				target = sqrtPriceLimitX96
			}
		}

		startSqrtPriceX96 := new(uint256.Int).Set(state.sqrtPriceX96)

		step, err := v3math.ComputeSwapStep(state.sqrtPriceX96, target, state.liquidity, state.amountSpecifiedRemaining, exactIn, p.FeePips)
		if err != nil {
			return nil, arbengine.ArithmeticFailure("v3 compute_swap_step: " + err.Error())
		}

		if exactIn {
			used, overflow := new(uint256.Int).AddOverflow(step.AmountIn, step.FeeAmount)
			if overflow {
				return nil, arbengine.ArithmeticFailure("v3 amount_in+fee overflow")
			}
			if state.amountSpecifiedRemaining.Cmp(used) < 0 {
				return nil, arbengine.ArithmeticFailure("v3 step consumed more than remaining")
			}
			state.amountSpecifiedRemaining = new(uint256.Int).Sub(state.amountSpecifiedRemaining, used)
			state.amountCalculated = new(uint256.Int).Add(state.amountCalculated, step.AmountOut)
		} else {
			if state.amountSpecifiedRemaining.Cmp(step.AmountOut) < 0 {
				return nil, arbengine.ArithmeticFailure("v3 step produced more than remaining")
			}
			state.amountSpecifiedRemaining = new(uint256.Int).Sub(state.amountSpecifiedRemaining, step.AmountOut)
			sum, overflow := new(uint256.Int).AddOverflow(step.AmountIn, step.FeeAmount)
			if overflow {
				return nil, arbengine.ArithmeticFailure("v3 amount_in+fee overflow")
			}
			state.amountCalculated = new(uint256.Int).Add(state.amountCalculated, sum)
		}

		state.sqrtPriceX96 = step.SqrtRatioNextX96

		if state.sqrtPriceX96.Cmp(sqrtPriceNextX96) == 0 {
			if initialized {
				data, err := snap.tickInfo(nextTick)
				if err != nil {
					return nil, arbengine.ProviderFailure("v3 fetch tick data", err)
				}
				if data != nil {
					delta := data.LiquidityNet
					if zeroForOne {
						delta = negateDelta(delta)
					}
					newLiquidity, err := addDelta(state.liquidity, delta)
					if err != nil {
						return nil, arbengine.ArithmeticFailure("v3 add_delta: " + err.Error())
					}
					state.liquidity = newLiquidity
				}
			}
			if zeroForOne {
				state.tick = nextTick - 1
			} else {
				state.tick = nextTick
			}
		} else if state.sqrtPriceX96.Cmp(startSqrtPriceX96) != 0 {
			// Price moved within the tick range but the step exhausted the
			// remaining amount before reaching the next initialized tick;
			// recompute the tick the new price actually falls in.
			recovered, err := v3math.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, arbengine.ArithmeticFailure("v3 tick_at_sqrt_ratio: " + err.Error())
			}
			state.tick = recovered
		}
	}

	return state.amountCalculated, nil
}

func (p *V3Pool) nextInitializedTick(snap *V3Snapshot, tick int, zeroForOne bool) (int, bool, error) {
	compressed := floorDivInt(tick, p.TickSpacing)
	wordPos, _ := v3math.Position(compressed)
	if !zeroForOne {
		wordPos, _ = v3math.Position(compressed + 1)
	}
	word, err := snap.bitmapWord(wordPos)
	if err != nil {
		return 0, false, arbengine.ProviderFailure("v3 fetch bitmap word", err)
	}

	next, initialized := v3math.NextInitializedTickWithinOneWord(map[int16]*uint256.Int{wordPos: word}, tick, p.TickSpacing, zeroForOne)
	return next, initialized, nil
}

// floorDivInt mirrors math/v3's internal floorDiv so the bitmap word we
// prefetch here matches the word NextInitializedTickWithinOneWord reads.
func floorDivInt(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func negateDelta(d *big256Signed) *big256Signed {
	if d == nil {
		return nil
	}
	return &big256Signed{Abs: d.Abs, Neg: !d.Neg}
}

func addDelta(liquidity *uint256.Int, delta *big256Signed) (*uint256.Int, error) {
	if delta == nil {
		return liquidity, nil
	}
	mathDelta := v3math.NewSignedDelta(delta.Abs, delta.Neg)
	return v3math.AddDelta(liquidity, mathDelta)
}
