// Package arbitrage implements the pure cycle evaluator and trade-size
// optimizer: folding a starting amount through a cycle's hops, a
// constant-time marginal-price viability screen, and the golden-section /
// binary-search size optimizers that drive per-cycle profit search.
package arbitrage

import (
	"math"
	"math/big"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/graph"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CalculateOutAmount folds startAmount through every hop of the cycle,
// early-exiting with zero the moment a hop returns zero (a dry pool or a
// trade too small to move a tick).
func CalculateOutAmount(startAmount *uint256.Int, cyc graph.Cycle, snapshots map[common.Address]pool.PoolSnapshot) (*uint256.Int, error) {
	current := startAmount
	for i, p := range cyc.Pools {
		snap, ok := snapshots[p.Address()]
		if !ok {
			return nil, arbengine.MissingPoolState(p.Address())
		}
		out, err := p.CalculateTokensOut(cyc.Tokens[i], cyc.Tokens[i+1], current, snap)
		if err != nil {
			return nil, err
		}
		if out.IsZero() {
			return new(uint256.Int), nil
		}
		current = out
	}
	return current, nil
}

// CheckViability is a constant-time pre-screen: it multiplies a marginal
// spot price and a fee factor across every hop in double precision and
// rejects cycles whose product doesn't clear 1. It is an approximation —
// never used for profit accounting, only to cheaply discard the bulk of
// enumerated cycles before the expensive optimizer runs.
func CheckViability(cyc graph.Cycle, snapshots map[common.Address]pool.PoolSnapshot) (bool, error) {
	product := 1.0
	for i, p := range cyc.Pools {
		snap, ok := snapshots[p.Address()]
		if !ok {
			return false, arbengine.MissingPoolState(p.Address())
		}
		price, feeFactor, err := marginalPrice(p, cyc.Tokens[i], cyc.Tokens[i+1], snap)
		if err != nil {
			return false, err
		}
		product *= price * feeFactor
	}
	return product > 1.0, nil
}

func marginalPrice(p pool.LiquidityPool, tokenIn, tokenOut common.Address, snap pool.PoolSnapshot) (price, feeFactor float64, err error) {
	switch pp := p.(type) {
	case *pool.V2Pool:
		if snap.V2 == nil {
			return 0, 0, arbengine.MissingPoolState(pp.Address())
		}
		reserveIn, reserveOut := snap.V2.Reserve0, snap.V2.Reserve1
		if tokenIn == pp.Token1.Address {
			reserveIn, reserveOut = snap.V2.Reserve1, snap.V2.Reserve0
		}
		if reserveIn.IsZero() {
			return 0, 0, arbengine.ArithmeticFailure("v2 zero reserve in viability screen")
		}
		price = fixedpointRatio(reserveOut, reserveIn)
		feeFactor = 1.0 - float64(pp.FeeBps)/10000.0
		return price, feeFactor, nil

	case *pool.V3Pool:
		if snap.V3 == nil {
			return 0, 0, arbengine.MissingPoolState(pp.Address())
		}
		sqrtP := fixedpointRatio(snap.V3.SqrtPriceX96, q96)
		price = sqrtP * sqrtP
		if tokenIn == pp.Token1.Address {
			price = 1.0 / price
		}
		feeFactor = 1.0 - float64(pp.FeePips)/1_000_000.0
		return price, feeFactor, nil

	case *pool.CurvePool:
		if snap.Curve == nil {
			return 0, 0, arbengine.MissingPoolState(pp.Address())
		}
		i := indexOf(pp.Tokens_, tokenIn)
		j := indexOf(pp.Tokens_, tokenOut)
		if i < 0 || j < 0 {
			return 0, 0, arbengine.ArithmeticFailure("curve token not in pool for viability screen")
		}
		switch pp.Attributes.SwapStrategy {
		case pool.StrategyDefault, pool.StrategyMetapool, pool.StrategyLending:
			decIn, decOut := pp.Tokens_[i].Decimals, pp.Tokens_[j].Decimals
			price = math.Pow(10, float64(decOut)-float64(decIn))
		default:
			balIn := fixedpointToFloat(snap.Curve.Balances[i], pp.Tokens_[i].Decimals)
			balOut := fixedpointToFloat(snap.Curve.Balances[j], pp.Tokens_[j].Decimals)
			if balIn == 0 {
				return 0, 0, arbengine.ArithmeticFailure("curve zero balance in viability screen")
			}
			price = balOut / balIn
		}
		feeFactor = 1.0 - fixedpointRatio(snap.Curve.Fee, feeDenom)
		return price, feeFactor, nil

	case *pool.BalancerPool:
		if snap.Balancer == nil {
			return 0, 0, arbengine.MissingPoolState(pp.Address())
		}
		i := indexOf(pp.Tokens_, tokenIn)
		j := indexOf(pp.Tokens_, tokenOut)
		if i < 0 || j < 0 {
			return 0, 0, arbengine.ArithmeticFailure("balancer token not in pool for viability screen")
		}
		bIn := fixedpointRatio(snap.Balancer.Balances[i], pp.Weights[i])
		bOut := fixedpointRatio(snap.Balancer.Balances[j], pp.Weights[j])
		if bIn == 0 {
			return 0, 0, arbengine.ArithmeticFailure("balancer zero weighted balance in viability screen")
		}
		price = bOut / bIn
		feeFactor = 1.0 - fixedpointRatio(pp.Fee, oneWad)
		return price, feeFactor, nil
	}
	return 0, 0, arbengine.ArithmeticFailure("unknown pool family in viability screen")
}

var (
	q96      = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	feeDenom = uint256.NewInt(10_000_000_000)
	oneWad   = uint256.NewInt(1_000_000_000_000_000_000)
)

func fixedpointRatio(a, b *uint256.Int) float64 {
	af, _ := new(big.Float).SetInt(a.ToBig()).Float64()
	bf, _ := new(big.Float).SetInt(b.ToBig()).Float64()
	if bf == 0 {
		return 0
	}
	return af / bf
}

func fixedpointToFloat(a *uint256.Int, decimals uint8) float64 {
	af, _ := new(big.Float).SetInt(a.ToBig()).Float64()
	return af / math.Pow(10, float64(decimals))
}

func indexOf(tokens []arbengine.Token, addr common.Address) int {
	for i, t := range tokens {
		if t.Address == addr {
			return i
		}
	}
	return -1
}
