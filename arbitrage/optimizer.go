package arbitrage

import (
	"math/big"

	"github.com/7suyash7/arbengine/graph"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// invPhiScaled/goldenScale approximates 1/φ ≈ 0.618034, kept as a scaled
	// integer ratio so the golden-section search never leaves integer math.
	invPhiScaled = 618034
	goldenScale  = 1_000_000

	// GoldenSectionTolerance is the interval width (in wei of the input
	// token) at which FindOptimalInput stops narrowing: 0.001 ETH-equiv.
	GoldenSectionTolerance = 1_000_000_000_000_000 // 10^15

	// CapacityTolerance bounds FindMaxCapacity's interval width: 0.01
	// ETH-equiv.
	CapacityTolerance = 10_000_000_000_000_000 // 10^16

	maxCapacityIterations = 128

	// FlashloanFeeBps is the surcharge assumed on borrowed principal.
	FlashloanFeeBps = 9

	// EstimatedGasUnits is the gas budget assumed per arbitrage execution.
	EstimatedGasUnits = 700_000

	// MinNetProfitThreshold is the floor below which a solution is dropped.
	MinNetProfitThreshold = 50_000_000_000_000_000 // 5*10^16 wei
)

// g computes out(x) - x as a signed big.Int, since a trial input can lose
// money (out(x) < x) during the search.
func g(x *uint256.Int, cyc graph.Cycle, snapshots map[common.Address]pool.PoolSnapshot) (*big.Int, error) {
	out, err := CalculateOutAmount(x, cyc, snapshots)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(out.ToBig(), x.ToBig()), nil
}

// FindOptimalInput runs golden-section search over [a, b] assuming the
// gross-profit function g(x) = out(x) - x is unimodal across the interval,
// returning the input at the located optimum and its gross profit (signed:
// negative means the best point in range still loses money).
func FindOptimalInput(cyc graph.Cycle, snapshots map[common.Address]pool.PoolSnapshot, a, b *uint256.Int) (*uint256.Int, *big.Int, error) {
	lo, hi := new(uint256.Int).Set(a), new(uint256.Int).Set(b)
	tol := uint256.NewInt(GoldenSectionTolerance)

	for new(uint256.Int).Sub(hi, lo).Cmp(tol) > 0 {
		delta := new(uint256.Int).Sub(hi, lo)
		offset := new(uint256.Int).Div(new(uint256.Int).Mul(delta, uint256.NewInt(invPhiScaled)), uint256.NewInt(goldenScale))

		c := new(uint256.Int).Sub(hi, offset)
		d := new(uint256.Int).Add(lo, offset)

		gc, err := g(c, cyc, snapshots)
		if err != nil {
			return nil, nil, err
		}
		gd, err := g(d, cyc, snapshots)
		if err != nil {
			return nil, nil, err
		}

		if gc.Cmp(gd) > 0 {
			hi = d
		} else {
			lo = c
		}
	}

	mid := new(uint256.Int).Add(lo, hi)
	mid.Div(mid, uint256.NewInt(2))

	profit, err := g(mid, cyc, snapshots)
	if err != nil {
		return nil, nil, err
	}
	return mid, profit, nil
}

// FindMaxCapacity binary-searches [a, b] for the largest input whose net
// profit (gross profit less the flashloan fee and a fixed gas cost,
// expressed in the same profit token) still clears MinNetProfitThreshold.
// Returns zero if neither endpoint satisfies the threshold.
func FindMaxCapacity(cyc graph.Cycle, snapshots map[common.Address]pool.PoolSnapshot, a, b, gasCostInProfitToken *uint256.Int) (*uint256.Int, error) {
	netProfit := func(x *uint256.Int) (*big.Int, error) {
		gross, err := g(x, cyc, snapshots)
		if err != nil {
			return nil, err
		}
		flashloanFee := new(big.Int).Mul(x.ToBig(), big.NewInt(FlashloanFeeBps))
		flashloanFee.Div(flashloanFee, big.NewInt(10_000))
		net := new(big.Int).Sub(gross, flashloanFee)
		net.Sub(net, gasCostInProfitToken.ToBig())
		return net, nil
	}

	threshold := big.NewInt(MinNetProfitThreshold)

	netA, err := netProfit(a)
	if err != nil {
		return nil, err
	}
	netB, err := netProfit(b)
	if err != nil {
		return nil, err
	}
	if netA.Cmp(threshold) < 0 && netB.Cmp(threshold) < 0 {
		return new(uint256.Int), nil
	}

	lo, hi := new(uint256.Int).Set(a), new(uint256.Int).Set(b)
	if netA.Cmp(threshold) >= 0 && netB.Cmp(threshold) < 0 {
		// Monotone-decreasing satisfaction past some point in range: binary
		// search for the boundary, keeping lo satisfying.
		tol := uint256.NewInt(CapacityTolerance)
		for i := 0; i < maxCapacityIterations; i++ {
			width := new(uint256.Int).Sub(hi, lo)
			if width.Cmp(tol) <= 0 {
				break
			}
			mid := new(uint256.Int).Add(lo, hi)
			mid.Div(mid, uint256.NewInt(2))
			net, err := netProfit(mid)
			if err != nil {
				return nil, err
			}
			if net.Cmp(threshold) >= 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
		return lo, nil
	}

	// Both endpoints already satisfy the threshold (or the monotone
	// assumption doesn't hold in our favor): b is the largest candidate
	// in range, since capacity search only ever seeks the top of [a, b].
	if netB.Cmp(threshold) >= 0 {
		return hi, nil
	}
	return lo, nil
}
