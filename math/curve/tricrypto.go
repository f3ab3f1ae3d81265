package curve

import (
	"math/big"
	"sort"

	"github.com/holiman/uint256"
)

// TenPow18 is 10^18, used throughout the tricrypto fee blend.
var TenPow18 = uint256.NewInt(1_000_000_000_000_000_000)

// ReductionCoefficient computes the fee-blend weight `f` used by
// Tricrypto-ng's two-zone fee model: f interpolates between mid_fee (near
// balanced pools) and out_fee (far from balance) based on how far xp is from
// an equal-balance point, scaled by fee_gamma.
func ReductionCoefficient(xp []*uint256.Int, feeGamma *uint256.Int) (*uint256.Int, error) {
	k := new(big.Int).Set(TenPow18.ToBig())
	n := big.NewInt(int64(len(xp)))

	s := big.NewInt(0)
	for _, x := range xp {
		s.Add(s, x.ToBig())
	}
	if s.Sign() == 0 {
		return nil, ErrArithmetic
	}

	for _, x := range xp {
		num := new(big.Int).Mul(n, x.ToBig())
		num.Mul(num, TenPow18.ToBig())
		num.Div(num, s)
		k.Mul(k, num)
		k.Div(k, TenPow18.ToBig())
	}

	if feeGamma.Sign() > 0 {
		gamma := feeGamma.ToBig()
		denom := new(big.Int).Add(gamma, new(big.Int).Sub(TenPow18.ToBig(), k))
		k.Mul(k, gamma)
		k.Div(k, denom)
	}

	out, overflow := uint256.FromBig(k)
	if overflow {
		return nil, ErrArithmetic
	}
	return out, nil
}

// NewtonY solves the Tricrypto invariant for the balance of coin
// tokenIndex, given the other scaled balances xp, the invariant D, the
// amplification ANN and curvature parameter gamma. Convergence tolerance
// scales with max(xp_sorted[0]/10^14, D/10^14, 100), matching the
// published reference.
func NewtonY(ann, gamma *uint256.Int, xp []*uint256.Int, d *uint256.Int, tokenIndex int) (*uint256.Int, error) {
	n := len(xp)
	if tokenIndex < 0 || tokenIndex >= n {
		return nil, ErrArithmetic
	}

	dBig := d.ToBig()
	annBig := ann.ToBig()
	gammaBig := gamma.ToBig()
	nBig := big.NewInt(int64(n))
	oneE18 := TenPow18.ToBig()

	// y = D / n as the initial guess.
	y := new(big.Int).Div(dBig, nBig)

	xSorted := make([]*big.Int, 0, n-1)
	for k := 0; k < n; k++ {
		if k == tokenIndex {
			continue
		}
		xSorted = append(xSorted, xp[k].ToBig())
	}
	sort.Slice(xSorted, func(a, b int) bool { return xSorted[a].Cmp(xSorted[b]) > 0 })

	convergenceLimit := new(big.Int).Div(dBig, big.NewInt(100_000_000_000_000))
	if len(xSorted) > 0 {
		alt := new(big.Int).Div(xSorted[0], big.NewInt(100_000_000_000_000))
		if alt.Cmp(convergenceLimit) > 0 {
			convergenceLimit = alt
		}
	}
	if convergenceLimit.Cmp(big.NewInt(100)) < 0 {
		convergenceLimit = big.NewInt(100)
	}

	for iter := 0; iter < maxIterations; iter++ {
		yPrev := new(big.Int).Set(y)

		// k0 = prod(xp_k) * n^n / D^n, the deviation-from-balance factor.
		k0 := new(big.Int).Set(oneE18)
		for k := 0; k < n; k++ {
			var xk *big.Int
			if k == tokenIndex {
				xk = y
			} else {
				xk = xp[k].ToBig()
			}
			term := new(big.Int).Mul(xk, nBig)
			term.Mul(term, oneE18)
			term.Div(term, dBig)
			k0.Mul(k0, term)
			k0.Div(k0, oneE18)
		}

		// Ann-and-gamma weighted Newton step toward the invariant root.
		g1k0 := new(big.Int).Add(gammaBig, oneE18)
		g1k0.Sub(g1k0, k0)

		mul1 := new(big.Int).Div(dBig, gammaBig)
		mul1.Mul(mul1, g1k0)
		mul1.Mul(mul1, g1k0)
		mul1.Div(mul1, annBig)

		mul2 := new(big.Int).Mul(big.NewInt(2), k0)
		mul2.Div(mul2, g1k0)
		mul2.Add(mul2, oneE18)

		prod := big.NewInt(1)
		for k := 0; k < n; k++ {
			if k == tokenIndex {
				continue
			}
			prod.Mul(prod, xp[k].ToBig())
		}
		if prod.Sign() == 0 {
			return nil, ErrArithmetic
		}

		numerator := new(big.Int).Mul(y, y)
		numerator.Add(numerator, new(big.Int).Div(new(big.Int).Mul(mul1, oneE18), prod))
		denom := new(big.Int).Mul(big.NewInt(2), y)
		denom.Add(denom, mul2)
		denom.Sub(denom, oneE18)
		if denom.Sign() <= 0 {
			return nil, ErrArithmetic
		}
		y = new(big.Int).Div(numerator, denom)

		diff := new(big.Int).Sub(y, yPrev)
		diff.Abs(diff)
		if diff.Cmp(convergenceLimit) <= 0 {
			out, overflow := uint256.FromBig(y)
			if overflow {
				return nil, ErrArithmetic
			}
			return out, nil
		}
	}
	return nil, ErrNonConvergence
}
