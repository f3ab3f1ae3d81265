package curve

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrNonConvergence signals a Newton iteration that exceeded maxIterations
// without meeting the one-wei convergence criterion.
var ErrNonConvergence = errors.New("curve: newton iteration did not converge")

// ErrArithmetic signals an overflow/underflow/division-by-zero while
// solving the invariant.
var ErrArithmetic = errors.New("curve: arithmetic failure")

// XP scales each coin balance to WAD fixed point via its rate.
func XP(rates, balances []*uint256.Int) ([]*uint256.Int, error) {
	if len(rates) != len(balances) {
		return nil, ErrArithmetic
	}
	out := make([]*uint256.Int, len(balances))
	for i := range balances {
		prod := new(big.Int).Mul(rates[i].ToBig(), balances[i].ToBig())
		prod.Div(prod, Precision.ToBig())
		v, overflow := uint256.FromBig(prod)
		if overflow {
			return nil, ErrArithmetic
		}
		out[i] = v
	}
	return out, nil
}

// GetD solves the stableswap invariant D for the given scaled balances and
// precise amplification coefficient (A * A_PRECISION), via a 255-iteration
// Newton method with a one-unit convergence tolerance. Intermediates widen
// to arbitrary precision (math/big) to tolerate the Ann*S and D_P*D terms.
func GetD(xp []*uint256.Int, ampPrecise *uint256.Int) (*uint256.Int, error) {
	n := big.NewInt(int64(len(xp)))
	s := big.NewInt(0)
	for _, x := range xp {
		s.Add(s, x.ToBig())
	}
	if s.Sign() == 0 {
		return uint256.NewInt(0), nil
	}

	d := new(big.Int).Set(s)
	ann := new(big.Int).Mul(ampPrecise.ToBig(), n)
	aPrec := APrecision.ToBig()

	for i := 0; i < maxIterations; i++ {
		dP := new(big.Int).Set(d)
		for _, x := range xp {
			denom := new(big.Int).Mul(x.ToBig(), n)
			if denom.Sign() == 0 {
				return nil, ErrArithmetic
			}
			dP.Mul(dP, d)
			dP.Div(dP, denom)
		}
		dPrev := new(big.Int).Set(d)

		num := new(big.Int).Div(new(big.Int).Mul(ann, s), aPrec)
		num.Add(num, new(big.Int).Mul(dP, n))
		num.Mul(num, d)

		denom := new(big.Int).Div(new(big.Int).Mul(new(big.Int).Sub(ann, aPrec), d), aPrec)
		denom.Add(denom, new(big.Int).Mul(new(big.Int).Add(n, big.NewInt(1)), dP))
		if denom.Sign() == 0 {
			return nil, ErrArithmetic
		}
		d = new(big.Int).Div(num, denom)

		diff := new(big.Int).Sub(d, dPrev)
		diff.Abs(diff)
		if diff.Cmp(big.NewInt(1)) <= 0 {
			out, overflow := uint256.FromBig(d)
			if overflow {
				return nil, ErrArithmetic
			}
			return out, nil
		}
	}
	return nil, ErrNonConvergence
}

// YVariant selects between the modern (A_PRECISION-scaled) get_y formula and
// the legacy unscaled variants used by a handful of early pools, per
// per-address override groups.
type YVariant int

const (
	YVariantModern YVariant = iota
	YVariantLegacyGroup0
	YVariantLegacyGroup1
)

// GetY solves for the new balance of coin j given a new balance x at coin i,
// holding D fixed, via Newton's method on the quadratic y^2+by=c.
func GetY(i, j int, x *uint256.Int, xp []*uint256.Int, ampPrecise *uint256.Int, d *uint256.Int, variant YVariant) (*uint256.Int, error) {
	n := len(xp)
	if i == j || i < 0 || i >= n || j < 0 || j >= n {
		return nil, ErrArithmetic
	}

	nBig := big.NewInt(int64(n))
	ann := new(big.Int).Mul(ampPrecise.ToBig(), nBig)
	dBig := d.ToBig()
	aPrec := APrecision.ToBig()

	c := new(big.Int).Set(dBig)
	s := big.NewInt(0)
	for k := 0; k < n; k++ {
		var xk *big.Int
		switch {
		case k == i:
			xk = x.ToBig()
		case k == j:
			continue
		default:
			xk = xp[k].ToBig()
		}
		s.Add(s, xk)
		denom := new(big.Int).Mul(xk, nBig)
		if denom.Sign() == 0 {
			return nil, ErrArithmetic
		}
		c.Mul(c, dBig)
		c.Div(c, denom)
	}

	var b *big.Int
	switch variant {
	case YVariantLegacyGroup0, YVariantLegacyGroup1:
		// Early pools computed Ann without the A_PRECISION scale factor.
		c.Mul(c, dBig)
		c.Div(c, new(big.Int).Mul(ann, nBig))
		b = new(big.Int).Add(s, new(big.Int).Div(dBig, ann))
	default:
		c.Mul(c, dBig)
		c.Mul(c, aPrec)
		c.Div(c, new(big.Int).Mul(ann, nBig))
		b = new(big.Int).Add(s, new(big.Int).Div(new(big.Int).Mul(dBig, aPrec), ann))
	}

	y := new(big.Int).Set(dBig)
	for iter := 0; iter < maxIterations; iter++ {
		yPrev := new(big.Int).Set(y)
		num := new(big.Int).Add(new(big.Int).Mul(y, y), c)
		denom := new(big.Int).Sub(new(big.Int).Add(new(big.Int).Mul(big.NewInt(2), y), b), dBig)
		if denom.Sign() == 0 {
			return nil, ErrArithmetic
		}
		y = new(big.Int).Div(num, denom)

		diff := new(big.Int).Sub(y, yPrev)
		diff.Abs(diff)
		if diff.Cmp(big.NewInt(1)) <= 0 {
			out, overflow := uint256.FromBig(y)
			if overflow {
				return nil, ErrArithmetic
			}
			return out, nil
		}
	}
	return nil, ErrNonConvergence
}

// APreciseAt computes the ramp-aware amplification coefficient (scaled by
// A_PRECISION) at the given block timestamp, linearly interpolating between
// (initialA, initialATime) and (futureA, futureATime).
func APreciseAt(now uint64, initialA, futureA *uint256.Int, initialATime, futureATime uint64) *uint256.Int {
	if now >= futureATime {
		return new(uint256.Int).Set(futureA)
	}
	a0, a1 := initialA.ToBig(), futureA.ToBig()
	t0, t1, t := big.NewInt(int64(initialATime)), big.NewInt(int64(futureATime)), big.NewInt(int64(now))
	span := new(big.Int).Sub(t1, t0)
	if span.Sign() <= 0 {
		return new(uint256.Int).Set(futureA)
	}
	elapsed := new(big.Int).Sub(t, t0)

	var result *big.Int
	if a1.Cmp(a0) > 0 {
		delta := new(big.Int).Sub(a1, a0)
		result = new(big.Int).Add(a0, new(big.Int).Div(new(big.Int).Mul(delta, elapsed), span))
	} else {
		delta := new(big.Int).Sub(a0, a1)
		result = new(big.Int).Sub(a0, new(big.Int).Div(new(big.Int).Mul(delta, elapsed), span))
	}
	out, _ := uint256.FromBig(result)
	return out
}
