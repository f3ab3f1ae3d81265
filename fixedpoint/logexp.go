package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Natural-exponent and natural-log helpers for Balancer-style weighted pool
// math (spec 4.A: pow(x,y) on WAD via exp(y*ln(x)), internally computed on a
// 100-decimal (10^20) scale with a precomputed {x_k, a_k=e^x_k} table and a
// Taylor-series remainder). All intermediates use math/big since the
// products briefly exceed 256 bits (e.g. a0 ~ 3.9e55 multiplied by a
// 20-decimal-scaled remainder).

var (
	one18 = big.NewInt(0).Exp(big.NewInt(10), big.NewInt(18), nil)
	one20 = big.NewInt(0).Exp(big.NewInt(10), big.NewInt(20), nil)
	one36 = big.NewInt(0).Exp(big.NewInt(10), big.NewInt(36), nil)

	maxNaturalExponent = mulI(big.NewInt(130), one18)
	minNaturalExponent = mulI(big.NewInt(-41), one18)

	ln36LowerBound = subI(one18, big.NewInt(100000000000000000))
	ln36UpperBound = addI(one18, big.NewInt(100000000000000000))
)

func mulI(a *big.Int, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }
func addI(a, b *big.Int) *big.Int          { return new(big.Int).Add(a, b) }
func subI(a, b *big.Int) *big.Int          { return new(big.Int).Sub(a, b) }
func divI(a, b *big.Int) *big.Int          { return new(big.Int).Div(a, b) }

type expTerm struct {
	x *big.Int
	a *big.Int
}

var expTerms = []expTerm{
	{big.NewInt(0).Mul(big.NewInt(128), one18), s("38877084059945950922200000000000000000000000000000000000")},
	{big.NewInt(0).Mul(big.NewInt(64), one18), s("6235149080811616882910000000")},
	{big.NewInt(0).Mul(big.NewInt(32), one18), s("7896296018268069516100000000000000")},
	{big.NewInt(0).Mul(big.NewInt(16), one18), s("888611052050787263676000000")},
	{big.NewInt(0).Mul(big.NewInt(8), one18), s("298095798704172827474000")},
	{big.NewInt(0).Mul(big.NewInt(4), one18), s("5459815003314423907810")},
	{big.NewInt(0).Mul(big.NewInt(2), one18), s("738905609893065022723")},
	{one18, s("271828182845904523536")},
}

func s(v string) *big.Int {
	n, _ := new(big.Int).SetString(v, 10)
	return n
}

// exp computes e^x for x expressed on the 18-decimal scale, returning a
// value on the same 18-decimal scale. Mirrors LogExpMath's `exp`.
func exp(x *big.Int) (*big.Int, bool) {
	if x.Cmp(minNaturalExponent) < 0 || x.Cmp(maxNaturalExponent) > 0 {
		return nil, true
	}
	if x.Sign() < 0 {
		pos, overflow := exp(new(big.Int).Neg(x))
		if overflow {
			return nil, true
		}
		return divI(mulI(one18, one18), pos), false
	}

	firstAN := big.NewInt(1)
	remaining := new(big.Int).Set(x)
	for _, t := range []expTerm{expTerms[0], expTerms[1]} {
		if remaining.Cmp(t.x) >= 0 {
			remaining.Sub(remaining, t.x)
			firstAN.Mul(firstAN, t.a)
		}
	}

	remaining.Mul(remaining, big.NewInt(100))
	product := new(big.Int).Set(one20)

	for _, t := range expTerms[2:] {
		x20 := mulI(t.x, big.NewInt(100))
		if remaining.Cmp(x20) >= 0 {
			remaining.Sub(remaining, x20)
			product = divI(mulI(product, t.a), one20)
		}
	}

	seriesSum := new(big.Int).Set(one20)
	term := new(big.Int).Set(remaining)
	seriesSum.Add(seriesSum, term)

	for i := int64(2); i <= 12; i++ {
		term = divI(mulI(term, remaining), mulI(big.NewInt(i), one20))
		seriesSum.Add(seriesSum, term)
	}

	result := divI(mulI(product, seriesSum), one20)
	result = mulI(result, firstAN)
	result = divI(result, big.NewInt(100))
	return result, false
}

// ln computes ln(a) for a on the 18-decimal scale. Mirrors LogExpMath's `_ln`.
func ln(a *big.Int) *big.Int {
	if a.Cmp(ln36LowerBound) >= 0 && a.Cmp(ln36UpperBound) <= 0 {
		return divI(ln36(a), one18)
	}

	sum := big.NewInt(0)
	x := new(big.Int).Set(a)
	for _, t := range expTerms[:7] {
		if x.Cmp(t.a) >= 0 {
			x = divI(mulI(x, one18), t.a)
			sum.Add(sum, t.x)
		}
	}

	x.Sub(x, one18)
	zSum := new(big.Int).Set(x)
	z := divI(mulI(x, one18), addI(x, mulI(big.NewInt(2), one18)))
	zSquared := divI(mulI(z, z), one18)
	num := new(big.Int).Set(z)
	for i := int64(3); i <= 11; i += 2 {
		num = divI(mulI(num, zSquared), one18)
		zSum.Add(zSum, divI(num, big.NewInt(i)))
	}
	zSum.Mul(zSum, big.NewInt(2))

	return divI(addI(sum, zSum), big.NewInt(1))
}

// ln36 computes ln(x) for x very close to 1, on a 36-decimal scale, and
// returns a value on the 36-decimal scale. Mirrors `_ln_36`.
func ln36(x *big.Int) *big.Int {
	x = mulI(x, one18)

	z := divI(mulI(subI(x, one36), one36), addI(x, one36))
	zSquared := divI(mulI(z, z), one36)
	num := new(big.Int).Set(z)
	seriesSum := new(big.Int).Set(z)
	for i := int64(3); i <= 15; i += 2 {
		num = divI(mulI(num, zSquared), one36)
		seriesSum.Add(seriesSum, divI(num, big.NewInt(i)))
	}
	return mulI(seriesSum, big.NewInt(2))
}

// Pow computes x^y on WAD fixed point via exp(y*ln(x)), special-casing
// y in {0, 1, 2, 4} exactly as the reference does.
func Pow(x, y *uint256.Int) (*uint256.Int, bool) {
	yb := y.ToBig()
	if yb.Sign() == 0 {
		return uint256.NewInt(0).Set(WAD), false
	}
	xb := x.ToBig()
	if xb.Sign() == 0 {
		return uint256.NewInt(0), false
	}

	switch {
	case yb.Cmp(one18) == 0:
		return new(uint256.Int).Set(x), false
	case yb.Cmp(mulI(big.NewInt(2), one18)) == 0:
		r, of := MulDown(x, x)
		return r, of
	case yb.Cmp(mulI(big.NewInt(4), one18)) == 0:
		sq, of := MulDown(x, x)
		if of {
			return nil, true
		}
		r, of := MulDown(sq, sq)
		return r, of
	}

	logX := ln(xb)
	lnXTimesY := divI(mulI(logX, yb), one18)
	if lnXTimesY.Cmp(minNaturalExponent) < 0 || lnXTimesY.Cmp(maxNaturalExponent) > 0 {
		return nil, true
	}
	result, overflow := exp(lnXTimesY)
	if overflow {
		return nil, true
	}
	out, overflow := uint256.FromBig(result)
	return out, overflow
}

// maxPowRelativeError is the relative-error cushion applied by pow_up/pow_down.
var (
	maxPowRelativeError = uint256.NewInt(10000)
	twoWAD              = new(uint256.Int).Mul(uint256.NewInt(2), WAD)
)

// PowUp is Pow with a relative-error cushion added, rounding the result up.
func PowUp(x, y *uint256.Int) (*uint256.Int, bool) {
	if y.Cmp(WAD) == 0 {
		return new(uint256.Int).Set(x), false
	}
	if y.Cmp(twoWAD) == 0 {
		return MulUp(x, x)
	}
	raw, overflow := Pow(x, y)
	if overflow {
		return nil, true
	}
	cushion, of := MulUp(raw, maxPowRelativeError)
	if of {
		return nil, true
	}
	cushion, of = DivUp(cushion, WAD)
	if of {
		return nil, true
	}
	sum, carry := new(uint256.Int).AddOverflow(raw, cushion)
	one := uint256.NewInt(1)
	sum, carry2 := new(uint256.Int).AddOverflow(sum, one)
	return sum, carry || carry2
}

// PowDown is Pow with a relative-error cushion subtracted, rounding down.
func PowDown(x, y *uint256.Int) (*uint256.Int, bool) {
	if y.Cmp(WAD) == 0 {
		return new(uint256.Int).Set(x), false
	}
	if y.Cmp(twoWAD) == 0 {
		return MulDown(x, x)
	}
	raw, overflow := Pow(x, y)
	if overflow {
		return nil, true
	}
	cushion, of := MulUp(raw, maxPowRelativeError)
	if of {
		return nil, true
	}
	cushion, of = DivUp(cushion, WAD)
	if of {
		return nil, true
	}
	if raw.Cmp(cushion) < 0 {
		return uint256.NewInt(0), false
	}
	return new(uint256.Int).Sub(raw, cushion), false
}
