package v3

import "github.com/holiman/uint256"

// Sqrt computes the integer square root of x via the Babylonian method,
// matching the reference's bit-exact rounding (floor).
func Sqrt(x *uint256.Int) *uint256.Int {
	if x.IsZero() {
		return uint256.NewInt(0)
	}
	z := new(uint256.Int).Set(x)
	y := new(uint256.Int).Add(x, uint256.NewInt(1))
	y.Div(y, uint256.NewInt(2))
	for y.Cmp(z) < 0 {
		z.Set(y)
		y.Div(x, y)
		y.Add(y, z)
		y.Div(y, uint256.NewInt(2))
	}
	return z
}

// DivRoundingUp divides x by y, rounding the remainder away from zero.
func DivRoundingUp(x, y *uint256.Int) *uint256.Int {
	q := new(uint256.Int).Div(x, y)
	r := new(uint256.Int).Mod(x, y)
	if !r.IsZero() {
		q.Add(q, uint256.NewInt(1))
	}
	return q
}
