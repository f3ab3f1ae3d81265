package v3

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrTickOutOfRange is returned when a tick falls outside [MinTick, MaxTick].
var ErrTickOutOfRange = errors.New("v3: tick out of range")

// ErrSqrtRatioOutOfRange is returned when a sqrt ratio falls outside
// [MinSqrtRatio, MaxSqrtRatio).
var ErrSqrtRatioOutOfRange = errors.New("v3: sqrt ratio out of range")

// ratioConstants are the per-bit multipliers in the tick -> sqrt-ratio
// magic-constant table, one per set bit of |tick| from 0x1 through 0x80000.
var ratioConstants = []string{
	"fffcb933bd6fad37aa2d162d1a594001",
	"fff97272373d413259a46990580e213a",
	"fff2e50f5f656932ef12357cf3c7fdcc",
	"ffe5caca7e10e4e61c3624eaa0941cd0",
	"ffcb9843d60f6159c9db58835c926644",
	"ff973b41fa98c081472e6896dfb254c0",
	"ff2ea16466c96a3843ec78b326b52861",
	"fe5dee046a99a2a811c461f1969c3053",
	"fcbe86c7900a88aedcffc83b479aa3a4",
	"f987a7253ac413176f2b074cf7815e54",
	"f3392b0822b70005940c7a398e4b70f3",
	"e7159475a2c29b7443b29c7fa6e889d9",
	"d097f3bdfd2022b8845ad8f792aa5825",
	"a9f746462d870fdf8a65dc1f90e061e5",
	"70d869a156d2a1b890bb3df62baf32f7",
	"31be135f97d08fd981231505542fcfa6",
	"09aa508b5b7a84e1c677de54f3e99bc9",
	"05d6af8dedb81196699c329225ee604",
	"02216e584f5fa1ea926041bedfe98",
	"0048a170391f7dc42444e8fa2",
}

var ratioConstantInts = mustParseRatioConstants()

func mustParseRatioConstants() []*uint256.Int {
	out := make([]*uint256.Int, len(ratioConstants))
	for i, s := range ratioConstants {
		z, err := uint256.FromHex("0x" + s)
		if err != nil {
			panic(err)
		}
		out[i] = z
	}
	return out
}

// GetSqrtRatioAtTick computes sqrtPriceX96 = 1.0001^(tick/2) * 2^96 via the
// published bit-test magic-constant multiplication table.
func GetSqrtRatioAtTick(tick int) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	var ratio *uint256.Int
	if absTick&0x1 != 0 {
		ratio = new(uint256.Int).Set(ratioConstantInts[0])
	} else {
		ratio, _ = uint256.FromHex("0x100000000000000000000000000000000")
	}

	for i := 1; i < len(ratioConstantInts); i++ {
		bit := 1 << uint(i)
		if absTick&bit != 0 {
			ratio = new(uint256.Int).Mul(ratio, ratioConstantInts[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		maxU256 := new(uint256.Int).Not(uint256.NewInt(0))
		ratio = new(uint256.Int).Div(maxU256, ratio)
	}

	result := new(uint256.Int).Rsh(ratio, 32)
	rem := new(uint256.Int).Mod(ratio, new(uint256.Int).Lsh(uint256.NewInt(1), 32))
	if !rem.IsZero() {
		result.Add(result, uint256.NewInt(1))
	}
	return result, nil
}

// GetTickAtSqrtRatio inverts GetSqrtRatioAtTick via a binary-logarithm
// approximation, returning the greatest tick whose sqrt ratio does not
// exceed sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtRatioOutOfRange
	}

	sqrtRatioX128 := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb := int(MostSignificantBit(sqrtRatioX128))

	var r *big.Int
	ratioBig := sqrtRatioX128.ToBig()
	if msb >= 128 {
		r = new(big.Int).Rsh(ratioBig, uint(msb-127))
	} else {
		r = new(big.Int).Lsh(ratioBig, uint(127-msb))
	}

	log2 := new(big.Int).Lsh(big.NewInt(int64(msb-128)), 64)

	for i := 0; i < 14; i++ {
		r = new(big.Int).Rsh(new(big.Int).Mul(r, r), 127)
		f := new(big.Int).Rsh(r, 128)
		log2 = new(big.Int).Or(log2, new(big.Int).Lsh(f, uint(63-i)))
		r = new(big.Int).Rsh(r, uint(f.Int64()))
	}

	logSqrt10001 := new(big.Int).Mul(log2, sqrt10001)

	tLow := new(big.Int).Add(logSqrt10001, tickLow)
	tLow.Rsh(tLow, 128)
	tHigh := new(big.Int).Add(logSqrt10001, tickHigh)
	tHigh.Rsh(tHigh, 128)

	tickLowInt := int(tLow.Int64())
	tickHighInt := int(tHigh.Int64())

	if tickLowInt == tickHighInt {
		return tickLowInt, nil
	}

	atHigh, err := GetSqrtRatioAtTick(tickHighInt)
	if err != nil {
		return tickLowInt, nil
	}
	if atHigh.Cmp(sqrtPriceX96) <= 0 {
		return tickHighInt, nil
	}
	return tickLowInt, nil
}
