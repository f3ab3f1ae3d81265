package v3

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// MostSignificantBit returns the index (0-255) of the highest set bit.
// Diverging from the Solidity reference (which reverts on zero), a zero
// input returns 0 as a sentinel — callers never invoke this on a zero value
// in a path that matters, matching the reference implementation's own
// documented divergence.
func MostSignificantBit(x *uint256.Int) uint8 {
	bl := x.BitLen()
	if bl == 0 {
		return 0
	}
	return uint8(bl - 1)
}

// LeastSignificantBit returns the index (0-255) of the lowest set bit. A
// zero input returns 255 as a sentinel.
func LeastSignificantBit(x *uint256.Int) uint8 {
	if x.IsZero() {
		return 255
	}
	words := x.Bytes32()
	// Bytes32 is big-endian; walk from the least-significant byte.
	for i := 31; i >= 0; i-- {
		if words[i] != 0 {
			return uint8((31-i)*8 + bits.TrailingZeros8(words[i]))
		}
	}
	return 255
}
