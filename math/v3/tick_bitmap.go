package v3

import "github.com/holiman/uint256"

// Position splits a compressed tick into its word and bit position within
// a 256-bit tick-bitmap word.
func Position(tick int) (wordPos int16, bitPos uint8) {
	wordPos = int16(tick >> 8)
	bitPos = uint8(uint32(tick) & 0xff)
	return
}

// NextInitializedTickWithinOneWord locates the next initialized tick
// contained in the same word as `tick` (the caller must fetch the adjacent
// word and retry if none is found, per spec 4.B's "on-demand fetch to
// snapshot if absent"). `bitmap` maps word index to the packed 256-bit
// initialized-tick flags for that word.
func NextInitializedTickWithinOneWord(bitmap map[int16]*uint256.Int, tick, tickSpacing int, lte bool) (next int, initialized bool) {
	compressed := floorDiv(tick, tickSpacing)

	if lte {
		wordPos, bitPos := Position(compressed)
		mask := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)+1), uint256.NewInt(1))
		word := wordAt(bitmap, wordPos)
		masked := new(uint256.Int).And(word, mask)

		initialized = !masked.IsZero()
		if initialized {
			msb := int(MostSignificantBit(masked))
			next = (compressed - (int(bitPos) - msb)) * tickSpacing
		} else {
			next = (compressed - int(bitPos)) * tickSpacing
		}
		return
	}

	wordPos, bitPos := Position(compressed + 1)
	notMask := new(uint256.Int).Not(new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)), uint256.NewInt(1)))
	word := wordAt(bitmap, wordPos)
	masked := new(uint256.Int).And(word, notMask)

	initialized = !masked.IsZero()
	if initialized {
		lsb := int(LeastSignificantBit(masked))
		next = (compressed + 1 + (lsb - int(bitPos))) * tickSpacing
	} else {
		next = (compressed + 1 + (255 - int(bitPos))) * tickSpacing
	}
	return
}

func wordAt(bitmap map[int16]*uint256.Int, pos int16) *uint256.Int {
	if w, ok := bitmap[pos]; ok && w != nil {
		return w
	}
	return uint256.NewInt(0)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
