package graph

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func addrs(hexes ...string) []common.Address {
	out := make([]common.Address, len(hexes))
	for i, h := range hexes {
		out[i] = common.HexToAddress(h)
	}
	return out
}

func TestCanonicalCycleInvariantUnderRotation(t *testing.T) {
	seq := addrs("0x1", "0x5", "0x3", "0x9")
	rotated := append(append([]common.Address{}, seq[2:]...), seq[:2]...)

	assert.Equal(t, CanonicalCycle(seq), CanonicalCycle(rotated))
}

func TestCanonicalCycleInvariantUnderReflection(t *testing.T) {
	seq := addrs("0x1", "0x5", "0x3", "0x9")
	reflected := reverse(seq)

	assert.Equal(t, CanonicalCycle(seq), CanonicalCycle(reflected))
}

func TestCanonicalCycleDistinctForDistinctCycles(t *testing.T) {
	a := CanonicalCycle(addrs("0x1", "0x5", "0x3"))
	b := CanonicalCycle(addrs("0x1", "0x5", "0x7"))
	assert.NotEqual(t, a, b)
}
