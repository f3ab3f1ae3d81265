package curve

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wad(n int64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(uint64(n)), Precision)
}

func TestReductionCoefficientBalancedPool(t *testing.T) {
	xp := []*uint256.Int{wad(1000), wad(1000), wad(1000)}
	k, err := ReductionCoefficient(xp, uint256.NewInt(0))
	require.NoError(t, err)
	// A perfectly balanced pool should land at k == 10^18 (no gamma dampening).
	assert.Equal(t, Precision.Dec(), k.Dec())
}

func TestNewtonYConvergesOnBalancedPool(t *testing.T) {
	xp := []*uint256.Int{wad(1000), wad(1000), wad(1000)}
	d, err := GetD(xp, new(uint256.Int).Mul(uint256.NewInt(3*270), APrecision))
	require.NoError(t, err)

	ann := new(uint256.Int).Mul(uint256.NewInt(3*3*270), APrecision)
	gamma := new(uint256.Int).Div(Precision, uint256.NewInt(70000))

	y, err := NewtonY(ann, gamma, xp, d, 2)
	require.NoError(t, err)
	// Solving for the balance that was already in xp should round-trip close
	// to its starting value.
	diff := new(uint256.Int).Sub(xp[2], y)
	if y.Cmp(xp[2]) > 0 {
		diff = new(uint256.Int).Sub(y, xp[2])
	}
	assert.True(t, diff.Cmp(uint256.NewInt(1e12)) < 0, "y=%s diverged from seed xp=%s", y.Dec(), xp[2].Dec())
}
