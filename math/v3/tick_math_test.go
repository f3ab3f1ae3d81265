package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSqrtRatioAtTickKnownVectors(t *testing.T) {
	r, err := GetSqrtRatioAtTick(50)
	require.NoError(t, err)
	assert.Equal(t, "79426470787362580746886972461", r.Dec())

	r, err = GetSqrtRatioAtTick(0)
	require.NoError(t, err)
	assert.Equal(t, Q96.Dec(), r.Dec())

	r, err = GetSqrtRatioAtTick(MaxTick - 1)
	require.NoError(t, err)
	assert.Equal(t, "1461373636630004318706518188784493106690254656249", r.Dec())
}

func TestGetSqrtRatioAtTickOutOfRange(t *testing.T) {
	_, err := GetSqrtRatioAtTick(MaxTick + 1)
	assert.ErrorIs(t, err, ErrTickOutOfRange)
	_, err = GetSqrtRatioAtTick(MinTick - 1)
	assert.ErrorIs(t, err, ErrTickOutOfRange)
}

func TestTickRoundTrip(t *testing.T) {
	samples := []int{MinTick, MinTick + 1, -100000, -1, 0, 1, 100000, MaxTick - 1}
	for _, tick := range samples {
		sp, err := GetSqrtRatioAtTick(tick)
		require.NoError(t, err)
		got, err := GetTickAtSqrtRatio(sp)
		require.NoError(t, err)
		diff := got - tick
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "tick %d round-tripped to %d", tick, got)
	}
}

func TestPosition(t *testing.T) {
	word, bit := Position(300)
	assert.Equal(t, int16(1), word)
	assert.Equal(t, uint8(44), bit)

	word, bit = Position(-300)
	assert.Equal(t, int16(-2), word)
	assert.Equal(t, uint8(212), bit)
}
