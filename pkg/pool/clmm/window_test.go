package clmm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickArrayStartIndexFloors(t *testing.T) {
	testCases := []struct {
		tick    int32
		spacing uint16
		want    int32
	}{
		{0, 60, 0},
		{3599, 60, 0},
		{3600, 60, 3600},
		{-1, 60, -3600},
		{-3600, 60, -3600},
		{-3601, 60, -7200},
		{-61, 1, -120},
		{MIN_TICK, 1, -7394 * 60},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, TickArrayStartIndex(tc.tick, tc.spacing), "tick %d spacing %d", tc.tick, tc.spacing)
	}
}

func testBuilder(spacing uint16) WindowBuilder {
	return WindowBuilder{
		ProgramID:   SWAP_IO_CLMM_PROGRAM_ID,
		Pool:        testPool,
		TickSpacing: spacing,
	}
}

func TestWindowBoundAndOrder(t *testing.T) {
	indexes := make([]int32, 0, 10)
	for i := int32(0); i < 10; i++ {
		indexes = append(indexes, i)
	}
	bitmap := NewTickArrayBitmap(60, defaultBitmapWith(indexes...), DefaultOnly{})
	b := testBuilder(60)

	up, err := b.Build(0, bitmap, Up)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 3600, 7200, 10800, 14400}, up.StartIndexes)

	down, err := b.Build(35999, bitmap, Down)
	require.NoError(t, err)
	assert.Equal(t, []int32{32400, 28800, 25200, 21600, 18000}, down.StartIndexes)

	onlySeed, err := b.Build(0, bitmap, Down)
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, onlySeed.StartIndexes)

	for _, w := range []TickArrayWindow{up, down, onlySeed} {
		assert.LessOrEqual(t, w.Len(), NEIGHBORHOOD_SIZE)
		require.Len(t, w.Addresses, w.Len())
		for i, start := range w.StartIndexes {
			addr, err := TickArrayAddress(SWAP_IO_CLMM_PROGRAM_ID, testPool, start)
			require.NoError(t, err)
			assert.Equal(t, addr, w.Addresses[i])
		}
	}
	for i := 1; i < up.Len(); i++ {
		assert.Greater(t, up.StartIndexes[i], up.StartIndexes[i-1])
	}
	for i := 1; i < down.Len(); i++ {
		assert.Less(t, down.StartIndexes[i], down.StartIndexes[i-1])
	}
}

func TestWindowSeedsFromNextInitialized(t *testing.T) {
	bitmap := NewTickArrayBitmap(60, defaultBitmapWith(0, 5), DefaultOnly{})
	b := testBuilder(60)

	up, err := b.Build(7200, bitmap, Up)
	require.NoError(t, err)
	assert.Equal(t, []int32{18000}, up.StartIndexes)

	down, err := b.Build(7200, bitmap, Down)
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, down.StartIndexes)
}

func TestWindowNegativeTicks(t *testing.T) {
	bitmap := NewTickArrayBitmap(60, defaultBitmapWith(-3, -1, 0), DefaultOnly{})
	b := testBuilder(60)

	down, err := b.Build(-1, bitmap, Down)
	require.NoError(t, err)
	assert.Equal(t, []int32{-3600, -10800}, down.StartIndexes)

	up, err := b.Build(-1, bitmap, Up)
	require.NoError(t, err)
	assert.Equal(t, []int32{-3600, 0}, up.StartIndexes)
}

func TestWindowNeighborhoodSize(t *testing.T) {
	bitmap := NewTickArrayBitmap(60, defaultBitmapWith(0, 1, 2, 3), DefaultOnly{})
	b := testBuilder(60)
	b.NeighborhoodSize = 2

	up, err := b.Build(0, bitmap, Up)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 3600}, up.StartIndexes)
}

func TestWindowEmptyBitmap(t *testing.T) {
	bitmap := NewTickArrayBitmap(60, [16]uint64{}, DefaultOnly{})
	up, down, upErr, downErr := testBuilder(60).BuildBoth(0, bitmap)
	require.NoError(t, upErr)
	require.NoError(t, downErr)
	assert.Zero(t, up.Len())
	assert.Zero(t, down.Len())
}

func TestWindowBoundaryLimitation(t *testing.T) {
	bitmap := NewTickArrayBitmap(1, defaultBitmapWith(0), DefaultOnly{})
	up, down, upErr, downErr := testBuilder(1).BuildBoth(40000, bitmap)
	assert.True(t, errors.Is(upErr, ErrBoundaryLimitation))
	assert.True(t, errors.Is(downErr, ErrBoundaryLimitation))
	assert.Zero(t, up.Len())
	assert.Zero(t, down.Len())
}

func TestDirectionForSwap(t *testing.T) {
	assert.Equal(t, Down, DirectionForSwap(true))
	assert.Equal(t, Up, DirectionForSwap(false))
	assert.Equal(t, "down", Down.String())
	assert.Equal(t, "up", Up.String())
}
