package clmm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePoolState(t *testing.T) {
	p := defaultPoolParams()
	p.tickCurrent = -4242
	p.arrayIndexes = []int32{-2, 0, 7}
	p.status = 1 << 4

	pool, err := DecodePoolState(testPool, SWAP_IO_CLMM_PROGRAM_ID, encodePoolState(p))
	require.NoError(t, err)

	assert.Equal(t, testPool, pool.Address)
	assert.Equal(t, testConfig, pool.AmmConfig)
	assert.Equal(t, testMint0, pool.TokenMint0)
	assert.Equal(t, testMint1, pool.TokenMint1)
	assert.Equal(t, testVault0, pool.TokenVault0)
	assert.Equal(t, testVault1, pool.TokenVault1)
	assert.Equal(t, testObservation, pool.ObservationKey)
	assert.Equal(t, uint8(9), pool.MintDecimals0)
	assert.Equal(t, uint8(6), pool.MintDecimals1)
	assert.Equal(t, uint16(60), pool.TickSpacing)
	assert.Equal(t, int32(-4242), pool.TickCurrent)
	assert.Equal(t, twoPow64(), pool.SqrtPriceX64.Big())
	assert.Equal(t, twoPow64(), pool.Liquidity.Big())
	assert.Equal(t, defaultBitmapWith(-2, 0, 7), pool.TickArrayBitmap)
	assert.Equal(t, uint64(42), pool.RecentEpoch)
	assert.False(t, pool.IsSwapEnabled())
	assert.InDelta(t, 1.0, pool.CurrentPrice(), 1e-12)
}

func TestDecodePoolStateTruncatedAfterBitmap(t *testing.T) {
	data := encodePoolState(defaultPoolParams())[:POOL_STATE_MIN_LEN]
	pool, err := DecodePoolState(testPool, SWAP_IO_CLMM_PROGRAM_ID, data)
	require.NoError(t, err)
	assert.Equal(t, defaultBitmapWith(0), pool.TickArrayBitmap)
	assert.Zero(t, pool.RecentEpoch)
}

func TestDecodeRejectsShortInput(t *testing.T) {
	_, err := DecodePoolState(testPool, SWAP_IO_CLMM_PROGRAM_ID, make([]byte, POOL_STATE_MIN_LEN-1))
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = DecodeTickArray(make([]byte, 100))
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = DecodeAmmConfig(make([]byte, AMM_CONFIG_LEN-1))
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = DecodeTickArrayBitmapExtension(make([]byte, 64))
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = DecodeMint(nil)
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestDecodePoolStateRejectsZeroSpacing(t *testing.T) {
	p := defaultPoolParams()
	p.tickSpacing = 0
	_, err := DecodePoolState(testPool, SWAP_IO_CLMM_PROGRAM_ID, encodePoolState(p))
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestDecodeTickArray(t *testing.T) {
	net := new(big.Int).Neg(twoPow64())
	data := encodeTickArray(testPool, -3600, 60,
		testTick{tick: -3600, liquidityNet: twoPow64()},
		testTick{tick: -60, liquidityNet: net},
	)

	ta, err := DecodeTickArray(data)
	require.NoError(t, err)
	require.NoError(t, ta.Validate(testPool, 60))
	assert.Equal(t, int32(-3600), ta.StartTickIndex)
	assert.Equal(t, uint8(2), ta.InitializedTickCount)

	first := ta.Ticks[0]
	assert.True(t, first.IsInitialized())
	assert.Equal(t, twoPow64(), first.LiquidityNetBig())

	last := ta.Ticks[TICK_ARRAY_SIZE-1]
	assert.Equal(t, int32(-60), last.Tick)
	assert.Equal(t, net, last.LiquidityNetBig())
	assert.False(t, ta.Ticks[1].IsInitialized())

	assert.ErrorIs(t, ta.Validate(testConfig, 60), ErrDeserialization)
	assert.ErrorIs(t, ta.Validate(testPool, 7), ErrDeserialization)
}

func TestNextInitializedTick(t *testing.T) {
	ta, err := DecodeTickArray(encodeTickArray(testPool, 0, 60,
		testTick{tick: 0, liquidityNet: twoPow64()},
		testTick{tick: 600, liquidityNet: twoPow64()},
		testTick{tick: 3540, liquidityNet: twoPow64()},
	))
	require.NoError(t, err)

	testCases := []struct {
		name       string
		tick       int32
		zeroForOne bool
		want       int32
		found      bool
	}{
		{"down exact match", 600, true, 600, true},
		{"down between", 599, true, 0, true},
		{"down above array", 9000, true, 3540, true},
		{"down below array", -1, true, 0, false},
		{"up strictly above", 0, false, 600, true},
		{"up between", 601, false, 3540, true},
		{"up below array", -500, false, 0, true},
		{"up at last", 3540, false, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ta.nextInitializedTick(tc.tick, 60, tc.zeroForOne)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got.Tick)
			}
		})
	}
}

func TestDecodeAmmConfig(t *testing.T) {
	cfg, err := DecodeAmmConfig(encodeAmmConfig(2500, 60))
	require.NoError(t, err)
	assert.Equal(t, uint32(2500), cfg.TradeFeeRate)
	assert.Equal(t, uint32(120000), cfg.ProtocolFeeRate)
	assert.Equal(t, uint32(40000), cfg.FundFeeRate)
	assert.Equal(t, uint16(60), cfg.TickSpacing)
	assert.Equal(t, uint16(1), cfg.Index)

	_, err = DecodeAmmConfig(encodeAmmConfig(1_000_000, 60))
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestDecodeTickArrayBitmapExtension(t *testing.T) {
	in := &TickArrayBitmapExtension{PoolID: testPool}
	in.PositiveTickArrayBitmap[3][2] = 0xdead
	in.NegativeTickArrayBitmap[13][7] = 1 << 63

	ext, err := DecodeTickArrayBitmapExtension(encodeExtension(testPool, in))
	require.NoError(t, err)
	assert.Equal(t, in, ext)
}
