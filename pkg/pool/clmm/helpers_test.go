package clmm

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

var (
	testPool        = solana.MustPublicKeyFromBase58("HR1xNcU5XPHpEZDsEknw22oPFELk1VGyBzoSaCJrL926")
	testMint0       = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testMint1       = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testConfig      = testKey(1)
	testVault0      = testKey(2)
	testVault1      = testKey(3)
	testObservation = testKey(4)
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

// testPoolParams describes a pool account to encode.
type testPoolParams struct {
	tickSpacing  uint16
	tickCurrent  int32
	sqrtPriceX64 *big.Int
	liquidity    *big.Int
	// arrayIndexes are the tick array indexes flagged in the pool bitmap.
	arrayIndexes []int32
	decimals0    uint8
	decimals1    uint8
	status       uint8
}

func defaultPoolParams() testPoolParams {
	return testPoolParams{
		tickSpacing:  60,
		tickCurrent:  0,
		sqrtPriceX64: new(big.Int).Lsh(big.NewInt(1), 64),
		liquidity:    new(big.Int).Lsh(big.NewInt(1), 64),
		arrayIndexes: []int32{0},
		decimals0:    9,
		decimals1:    6,
	}
}

func putU128(b []byte, v *big.Int) {
	u := uint128.FromBig(v)
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Hi)
}

// putI128 writes v as a two's complement i128.
func putI128(b []byte, v *big.Int) {
	if v.Sign() < 0 {
		v = new(big.Int).Add(v, two128)
	}
	putU128(b, v)
}

func encodePoolState(p testPoolParams) []byte {
	data := make([]byte, POOL_STATE_LEN)
	d := data[DISCRIMINATOR_LEN:]
	d[0] = 255
	copy(d[1:33], testConfig.Bytes())
	copy(d[65:97], testMint0.Bytes())
	copy(d[97:129], testMint1.Bytes())
	copy(d[129:161], testVault0.Bytes())
	copy(d[161:193], testVault1.Bytes())
	copy(d[193:225], testObservation.Bytes())
	d[225] = p.decimals0
	d[226] = p.decimals1
	binary.LittleEndian.PutUint16(d[227:229], p.tickSpacing)
	putU128(d[229:245], p.liquidity)
	putU128(d[245:261], p.sqrtPriceX64)
	binary.LittleEndian.PutUint32(d[261:265], uint32(p.tickCurrent))
	d[381] = p.status

	var bitmap [16]uint64
	for _, idx := range p.arrayIndexes {
		bit := idx + TICK_ARRAY_BITMAP_SIZE
		bitmap[bit/64] |= 1 << (bit % 64)
	}
	for i, w := range bitmap {
		binary.LittleEndian.PutUint64(d[896+i*8:], w)
	}
	binary.LittleEndian.PutUint64(d[1080:1088], 42)
	return data
}

// testTick is one initialized tick of an encoded tick array.
type testTick struct {
	tick         int32
	liquidityNet *big.Int
}

func encodeTickArray(pool solana.PublicKey, start int32, tickSpacing uint16, ticks ...testTick) []byte {
	data := make([]byte, TICK_ARRAY_LEN)
	d := data[DISCRIMINATOR_LEN:]
	copy(d[0:32], pool.Bytes())
	binary.LittleEndian.PutUint32(d[32:36], uint32(start))
	for _, tk := range ticks {
		slot := (tk.tick - start) / int32(tickSpacing)
		off := 36 + int(slot)*TickSize
		binary.LittleEndian.PutUint32(d[off:off+4], uint32(tk.tick))
		putI128(d[off+4:off+20], tk.liquidityNet)
		putU128(d[off+20:off+36], new(big.Int).Abs(tk.liquidityNet))
	}
	d[36+TICK_ARRAY_SIZE*TickSize] = uint8(len(ticks))
	return data
}

func encodeAmmConfig(tradeFeeRate uint32, tickSpacing uint16) []byte {
	data := make([]byte, AMM_CONFIG_LEN)
	d := data[DISCRIMINATOR_LEN:]
	d[0] = 254
	binary.LittleEndian.PutUint16(d[1:3], 1)
	binary.LittleEndian.PutUint32(d[35:39], 120000)
	binary.LittleEndian.PutUint32(d[39:43], tradeFeeRate)
	binary.LittleEndian.PutUint16(d[43:45], tickSpacing)
	binary.LittleEndian.PutUint32(d[45:49], 40000)
	return data
}

func encodeMint(decimals uint8) []byte {
	data := make([]byte, mintBaseLen)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000)
	data[44] = decimals
	data[45] = 1
	return data
}

// encodeToken2022Mint encodes a Token-2022 mint carrying a TransferFeeConfig.
func encodeToken2022Mint(decimals uint8, older, newer TransferFee) []byte {
	data := make([]byte, tlvStart+4+transferFeeConfigLen)
	copy(data, encodeMint(decimals))
	data[accountTypeOffset] = accountTypeMint
	binary.LittleEndian.PutUint16(data[tlvStart:], extensionTransferFee)
	binary.LittleEndian.PutUint16(data[tlvStart+2:], transferFeeConfigLen)
	cfg := data[tlvStart+4+72:]
	for i, fee := range []TransferFee{older, newer} {
		f := cfg[i*transferFeeLen:]
		binary.LittleEndian.PutUint64(f[0:8], fee.Epoch)
		binary.LittleEndian.PutUint64(f[8:16], fee.MaximumFee)
		binary.LittleEndian.PutUint16(f[16:18], fee.TransferFeeBasisPoints)
	}
	return data
}

func encodeExtension(pool solana.PublicKey, ext *TickArrayBitmapExtension) []byte {
	data := make([]byte, BITMAP_EXTENSION_LEN)
	d := data[DISCRIMINATOR_LEN:]
	copy(d[0:32], pool.Bytes())
	if ext == nil {
		return data
	}
	off := 32
	for _, side := range [][EXTENSION_TICKARRAY_BITMAP_SIZE][8]uint64{ext.PositiveTickArrayBitmap, ext.NegativeTickArrayBitmap} {
		for k := range side {
			for _, w := range side[k] {
				binary.LittleEndian.PutUint64(d[off:], w)
				off += 8
			}
		}
	}
	return data
}

// newTestMirror builds a mirror over p and refreshes it with a 2500 fee
// config, plain mints and the given windows.
func newTestMirror(t *testing.T, p testPoolParams, up, down [][]byte) *PoolStateMirror {
	t.Helper()
	m, err := NewPoolStateMirror(testPool, SWAP_IO_CLMM_PROGRAM_ID, encodePoolState(p))
	require.NoError(t, err)
	require.NoError(t, m.Refresh(RefreshInput{
		Config:    encodeAmmConfig(2500, p.tickSpacing),
		Mint0:     encodeMint(p.decimals0),
		Mint1:     encodeMint(p.decimals1),
		Extension: encodeExtension(testPool, nil),
		Up:        up,
		Down:      down,
		Epoch:     500,
	}))
	return m
}

func twoPow64() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 64)
}
