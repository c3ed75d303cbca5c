package clmm

import (
	"encoding/binary"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// TickState is one 168 byte tick slot.
type TickState struct {
	Tick int32
	// LiquidityNet is the raw two's complement i128, see LiquidityNetBig.
	LiquidityNet            uint128.Uint128
	LiquidityGross          uint128.Uint128
	FeeGrowthOutside0X64    uint128.Uint128
	FeeGrowthOutside1X64    uint128.Uint128
	RewardGrowthsOutsideX64 [3]uint128.Uint128
	Padding                 [13]uint32
}

// TickArray is a decoded tick array account.
type TickArray struct {
	PoolID               solana.PublicKey
	StartTickIndex       int32
	Ticks                [TICK_ARRAY_SIZE]TickState
	InitializedTickCount uint8
	RecentEpoch          uint64
}

type tickArrayLayout struct {
	PoolID               solana.PublicKey
	StartTickIndex       int32
	Ticks                [TICK_ARRAY_SIZE]TickState
	InitializedTickCount uint8
}

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// IsInitialized reports whether any position references this tick.
func (t *TickState) IsInitialized() bool {
	return !t.LiquidityGross.IsZero()
}

// LiquidityNetBig returns the signed liquidity delta applied when crossing
// the tick from below.
func (t *TickState) LiquidityNetBig() *big.Int {
	v := t.LiquidityNet.Big()
	if t.LiquidityNet.Hi>>63 == 1 {
		v.Sub(v, two128)
	}
	return v
}

// DecodeTickArray parses a tick array account.
func DecodeTickArray(data []byte) (*TickArray, error) {
	if len(data) < TICK_ARRAY_MIN_LEN {
		return nil, fmt.Errorf("%w: tick array needs %d bytes, got %d", ErrDeserialization, TICK_ARRAY_MIN_LEN, len(data))
	}
	var layout tickArrayLayout
	decoder := bin.NewBinDecoder(data[DISCRIMINATOR_LEN:])
	if err := decoder.Decode(&layout); err != nil {
		return nil, fmt.Errorf("%w: tick array: %v", ErrDeserialization, err)
	}
	ta := &TickArray{
		PoolID:               layout.PoolID,
		StartTickIndex:       layout.StartTickIndex,
		Ticks:                layout.Ticks,
		InitializedTickCount: layout.InitializedTickCount,
	}
	if len(data) >= TICK_ARRAY_MIN_LEN+8 {
		ta.RecentEpoch = binary.LittleEndian.Uint64(data[TICK_ARRAY_MIN_LEN : TICK_ARRAY_MIN_LEN+8])
	}
	return ta, nil
}

// Validate checks that the array belongs to pool and starts on a boundary.
func (ta *TickArray) Validate(pool solana.PublicKey, tickSpacing uint16) error {
	if ta.PoolID != pool {
		return fmt.Errorf("%w: tick array %d belongs to pool %s, want %s", ErrDeserialization, ta.StartTickIndex, ta.PoolID, pool)
	}
	if TickArrayStartIndex(ta.StartTickIndex, tickSpacing) != ta.StartTickIndex {
		return fmt.Errorf("%w: tick array start %d is not a multiple of %d", ErrDeserialization, ta.StartTickIndex, TickCount(tickSpacing))
	}
	return nil
}

// TickCount returns the number of ticks covered by one tick array.
func TickCount(tickSpacing uint16) int32 {
	return int32(tickSpacing) * TICK_ARRAY_SIZE
}

// TickArrayStartIndex returns the start index of the array containing tick,
// rounding toward negative infinity.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	return floorDiv(tick, TickCount(tickSpacing)) * TickCount(tickSpacing)
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// nextInitializedTick returns the closest initialized tick in this array that
// is at or below tick when zeroForOne, or strictly above tick otherwise.
func (ta *TickArray) nextInitializedTick(tick int32, tickSpacing uint16, zeroForOne bool) (*TickState, bool) {
	spacing := int32(tickSpacing)
	if zeroForOne {
		if tick < ta.StartTickIndex {
			return nil, false
		}
		offset := (tick - ta.StartTickIndex) / spacing
		if offset >= TICK_ARRAY_SIZE {
			offset = TICK_ARRAY_SIZE - 1
		}
		for ; offset >= 0; offset-- {
			if ta.Ticks[offset].IsInitialized() {
				return &ta.Ticks[offset], true
			}
		}
		return nil, false
	}

	offset := int32(0)
	if tick >= ta.StartTickIndex {
		offset = (tick-ta.StartTickIndex)/spacing + 1
	}
	for ; offset < TICK_ARRAY_SIZE; offset++ {
		if ta.Ticks[offset].IsInitialized() {
			return &ta.Ticks[offset], true
		}
	}
	return nil, false
}
