package clmm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// PoolState is the decoded swap_io_clmm pool account.
type PoolState struct {
	Address   solana.PublicKey
	ProgramID solana.PublicKey

	// Core states
	Bump           uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	// Liquidity states
	Liquidity                 uint128.Uint128
	SqrtPriceX64              uint128.Uint128
	TickCurrent               int32
	ObservationIndex          uint16
	ObservationUpdateDuration uint16
	FeeGrowthGlobal0X64       uint128.Uint128
	FeeGrowthGlobal1X64       uint128.Uint128
	ProtocolFeesToken0        uint64
	ProtocolFeesToken1        uint64
	Status                    uint8
	// Tick array states
	TickArrayBitmap [16]uint64
	// Other states, zero when the account was truncated after the bitmap
	OpenTime    uint64
	RecentEpoch uint64
}

const rewardInfoLen = 1 + 8 + 8 + 8 + 16 + 8 + 8 + 32 + 32 + 32 + 16

// DecodePoolState decodes the fixed pool layout. The leading discriminator is
// skipped and input shorter than POOL_STATE_MIN_LEN is rejected.
func DecodePoolState(address, programID solana.PublicKey, data []byte) (*PoolState, error) {
	if len(data) < POOL_STATE_MIN_LEN {
		return nil, fmt.Errorf("%w: pool state needs %d bytes, got %d", ErrDeserialization, POOL_STATE_MIN_LEN, len(data))
	}
	total := len(data)
	data = data[DISCRIMINATOR_LEN:]

	l := &PoolState{Address: address, ProgramID: programID}
	offset := 0

	// Parse core states
	l.Bump = data[offset]
	offset += 1

	l.AmmConfig = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.Owner = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.TokenMint0 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.TokenMint1 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.TokenVault0 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.TokenVault1 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.ObservationKey = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	l.MintDecimals0 = data[offset]
	offset += 1

	l.MintDecimals1 = data[offset]
	offset += 1

	l.TickSpacing = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	// Parse liquidity states
	l.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	l.SqrtPriceX64 = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	l.TickCurrent = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	l.ObservationIndex = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	l.ObservationUpdateDuration = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	l.FeeGrowthGlobal0X64 = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	l.FeeGrowthGlobal1X64 = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	l.ProtocolFeesToken0 = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	l.ProtocolFeesToken1 = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	// swap in/out counters
	offset += 4 * 16

	l.Status = data[offset]
	offset += 1

	// Skip padding and reward infos
	offset += 7
	offset += 3 * rewardInfoLen

	for i := 0; i < 16; i++ {
		l.TickArrayBitmap[i] = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	// fee counters
	offset += 6 * 8
	if total >= DISCRIMINATOR_LEN+offset+16 {
		l.OpenTime = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
		l.RecentEpoch = binary.LittleEndian.Uint64(data[offset : offset+8])
	}

	if l.TickSpacing == 0 {
		return nil, fmt.Errorf("%w: pool %s has zero tick spacing", ErrDeserialization, address)
	}
	if l.TickCurrent < MIN_TICK || l.TickCurrent > MAX_TICK {
		return nil, fmt.Errorf("%w: pool %s tick %d out of range", ErrDeserialization, address, l.TickCurrent)
	}
	return l, nil
}

// SameIdentity reports whether o describes the same pool as l.
func (l *PoolState) SameIdentity(o *PoolState) bool {
	return l.Address == o.Address &&
		l.TokenMint0 == o.TokenMint0 &&
		l.TokenMint1 == o.TokenMint1 &&
		l.MintDecimals0 == o.MintDecimals0 &&
		l.MintDecimals1 == o.MintDecimals1 &&
		l.TickSpacing == o.TickSpacing
}

// CurrentPrice returns token1 per token0 as a float, for display only.
func (l *PoolState) CurrentPrice() float64 {
	sqrtPrice, _ := l.SqrtPriceX64.Big().Float64()
	// Q64.64 format conversion
	sqrtPrice = sqrtPrice / math.Pow(2, 64)
	return sqrtPrice * sqrtPrice
}

// IsSwapEnabled checks if swap functionality is enabled for this pool
func (l *PoolState) IsSwapEnabled() bool {
	// Bit 4 corresponds to Swap functionality
	// If bit is 0, swap is enabled; if bit is 1, swap is disabled
	swapBit := (l.Status >> 4) & 1
	return swapBit == 0
}
