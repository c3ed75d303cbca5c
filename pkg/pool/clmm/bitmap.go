package clmm

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TickArrayBitmapExtension flags tick arrays beyond the pool's own bitmap.
// Positive bitmap k covers array indices [(k+1)*512, (k+2)*512), negative
// bitmap k covers [-(k+2)*512, -(k+1)*512).
type TickArrayBitmapExtension struct {
	PoolID                  solana.PublicKey
	PositiveTickArrayBitmap [EXTENSION_TICKARRAY_BITMAP_SIZE][8]uint64
	NegativeTickArrayBitmap [EXTENSION_TICKARRAY_BITMAP_SIZE][8]uint64
}

// DecodeTickArrayBitmapExtension parses the bitmap extension account.
func DecodeTickArrayBitmapExtension(data []byte) (*TickArrayBitmapExtension, error) {
	if len(data) < BITMAP_EXTENSION_LEN {
		return nil, fmt.Errorf("%w: bitmap extension needs %d bytes, got %d", ErrDeserialization, BITMAP_EXTENSION_LEN, len(data))
	}
	ext := &TickArrayBitmapExtension{}
	decoder := bin.NewBinDecoder(data[DISCRIMINATOR_LEN:])
	if err := decoder.Decode(ext); err != nil {
		return nil, fmt.Errorf("%w: bitmap extension: %v", ErrDeserialization, err)
	}
	return ext, nil
}

// BitmapCoverage is either DefaultOnly or WithExtension.
type BitmapCoverage interface {
	isBitmapCoverage()
}

// DefaultOnly covers the pool's 1024 bit bitmap, tick array indices [-512, 512).
type DefaultOnly struct{}

// WithExtension covers the pool bitmap plus both extension sides.
type WithExtension struct {
	Extension *TickArrayBitmapExtension
}

func (DefaultOnly) isBitmapCoverage()   {}
func (WithExtension) isBitmapCoverage() {}

const (
	defaultBitmapWords = 16
	extensionWords     = EXTENSION_TICKARRAY_BITMAP_SIZE * 8
)

// TickArrayBitmap is the initialized tick array index of one pool laid out
// as a single bit vector ordered by tick array index.
type TickArrayBitmap struct {
	tickSpacing uint16
	coverage    BitmapCoverage
	bits        *bitset.BitSet
	// base is the tick array index stored at bit 0.
	base     int64
	minArray int32
	maxArray int32
}

// NewTickArrayBitmap merges the pool bitmap with the given coverage.
func NewTickArrayBitmap(tickSpacing uint16, defaultBitmap [16]uint64, coverage BitmapCoverage) *TickArrayBitmap {
	b := &TickArrayBitmap{
		tickSpacing: tickSpacing,
		coverage:    coverage,
		minArray:    floorDiv(MIN_TICK, TickCount(tickSpacing)),
		maxArray:    floorDiv(MAX_TICK, TickCount(tickSpacing)),
	}

	var words []uint64
	switch c := coverage.(type) {
	case WithExtension:
		if c.Extension == nil {
			b.coverage = DefaultOnly{}
			words = append([]uint64(nil), defaultBitmap[:]...)
			b.base = -TICK_ARRAY_BITMAP_SIZE
			break
		}
		words = make([]uint64, 2*extensionWords+defaultBitmapWords)
		for k := 0; k < EXTENSION_TICKARRAY_BITMAP_SIZE; k++ {
			copy(words[(EXTENSION_TICKARRAY_BITMAP_SIZE-1-k)*8:], c.Extension.NegativeTickArrayBitmap[k][:])
			copy(words[extensionWords+defaultBitmapWords+k*8:], c.Extension.PositiveTickArrayBitmap[k][:])
		}
		copy(words[extensionWords:], defaultBitmap[:])
		b.base = -int64(EXTENSION_TICKARRAY_BITMAP_SIZE+1) * TICK_ARRAY_BITMAP_SIZE
	default:
		b.coverage = DefaultOnly{}
		words = append([]uint64(nil), defaultBitmap[:]...)
		b.base = -TICK_ARRAY_BITMAP_SIZE
	}
	b.bits = bitset.From(words)
	return b
}

// Coverage returns the variant this bitmap was built from.
func (b *TickArrayBitmap) Coverage() BitmapCoverage {
	return b.coverage
}

// InDefaultRange reports whether tick lies in a tick array the pool's own
// bitmap can describe.
func (b *TickArrayBitmap) InDefaultRange(tick int32) bool {
	idx := floorDiv(tick, TickCount(b.tickSpacing))
	return idx >= -TICK_ARRAY_BITMAP_SIZE && idx < TICK_ARRAY_BITMAP_SIZE
}

// IsInitialized reports whether the tick array starting at startIndex is flagged.
func (b *TickArrayBitmap) IsInitialized(startIndex int32) bool {
	pos, ok := b.position(floorDiv(startIndex, TickCount(b.tickSpacing)))
	return ok && b.bits.Test(pos)
}

// Next returns the closest flagged tick array start strictly below
// (zeroForOne) or strictly above startIndex.
func (b *TickArrayBitmap) Next(startIndex int32, zeroForOne bool) (int32, bool) {
	tickCount := TickCount(b.tickSpacing)
	rel := int64(floorDiv(startIndex, tickCount)) - b.base
	length := int64(b.bits.Len())

	if zeroForOne {
		rel--
		if rel >= length {
			rel = length - 1
		}
		if rel < 0 {
			return 0, false
		}
		n, ok := b.bits.PreviousSet(uint(rel))
		if !ok {
			return 0, false
		}
		arr := int32(int64(n) + b.base)
		if arr < b.minArray {
			return 0, false
		}
		return arr * tickCount, true
	}

	rel++
	if rel < 0 {
		rel = 0
	}
	if rel >= length {
		return 0, false
	}
	n, ok := b.bits.NextSet(uint(rel))
	if !ok {
		return 0, false
	}
	arr := int32(int64(n) + b.base)
	if arr > b.maxArray {
		return 0, false
	}
	return arr * tickCount, true
}

func (b *TickArrayBitmap) position(arrayIndex int32) (uint, bool) {
	rel := int64(arrayIndex) - b.base
	if rel < 0 || rel >= int64(b.bits.Len()) {
		return 0, false
	}
	return uint(rel), true
}
