package clmm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Direction is the price direction a tick array window extends toward.
type Direction int

const (
	// Up walks toward higher ticks, used by one-for-zero swaps.
	Up Direction = iota
	// Down walks toward lower ticks, used by zero-for-one swaps.
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// DirectionForSwap returns the window a swap walks.
func DirectionForSwap(zeroForOne bool) Direction {
	if zeroForOne {
		return Down
	}
	return Up
}

// TickArrayWindow is an ordered list of discovered tick arrays, strictly
// increasing for Up and strictly decreasing for Down.
type TickArrayWindow struct {
	StartIndexes []int32
	Addresses    []solana.PublicKey
}

// Len returns the number of tick arrays in the window.
func (w TickArrayWindow) Len() int {
	return len(w.StartIndexes)
}

// WindowBuilder discovers the nearest initialized tick arrays of one pool.
type WindowBuilder struct {
	ProgramID        solana.PublicKey
	Pool             solana.PublicKey
	TickSpacing      uint16
	NeighborhoodSize int
}

// Build returns at most NeighborhoodSize initialized tick arrays starting at
// the array holding tickCurrent and extending in dir.
func (b WindowBuilder) Build(tickCurrent int32, bitmap *TickArrayBitmap, dir Direction) (TickArrayWindow, error) {
	if !bitmap.InDefaultRange(tickCurrent) {
		return TickArrayWindow{}, fmt.Errorf("%w: tick %d outside default bitmap for spacing %d", ErrBoundaryLimitation, tickCurrent, b.TickSpacing)
	}
	size := b.NeighborhoodSize
	if size <= 0 {
		size = NEIGHBORHOOD_SIZE
	}
	zeroForOne := dir == Down

	start := TickArrayStartIndex(tickCurrent, b.TickSpacing)
	if !bitmap.IsInitialized(start) {
		next, ok := bitmap.Next(start, zeroForOne)
		if !ok {
			return TickArrayWindow{}, nil
		}
		start = next
	}

	window := TickArrayWindow{
		StartIndexes: make([]int32, 0, size),
		Addresses:    make([]solana.PublicKey, 0, size),
	}
	for {
		addr, err := TickArrayAddress(b.ProgramID, b.Pool, start)
		if err != nil {
			return TickArrayWindow{}, err
		}
		window.StartIndexes = append(window.StartIndexes, start)
		window.Addresses = append(window.Addresses, addr)
		if len(window.StartIndexes) == size {
			break
		}
		next, ok := bitmap.Next(start, zeroForOne)
		if !ok {
			break
		}
		start = next
	}
	return window, nil
}

// BuildBoth runs Build for both directions. A failure in one direction does
// not affect the other.
func (b WindowBuilder) BuildBoth(tickCurrent int32, bitmap *TickArrayBitmap) (up, down TickArrayWindow, upErr, downErr error) {
	up, upErr = b.Build(tickCurrent, bitmap, Up)
	down, downErr = b.Build(tickCurrent, bitmap, Down)
	return up, down, upErr, downErr
}
