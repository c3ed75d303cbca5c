package clmm

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// TickArrayAddress derives the tick array PDA for startIndex.
func TickArrayAddress(programID, pool solana.PublicKey, startIndex int32) (solana.PublicKey, error) {
	startIndexBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(startIndexBytes, uint32(startIndex))
	seeds := [][]byte{
		[]byte(TICK_ARRAY_SEED), pool.Bytes(), startIndexBytes,
	}
	pk, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive tick array %d: %w", startIndex, err)
	}
	return pk, nil
}

// TickArrayBitmapExtensionAddress derives the bitmap extension PDA of pool.
func TickArrayBitmapExtensionAddress(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(POOL_TICK_ARRAY_BITMAP_SEED),
		pool.Bytes(),
	}
	pk, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive bitmap extension: %w", err)
	}
	return pk, nil
}
