package clmm

import (
	"math/big"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	// Token Program IDs
	TOKEN_2022_PROGRAM_ID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MEMO_PROGRAM_ID       = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// swap_io_clmm program
	SWAP_IO_CLMM_PROGRAM_ID = solana.MustPublicKeyFromBase58("SWPammPnp7L9qFgV436u3CSPmcxU6ZQm6ttawzDTRuw")
)

// Tick Array Configuration
const (
	TICK_ARRAY_SIZE                 = 60
	TickSize                        = 168
	TICK_ARRAY_BITMAP_SIZE          = 512
	MAX_TICK                        = 443636
	MIN_TICK                        = -443636
	EXTENSION_TICKARRAY_BITMAP_SIZE = 14
	U64Resolution                   = 64

	// NEIGHBORHOOD_SIZE is the default number of tick arrays discovered per direction.
	NEIGHBORHOOD_SIZE = 5
)

// Account layouts, all lengths include the 8 byte anchor discriminator.
const (
	DISCRIMINATOR_LEN = 8

	POOL_STATE_LEN = 1544
	// POOL_STATE_MIN_LEN covers every field up to and including the tick array bitmap.
	POOL_STATE_MIN_LEN = 1032

	TICK_ARRAY_LEN     = 10240
	TICK_ARRAY_MIN_LEN = DISCRIMINATOR_LEN + 32 + 4 + TICK_ARRAY_SIZE*TickSize + 1

	AMM_CONFIG_LEN = 117

	BITMAP_EXTENSION_LEN = DISCRIMINATOR_LEN + 32 + 2*EXTENSION_TICKARRAY_BITMAP_SIZE*8*8
)

// Price Constants
var (
	MIN_SQRT_PRICE_X64    = math.NewIntFromBigInt(big.NewInt(4295048016))
	MAX_SQRT_PRICE_X64, _ = math.NewIntFromString("79226673521066979257578248091")
	FEE_RATE_DENOMINATOR  = math.NewInt(int64(1000000))
)

// Seeds
const (
	TICK_ARRAY_SEED             = "tick_array"
	POOL_TICK_ARRAY_BITMAP_SEED = "pool_tick_array_bitmap_extension"
)
