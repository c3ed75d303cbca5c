package clmm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	q64        = uint256.NewInt(0).Lsh(uint256.NewInt(1), U64Resolution)
	maxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

	// sqrt(1.0001^-(2^i)) in Q64.64, for bit i of |tick|.
	tickRatios = [...]*uint256.Int{
		uint256.MustFromDecimal("18445821805675395072"),
		uint256.MustFromDecimal("18444899583751176192"),
		uint256.MustFromDecimal("18443055278223355904"),
		uint256.MustFromDecimal("18439367220385607680"),
		uint256.MustFromDecimal("18431993317065453568"),
		uint256.MustFromDecimal("18417254355718170624"),
		uint256.MustFromDecimal("18387811781193609216"),
		uint256.MustFromDecimal("18329067761203558400"),
		uint256.MustFromDecimal("18212142134806163456"),
		uint256.MustFromDecimal("17980523815641700352"),
		uint256.MustFromDecimal("17526086738831433728"),
		uint256.MustFromDecimal("16651378430235570176"),
		uint256.MustFromDecimal("15030750278694412288"),
		uint256.MustFromDecimal("12247334978884435968"),
		uint256.MustFromDecimal("8131365268886854656"),
		uint256.MustFromDecimal("3584323654725218816"),
		uint256.MustFromDecimal("696457651848324352"),
		uint256.MustFromDecimal("26294789957507116"),
		uint256.MustFromDecimal("37481735321082"),
	}
)

// SqrtPriceX64AtTick returns sqrt(1.0001^tick) as a Q64.64 number.
func SqrtPriceX64AtTick(tick int32) (*big.Int, error) {
	if tick < MIN_TICK || tick > MAX_TICK {
		return nil, fmt.Errorf("%w: tick %d outside [%d, %d]", ErrArithmetic, tick, MIN_TICK, MAX_TICK)
	}
	return sqrtPriceAtTick(tick).ToBig(), nil
}

func sqrtPriceAtTick(tick int32) *uint256.Int {
	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int).Set(q64)
	if absTick&1 != 0 {
		ratio.Set(tickRatios[0])
	}
	for i := 1; i < len(tickRatios); i++ {
		if absTick&(1<<i) != 0 {
			ratio.Mul(ratio, tickRatios[i])
			ratio.Rsh(ratio, U64Resolution)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint128, ratio)
	}
	return ratio
}

// TickAtSqrtPriceX64 returns the greatest tick whose sqrt price is not above
// sqrtPriceX64.
func TickAtSqrtPriceX64(sqrtPriceX64 *big.Int) (int32, error) {
	if sqrtPriceX64.Cmp(MIN_SQRT_PRICE_X64.BigInt()) < 0 || sqrtPriceX64.Cmp(MAX_SQRT_PRICE_X64.BigInt()) > 0 {
		return 0, fmt.Errorf("%w: sqrt price %s outside supported range", ErrArithmetic, sqrtPriceX64)
	}
	price, overflow := uint256.FromBig(sqrtPriceX64)
	if overflow {
		return 0, fmt.Errorf("%w: sqrt price %s overflows", ErrArithmetic, sqrtPriceX64)
	}

	lo, hi := int32(MIN_TICK), int32(MAX_TICK)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if sqrtPriceAtTick(mid).Cmp(price) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
