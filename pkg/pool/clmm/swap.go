package clmm

import (
	"fmt"
	"math/big"
)

// swapResult holds the totals of one simulated swap.
type swapResult struct {
	amountIn  *big.Int
	amountOut *big.Int
	feeAmount *big.Int
	// end state, used by callers that want the post-swap price
	sqrtPriceX64 *big.Int
	tick         int32
	liquidity    *big.Int
}

type swapParams struct {
	sqrtPriceX64 *big.Int
	liquidity    *big.Int
	tickCurrent  int32
	tickSpacing  uint16
	tradeFeeRate uint32
	zeroForOne   bool
	exactInput   bool
	// amount is the input amount for exact input swaps, else the output amount.
	amount uint64
	// arrays are walked in order and must follow the swap direction.
	arrays []*TickArray
}

// simulateSwap walks the tick arrays crossing initialized ticks until amount
// is consumed. It fails with ErrInsufficientLiquidity when the arrays run out
// first.
func simulateSwap(p swapParams) (*swapResult, error) {
	if p.amount == 0 {
		return nil, fmt.Errorf("%w: swap amount is zero", ErrInvalidArgument)
	}
	if len(p.arrays) == 0 {
		return nil, fmt.Errorf("%w: no tick arrays in direction", ErrInsufficientLiquidity)
	}

	var priceLimit *big.Int
	if p.zeroForOne {
		priceLimit = new(big.Int).Add(MIN_SQRT_PRICE_X64.BigInt(), bigOne)
	} else {
		priceLimit = new(big.Int).Sub(MAX_SQRT_PRICE_X64.BigInt(), bigOne)
	}

	remaining := new(big.Int).SetUint64(p.amount)
	res := &swapResult{
		amountIn:     new(big.Int),
		amountOut:    new(big.Int),
		feeAmount:    new(big.Int),
		sqrtPriceX64: new(big.Int).Set(p.sqrtPriceX64),
		tick:         p.tickCurrent,
		liquidity:    new(big.Int).Set(p.liquidity),
	}

	arrayIdx := 0
	maxSteps := len(p.arrays)*TICK_ARRAY_SIZE + 2
	for steps := 0; remaining.Sign() > 0; steps++ {
		if res.sqrtPriceX64.Cmp(priceLimit) == 0 {
			return nil, fmt.Errorf("%w: price limit reached with %s left", ErrInsufficientLiquidity, remaining)
		}
		if steps > maxSteps {
			return nil, fmt.Errorf("%w: swap did not converge in %d steps", ErrArithmetic, maxSteps)
		}

		var next *TickState
		for arrayIdx < len(p.arrays) {
			var ok bool
			next, ok = p.arrays[arrayIdx].nextInitializedTick(res.tick, p.tickSpacing, p.zeroForOne)
			if ok {
				break
			}
			arrayIdx++
		}
		if arrayIdx == len(p.arrays) {
			return nil, fmt.Errorf("%w: tick arrays exhausted with %s left", ErrInsufficientLiquidity, remaining)
		}

		tickNext := next.Tick
		if tickNext < MIN_TICK {
			tickNext = MIN_TICK
		} else if tickNext > MAX_TICK {
			tickNext = MAX_TICK
		}
		sqrtNext, err := SqrtPriceX64AtTick(tickNext)
		if err != nil {
			return nil, err
		}
		target := sqrtNext
		if (p.zeroForOne && sqrtNext.Cmp(priceLimit) < 0) || (!p.zeroForOne && sqrtNext.Cmp(priceLimit) > 0) {
			target = priceLimit
		}

		step, err := computeSwapStep(res.sqrtPriceX64, target, res.liquidity, remaining, p.tradeFeeRate, p.zeroForOne, p.exactInput)
		if err != nil {
			return nil, err
		}
		startPrice := res.sqrtPriceX64
		res.sqrtPriceX64 = step.sqrtPriceNextX64

		if p.exactInput {
			remaining.Sub(remaining, step.amountIn)
			remaining.Sub(remaining, step.feeAmount)
		} else {
			remaining.Sub(remaining, step.amountOut)
		}
		if remaining.Sign() < 0 {
			return nil, fmt.Errorf("%w: step consumed more than remaining amount", ErrArithmetic)
		}
		res.amountIn.Add(res.amountIn, step.amountIn)
		res.amountOut.Add(res.amountOut, step.amountOut)
		res.feeAmount.Add(res.feeAmount, step.feeAmount)

		if res.sqrtPriceX64.Cmp(sqrtNext) == 0 {
			net := next.LiquidityNetBig()
			if p.zeroForOne {
				net.Neg(net)
			}
			res.liquidity.Add(res.liquidity, net)
			if res.liquidity.Sign() < 0 || res.liquidity.Cmp(maxU128Big) > 0 {
				return nil, fmt.Errorf("%w: liquidity out of u128 range crossing tick %d", ErrArithmetic, tickNext)
			}
			if p.zeroForOne {
				res.tick = tickNext - 1
			} else {
				res.tick = tickNext
			}
		} else if res.sqrtPriceX64.Cmp(startPrice) != 0 {
			res.tick, err = TickAtSqrtPriceX64(res.sqrtPriceX64)
			if err != nil {
				return nil, err
			}
		}
	}

	total := new(big.Int).Add(res.amountIn, res.feeAmount)
	if total.Cmp(maxU64Big) > 0 || res.amountOut.Cmp(maxU64Big) > 0 {
		return nil, fmt.Errorf("%w: swap amounts overflow u64", ErrArithmetic)
	}
	return res, nil
}
