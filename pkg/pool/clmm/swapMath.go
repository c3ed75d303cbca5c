package clmm

import (
	"fmt"
	"math/big"
)

var (
	bigZero     = big.NewInt(0)
	bigOne      = big.NewInt(1)
	bigQ64      = new(big.Int).Lsh(bigOne, U64Resolution)
	maxU64Big   = new(big.Int).SetUint64(^uint64(0))
	maxU128Big  = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 128), bigOne)
	feeRateBase = big.NewInt(1_000_000)
)

// swapStep is the outcome of one price move inside a constant liquidity range.
type swapStep struct {
	sqrtPriceNextX64 *big.Int
	amountIn         *big.Int
	amountOut        *big.Int
	feeAmount        *big.Int
}

func mulDivFloor(a, b, denominator *big.Int) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, denominator), nil
}

func mulDivCeil(a, b, denominator *big.Int) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	n := new(big.Int).Mul(a, b)
	q, r := new(big.Int).QuoRem(n, denominator, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, bigOne)
	}
	return q, nil
}

// amount0Delta is the token0 amount between two sqrt prices at liquidity.
func amount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtA.Sign() <= 0 {
		return nil, fmt.Errorf("%w: sqrt price must be positive", ErrArithmetic)
	}
	numerator1 := new(big.Int).Lsh(liquidity, U64Resolution)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		tmp, err := mulDivCeil(numerator1, numerator2, sqrtB)
		if err != nil {
			return nil, err
		}
		return mulDivCeil(tmp, bigOne, sqrtA)
	}
	tmp, err := mulDivFloor(numerator1, numerator2, sqrtB)
	if err != nil {
		return nil, err
	}
	return tmp.Quo(tmp, sqrtA), nil
}

// amount1Delta is the token1 amount between two sqrt prices at liquidity.
func amount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivCeil(liquidity, diff, bigQ64)
	}
	return mulDivFloor(liquidity, diff, bigQ64)
}

// nextSqrtPriceFromAmount0RoundingUp moves the price by a token0 amount,
// down when add is true.
func nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	numerator1 := new(big.Int).Lsh(liquidity, U64Resolution)
	product := new(big.Int).Mul(amount, sqrtPrice)

	if add {
		denominator := new(big.Int).Add(numerator1, product)
		return mulDivCeil(numerator1, sqrtPrice, denominator)
	}
	if numerator1.Cmp(product) <= 0 {
		return nil, fmt.Errorf("%w: output exceeds token0 reserve at current price", ErrArithmetic)
	}
	denominator := new(big.Int).Sub(numerator1, product)
	return mulDivCeil(numerator1, sqrtPrice, denominator)
}

// nextSqrtPriceFromAmount1RoundingDown moves the price by a token1 amount,
// up when add is true.
func nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	deltaY := new(big.Int).Lsh(amount, U64Resolution)
	if add {
		q, err := mulDivFloor(deltaY, bigOne, liquidity)
		if err != nil {
			return nil, err
		}
		return q.Add(q, sqrtPrice), nil
	}
	q, err := mulDivCeil(deltaY, bigOne, liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPrice.Cmp(q) <= 0 {
		return nil, fmt.Errorf("%w: output exceeds token1 reserve at current price", ErrArithmetic)
	}
	return q.Sub(sqrtPrice, q), nil
}

func nextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPrice.Sign() <= 0 || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price and liquidity must be positive", ErrArithmetic)
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amountIn, true)
}

func nextSqrtPriceFromOutput(sqrtPrice, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPrice.Sign() <= 0 || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price and liquidity must be positive", ErrArithmetic)
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amountOut, false)
}

// computeSwapStep moves the price from current toward target, consuming at
// most amountRemaining. amountRemaining is an input amount when exactInput
// and an output amount otherwise. feeRate is per FEE_RATE_DENOMINATOR.
func computeSwapStep(current, target, liquidity, amountRemaining *big.Int, feeRate uint32, zeroForOne, exactInput bool) (swapStep, error) {
	var step swapStep
	rate := big.NewInt(int64(feeRate))
	rateComplement := new(big.Int).Sub(feeRateBase, rate)
	var err error

	if exactInput {
		remainingLessFee, err := mulDivFloor(amountRemaining, rateComplement, feeRateBase)
		if err != nil {
			return step, err
		}
		if zeroForOne {
			step.amountIn, err = amount0Delta(target, current, liquidity, true)
		} else {
			step.amountIn, err = amount1Delta(current, target, liquidity, true)
		}
		if err != nil {
			return step, err
		}
		if remainingLessFee.Cmp(step.amountIn) >= 0 {
			step.sqrtPriceNextX64 = new(big.Int).Set(target)
		} else {
			step.sqrtPriceNextX64, err = nextSqrtPriceFromInput(current, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return step, err
			}
		}
	} else {
		if zeroForOne {
			step.amountOut, err = amount1Delta(target, current, liquidity, false)
		} else {
			step.amountOut, err = amount0Delta(current, target, liquidity, false)
		}
		if err != nil {
			return step, err
		}
		if amountRemaining.Cmp(step.amountOut) >= 0 {
			step.sqrtPriceNextX64 = new(big.Int).Set(target)
		} else {
			step.sqrtPriceNextX64, err = nextSqrtPriceFromOutput(current, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return step, err
			}
		}
	}

	reachedTarget := step.sqrtPriceNextX64.Cmp(target) == 0
	next := step.sqrtPriceNextX64
	if zeroForOne {
		if !(reachedTarget && exactInput) {
			if step.amountIn, err = amount0Delta(next, current, liquidity, true); err != nil {
				return step, err
			}
		}
		if !(reachedTarget && !exactInput) {
			if step.amountOut, err = amount1Delta(next, current, liquidity, false); err != nil {
				return step, err
			}
		}
	} else {
		if !(reachedTarget && exactInput) {
			if step.amountIn, err = amount1Delta(current, next, liquidity, true); err != nil {
				return step, err
			}
		}
		if !(reachedTarget && !exactInput) {
			if step.amountOut, err = amount0Delta(current, next, liquidity, false); err != nil {
				return step, err
			}
		}
	}

	if !exactInput && step.amountOut.Cmp(amountRemaining) > 0 {
		step.amountOut = new(big.Int).Set(amountRemaining)
	}

	if exactInput && !reachedTarget {
		step.feeAmount = new(big.Int).Sub(amountRemaining, step.amountIn)
	} else {
		step.feeAmount, err = mulDivCeil(step.amountIn, rate, rateComplement)
		if err != nil {
			return step, err
		}
	}
	return step, nil
}
