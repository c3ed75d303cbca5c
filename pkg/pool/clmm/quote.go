package clmm

import (
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteRequest describes one swap to price.
type QuoteRequest struct {
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	// ExactInput fixes Amount as the input amount, otherwise as the output.
	ExactInput bool
	Amount     uint64
	// SlippageTolerance is a fraction in [0, 1).
	SlippageTolerance decimal.Decimal
}

// Quote is the priced result of a QuoteRequest.
type Quote struct {
	InAmount  math.Int
	OutAmount math.Int
	// FeeAmount is the trade fee in input token units.
	FeeAmount math.Int
	FeeMint   solana.PublicKey
	FeePct    decimal.Decimal
	// OtherAmountThreshold is the minimum output for exact input swaps and
	// the maximum input for exact output swaps.
	OtherAmountThreshold math.Int
	ZeroForOne           bool
	ExactInput           bool
}

// SwapQuoteEngine prices swaps against a Snapshot.
type SwapQuoteEngine struct {
	logger *zap.Logger
}

// NewSwapQuoteEngine returns an engine logging to logger, or nowhere when nil.
func NewSwapQuoteEngine(logger *zap.Logger) *SwapQuoteEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapQuoteEngine{logger: logger}
}

// Quote simulates req against snap.
func (e *SwapQuoteEngine) Quote(snap *Snapshot, req QuoteRequest) (Quote, error) {
	if err := snap.Ready(); err != nil {
		return Quote{}, err
	}
	zeroForOne, err := snap.ZeroForOne(req.InputMint, req.OutputMint)
	if err != nil {
		return Quote{}, err
	}
	if req.Amount == 0 {
		return Quote{}, fmt.Errorf("%w: amount is zero", ErrInvalidArgument)
	}
	if req.SlippageTolerance.IsNegative() || req.SlippageTolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Quote{}, fmt.Errorf("%w: slippage tolerance %s outside [0, 1)", ErrInvalidArgument, req.SlippageTolerance)
	}

	inputMint := snap.Mint1
	if zeroForOne {
		inputMint = snap.Mint0
	}

	amountSpecified := req.Amount
	if req.ExactInput {
		transferFee := inputMint.TransferFee(snap.Epoch, req.Amount)
		if transferFee > req.Amount {
			return Quote{}, fmt.Errorf("%w: transfer fee %d exceeds amount %d", ErrArithmetic, transferFee, req.Amount)
		}
		amountSpecified = req.Amount - transferFee
	}

	dir := DirectionForSwap(zeroForOne)
	_, arrays, discoveryErr := snap.Window(dir)
	if len(arrays) == 0 {
		if discoveryErr != nil {
			return Quote{}, fmt.Errorf("%w: %s window empty: %w", ErrInsufficientLiquidity, dir, discoveryErr)
		}
		return Quote{}, fmt.Errorf("%w: %s window empty", ErrInsufficientLiquidity, dir)
	}

	res, err := simulateSwap(swapParams{
		sqrtPriceX64: snap.Pool.SqrtPriceX64.Big(),
		liquidity:    snap.Pool.Liquidity.Big(),
		tickCurrent:  snap.Pool.TickCurrent,
		tickSpacing:  snap.Pool.TickSpacing,
		tradeFeeRate: snap.AmmConfig.TradeFeeRate,
		zeroForOne:   zeroForOne,
		exactInput:   req.ExactInput,
		amount:       amountSpecified,
		arrays:       arrays,
	})
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		FeeAmount:  math.NewIntFromBigInt(res.feeAmount),
		FeeMint:    req.InputMint,
		FeePct:     decimal.New(int64(snap.AmmConfig.TradeFeeRate), -6),
		ZeroForOne: zeroForOne,
		ExactInput: req.ExactInput,
	}

	if req.ExactInput {
		q.InAmount = math.NewIntFromUint64(req.Amount)
		q.OutAmount = math.NewIntFromBigInt(res.amountOut)
		q.OtherAmountThreshold = math.NewIntFromBigInt(minAmountOut(res.amountOut, req.SlippageTolerance))
	} else {
		in := new(big.Int).Add(res.amountIn, res.feeAmount)
		inWithFee, err := addInverseTransferFee(inputMint, snap.Epoch, in)
		if err != nil {
			return Quote{}, err
		}
		maxIn, err := addInverseTransferFee(inputMint, snap.Epoch, maxAmountIn(in, req.SlippageTolerance))
		if err != nil {
			return Quote{}, err
		}
		q.InAmount = math.NewIntFromBigInt(inWithFee)
		q.OutAmount = math.NewIntFromUint64(req.Amount)
		q.OtherAmountThreshold = math.NewIntFromBigInt(maxIn)
	}

	e.logger.Debug("quoted swap",
		zap.Stringer("pool", snap.Pool.Address),
		zap.Bool("zeroForOne", zeroForOne),
		zap.Bool("exactInput", req.ExactInput),
		zap.String("in", q.InAmount.String()),
		zap.String("out", q.OutAmount.String()),
		zap.String("fee", q.FeeAmount.String()),
	)
	return q, nil
}

// minAmountOut is floor(out * (1 - tol)).
func minAmountOut(out *big.Int, tol decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(out, 0).Mul(decimal.NewFromInt(1).Sub(tol)).Floor().BigInt()
}

// maxAmountIn is ceil(in * (1 + tol)).
func maxAmountIn(in *big.Int, tol decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(in, 0).Mul(decimal.NewFromInt(1).Add(tol)).Ceil().BigInt()
}

func addInverseTransferFee(mint *MintInfo, epoch uint64, amount *big.Int) (*big.Int, error) {
	if amount.Cmp(maxU64Big) > 0 {
		return nil, fmt.Errorf("%w: amount %s overflows u64", ErrArithmetic, amount)
	}
	fee, err := mint.TransferInverseFee(epoch, amount.Uint64())
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(amount, new(big.Int).SetUint64(fee))
	if total.Cmp(maxU64Big) > 0 {
		return nil, fmt.Errorf("%w: amount %s plus transfer fee %d overflows u64", ErrArithmetic, amount, fee)
	}
	return total, nil
}
