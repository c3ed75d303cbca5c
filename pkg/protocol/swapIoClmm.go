package protocol

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gtdvccc/swapioclmm/pkg"
	"github.com/gtdvccc/swapioclmm/pkg/pool/clmm"
	"github.com/gtdvccc/swapioclmm/pkg/sol"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSwapDisabled is returned when the pool status forbids swaps.
var ErrSwapDisabled = errors.New("swap disabled for pool")

var (
	_ pkg.Protocol         = (*SwapIoClmmProtocol)(nil)
	_ pkg.Pool             = (*SwapIoPool)(nil)
	_ clmm.AccountFetcher  = (*sol.Client)(nil)
	_ TokenAccountSelector = (*sol.Client)(nil)
)

// SwapIoClmmProtocol implements Protocol for swap_io_clmm pools
//
// swap_io_clmm is a Raydium CLMM fork. Pools are mirrored locally and every
// quote is simulated against the mirrored tick arrays.
//
// Program ID: SWPammPnp7L9qFgV436u3CSPmcxU6ZQm6ttawzDTRuw
type SwapIoClmmProtocol struct {
	SolClient *sol.Client
	ProgramID solana.PublicKey

	neighborhoodSize int
	slippage         decimal.Decimal
	logger           *zap.Logger
	metrics          *clmm.Metrics
}

// Option configures a SwapIoClmmProtocol.
type Option func(*SwapIoClmmProtocol)

// WithProgramID overrides the pool program, for example on devnet.
func WithProgramID(programID solana.PublicKey) Option {
	return func(p *SwapIoClmmProtocol) {
		p.ProgramID = programID
	}
}

// WithNeighborhoodSize sets how many tick arrays each pool mirrors per direction.
func WithNeighborhoodSize(n int) Option {
	return func(p *SwapIoClmmProtocol) {
		p.neighborhoodSize = n
	}
}

// WithSlippage sets the tolerance used by Quote and BuildSwapInstructions.
func WithSlippage(tolerance decimal.Decimal) Option {
	return func(p *SwapIoClmmProtocol) {
		p.slippage = tolerance
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *SwapIoClmmProtocol) {
		p.logger = logger
	}
}

func WithMetrics(metrics *clmm.Metrics) Option {
	return func(p *SwapIoClmmProtocol) {
		p.metrics = metrics
	}
}

// NewSwapIoClmm creates a new swap_io_clmm protocol instance
func NewSwapIoClmm(solClient *sol.Client, opts ...Option) *SwapIoClmmProtocol {
	p := &SwapIoClmmProtocol{
		SolClient:        solClient,
		ProgramID:        clmm.SWAP_IO_CLMM_PROGRAM_ID,
		neighborhoodSize: clmm.NEIGHBORHOOD_SIZE,
		slippage:         decimal.RequireFromString("0.005"),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = clmm.NewMetrics(nil)
	}
	return p
}

// FetchPoolByID loads one pool and runs a first synchronization pass.
func (p *SwapIoClmmProtocol) FetchPoolByID(ctx context.Context, poolId string) (pkg.Pool, error) {
	poolIdKey, err := solana.PublicKeyFromBase58(poolId)
	if err != nil {
		return nil, fmt.Errorf("invalid pool id: %w", err)
	}
	return p.OpenPool(ctx, poolIdKey)
}

// OpenPool is FetchPoolByID returning the concrete pool.
func (p *SwapIoClmmProtocol) OpenPool(ctx context.Context, poolID solana.PublicKey) (*SwapIoPool, error) {
	data, owner, err := p.SolClient.GetAccount(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !owner.Equals(p.ProgramID) {
		return nil, fmt.Errorf("pool %s is owned by %s, want %s", poolID, owner, p.ProgramID)
	}
	epoch, err := p.SolClient.GetEpoch(ctx)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With(zap.Stringer("pool", poolID))
	mirror, err := clmm.NewPoolStateMirror(poolID, p.ProgramID, data,
		clmm.WithLogger(logger),
		clmm.WithMetrics(p.metrics),
		clmm.WithNeighborhoodSize(p.neighborhoodSize),
		clmm.WithEpoch(epoch),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pool data for %s: %w", poolID, err)
	}

	pool := newSwapIoPool(mirror, p.SolClient, p.SolClient, p.slippage, logger, p.metrics)
	if err := pool.syncer.Sync(ctx); err != nil {
		return nil, err
	}
	snap := mirror.Snapshot()
	logger.Info("pool loaded",
		zap.Stringer("mint0", snap.Pool.TokenMint0),
		zap.Stringer("mint1", snap.Pool.TokenMint1),
		zap.Int32("tick", snap.Pool.TickCurrent),
		zap.Float64("price", snap.Pool.CurrentPrice()),
		zap.Int("up", len(snap.UpArrays)),
		zap.Int("down", len(snap.DownArrays)),
	)
	return pool, nil
}

// TokenAccountSelector resolves the token account a user swaps from or into.
type TokenAccountSelector interface {
	SelectSPLTokenAccount(ctx context.Context, user, tokenMint solana.PublicKey) (solana.PublicKey, error)
}

// SwapIoPool is a mirrored swap_io_clmm pool.
type SwapIoPool struct {
	mirror   *clmm.PoolStateMirror
	syncer   *clmm.PoolSynchronizer
	engine   *clmm.SwapQuoteEngine
	accounts TokenAccountSelector
	slippage decimal.Decimal
}

func newSwapIoPool(mirror *clmm.PoolStateMirror, fetcher clmm.AccountFetcher, accounts TokenAccountSelector, slippage decimal.Decimal, logger *zap.Logger, metrics *clmm.Metrics) *SwapIoPool {
	return &SwapIoPool{
		mirror:   mirror,
		syncer:   clmm.NewPoolSynchronizer(mirror, fetcher, logger, metrics),
		engine:   clmm.NewSwapQuoteEngine(logger),
		accounts: accounts,
		slippage: slippage,
	}
}

// Mirror returns the pool mirror.
func (p *SwapIoPool) Mirror() *clmm.PoolStateMirror {
	return p.mirror
}

// Synchronizer returns the single writer of the mirror.
func (p *SwapIoPool) Synchronizer() *clmm.PoolSynchronizer {
	return p.syncer
}

func (p *SwapIoPool) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolNameSwapIoClmm
}

func (p *SwapIoPool) GetProgramID() solana.PublicKey {
	return p.mirror.ProgramID()
}

// GetID returns the pool ID
func (p *SwapIoPool) GetID() string {
	return p.mirror.Address().String()
}

// GetTokens returns the base and quote token mints
func (p *SwapIoPool) GetTokens() (baseMint, quoteMint string) {
	mints := p.mirror.ReserveMints()
	return mints[0].String(), mints[1].String()
}

// QuoteSwap prices req against the current snapshot, syncing first when
// the mirror has not been populated yet.
func (p *SwapIoPool) QuoteSwap(ctx context.Context, req clmm.QuoteRequest) (clmm.Quote, error) {
	snap, err := p.readySnapshot(ctx)
	if err != nil {
		return clmm.Quote{}, err
	}
	return p.engine.Quote(snap, req)
}

// readySnapshot returns the current snapshot, syncing once when the fee
// config, mints or tick arrays have not been loaded yet.
func (p *SwapIoPool) readySnapshot(ctx context.Context) (*clmm.Snapshot, error) {
	snap := p.mirror.Snapshot()
	if snap.Ready() == nil {
		return snap, nil
	}
	if err := p.syncer.Sync(ctx); err != nil {
		return nil, err
	}
	return p.mirror.Snapshot(), nil
}

// Quote returns the exact input output amount of inputAmount.
func (p *SwapIoPool) Quote(ctx context.Context, inputMint string, inputAmount math.Int) (math.Int, error) {
	in, out, err := p.pair(inputMint)
	if err != nil {
		return math.Int{}, err
	}
	if !inputAmount.IsUint64() {
		return math.Int{}, fmt.Errorf("%w: amount %s exceeds u64", clmm.ErrInvalidArgument, inputAmount)
	}
	q, err := p.QuoteSwap(ctx, clmm.QuoteRequest{
		InputMint:         in,
		OutputMint:        out,
		ExactInput:        true,
		Amount:            inputAmount.Uint64(),
		SlippageTolerance: p.slippage,
	})
	if err != nil {
		return math.Int{}, err
	}
	return q.OutAmount, nil
}

// BuildSwapInstructions builds one exact input swap_v2 instruction from the
// user's token accounts of both mints.
func (p *SwapIoPool) BuildSwapInstructions(
	ctx context.Context,
	user solana.PublicKey,
	inputMint string,
	inputAmount math.Int,
	minOut math.Int,
) ([]solana.Instruction, error) {
	if err := p.checkSwapEnabled(); err != nil {
		return nil, err
	}
	in, out, err := p.pair(inputMint)
	if err != nil {
		return nil, err
	}
	if !inputAmount.IsUint64() || !minOut.IsUint64() {
		return nil, fmt.Errorf("%w: amounts exceed u64", clmm.ErrInvalidArgument)
	}

	src, err := p.accounts.SelectSPLTokenAccount(ctx, user, in)
	if err != nil {
		return nil, fmt.Errorf("select %s token account: %w", in, err)
	}
	dst, err := p.accounts.SelectSPLTokenAccount(ctx, user, out)
	if err != nil {
		return nil, fmt.Errorf("select %s token account: %w", out, err)
	}

	snap, err := p.readySnapshot(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := clmm.BuildSwapInstruction(snap, in, out, src, dst)
	if err != nil {
		return nil, err
	}
	inst := NewSwapV2Instruction(user, accounts)
	inst.Amount = inputAmount.Uint64()
	inst.OtherAmountThreshold = minOut.Uint64()
	inst.IsBaseInput = true
	return []solana.Instruction{inst}, nil
}

// BuildQuotedSwap builds a swap_v2 instruction carrying q between explicit
// token accounts.
func (p *SwapIoPool) BuildQuotedSwap(payer, src, dst solana.PublicKey, req clmm.QuoteRequest, q clmm.Quote) (*SwapV2Instruction, error) {
	if err := p.checkSwapEnabled(); err != nil {
		return nil, err
	}
	accounts, err := clmm.BuildSwapInstruction(p.mirror.Snapshot(), req.InputMint, req.OutputMint, src, dst)
	if err != nil {
		return nil, err
	}
	return NewSwapV2Instruction(payer, accounts).WithQuote(q)
}

func (p *SwapIoPool) checkSwapEnabled() error {
	if !p.mirror.Snapshot().Pool.IsSwapEnabled() {
		return fmt.Errorf("%w: %s", ErrSwapDisabled, p.mirror.Address())
	}
	return nil
}

// pair resolves the output mint of inputMint.
func (p *SwapIoPool) pair(inputMint string) (in, out solana.PublicKey, err error) {
	in, err = solana.PublicKeyFromBase58(inputMint)
	if err != nil {
		return in, out, fmt.Errorf("invalid input mint: %w", err)
	}
	mints := p.mirror.ReserveMints()
	switch in {
	case mints[0]:
		return in, mints[1], nil
	case mints[1]:
		return in, mints[0], nil
	}
	return in, out, fmt.Errorf("%w: %s is not a mint of pool %s", clmm.ErrDirectionMismatch, in, p.mirror.Address())
}
