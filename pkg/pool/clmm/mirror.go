package clmm

import (
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Snapshot is an immutable view of one pool. Every field is replaced as a
// group by PoolStateMirror.Refresh.
type Snapshot struct {
	Pool      *PoolState
	AmmConfig *AmmConfig
	Mint0     *MintInfo
	Mint1     *MintInfo
	Extension *TickArrayBitmapExtension
	Bitmap    *TickArrayBitmap
	Epoch     uint64

	// Discovery result: which tick arrays should be loaded next.
	UpKeys   TickArrayWindow
	DownKeys TickArrayWindow
	UpErr    error
	DownErr  error

	// Loaded tick arrays, in window order.
	UpArrays   []*TickArray
	DownArrays []*TickArray
}

// Window returns the keys, loaded arrays and discovery error for dir.
func (s *Snapshot) Window(dir Direction) (TickArrayWindow, []*TickArray, error) {
	if dir == Down {
		return s.DownKeys, s.DownArrays, s.DownErr
	}
	return s.UpKeys, s.UpArrays, s.UpErr
}

// Ready reports whether the fee config, both mints and the bitmap extension
// have been loaded.
func (s *Snapshot) Ready() error {
	switch {
	case s.AmmConfig == nil:
		return fmt.Errorf("%w: amm config", ErrNotInitialized)
	case s.Mint0 == nil:
		return fmt.Errorf("%w: mint0", ErrNotInitialized)
	case s.Mint1 == nil:
		return fmt.Errorf("%w: mint1", ErrNotInitialized)
	case s.Extension == nil:
		return fmt.Errorf("%w: tick array bitmap extension", ErrNotInitialized)
	}
	return nil
}

// ZeroForOne resolves the swap direction of a mint pair.
func (s *Snapshot) ZeroForOne(inputMint, outputMint solana.PublicKey) (bool, error) {
	switch {
	case inputMint == s.Pool.TokenMint0 && outputMint == s.Pool.TokenMint1:
		return true, nil
	case inputMint == s.Pool.TokenMint1 && outputMint == s.Pool.TokenMint0:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s -> %s is not a pair of pool %s", ErrDirectionMismatch, inputMint, outputMint, s.Pool.Address)
}

// MirrorOption configures a PoolStateMirror.
type MirrorOption func(*PoolStateMirror)

// WithLogger sets the mirror logger.
func WithLogger(logger *zap.Logger) MirrorOption {
	return func(m *PoolStateMirror) {
		m.logger = logger
	}
}

// WithNeighborhoodSize sets how many tick arrays are discovered per direction.
func WithNeighborhoodSize(n int) MirrorOption {
	return func(m *PoolStateMirror) {
		if n > 0 {
			m.neighborhoodSize = n
		}
	}
}

// WithMetrics sets where discovery metrics are recorded.
func WithMetrics(metrics *Metrics) MirrorOption {
	return func(m *PoolStateMirror) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithEpoch sets the epoch used before the first refresh.
func WithEpoch(epoch uint64) MirrorOption {
	return func(m *PoolStateMirror) {
		m.initialEpoch = epoch
	}
}

// PoolStateMirror keeps the latest Snapshot of one pool. Readers never block;
// Refresh publishes a whole new snapshot at once.
type PoolStateMirror struct {
	address          solana.PublicKey
	programID        solana.PublicKey
	neighborhoodSize int
	initialEpoch     uint64
	logger           *zap.Logger
	metrics          *Metrics

	current atomic.Pointer[Snapshot]
}

// NewPoolStateMirror decodes the pool account and runs tick array discovery
// against the pool's own bitmap. Discovery failures leave an empty window and
// are kept on the snapshot.
func NewPoolStateMirror(address, programID solana.PublicKey, raw []byte, opts ...MirrorOption) (*PoolStateMirror, error) {
	m := &PoolStateMirror{
		address:          address,
		programID:        programID,
		neighborhoodSize: NEIGHBORHOOD_SIZE,
		logger:           zap.NewNop(),
		metrics:          NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(m)
	}

	pool, err := DecodePoolState(address, programID, raw)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Pool: pool, Epoch: m.initialEpoch}
	m.discover(snap)
	m.current.Store(snap)
	return m, nil
}

// Address returns the pool address.
func (m *PoolStateMirror) Address() solana.PublicKey {
	return m.address
}

// ProgramID returns the owning program.
func (m *PoolStateMirror) ProgramID() solana.PublicKey {
	return m.programID
}

// Snapshot returns the current snapshot. The result must not be modified.
func (m *PoolStateMirror) Snapshot() *Snapshot {
	return m.current.Load()
}

// ReserveMints returns the pool's token mints, mint0 first.
func (m *PoolStateMirror) ReserveMints() [2]solana.PublicKey {
	pool := m.Snapshot().Pool
	return [2]solana.PublicKey{pool.TokenMint0, pool.TokenMint1}
}

// RefreshInput carries the raw accounts of one synchronization pass.
type RefreshInput struct {
	Config    []byte
	Mint0     []byte
	Mint1     []byte
	Extension []byte
	// Up and Down hold tick array accounts in window order.
	Up   [][]byte
	Down [][]byte
	// PoolState is optional; the previous pool state is kept when nil.
	PoolState []byte
	Epoch     uint64
}

// Refresh decodes in and publishes it as the new snapshot. On error the
// previous snapshot stays current.
func (m *PoolStateMirror) Refresh(in RefreshInput) error {
	prev := m.Snapshot()
	next := &Snapshot{Pool: prev.Pool, Epoch: in.Epoch}

	if in.PoolState != nil {
		pool, err := DecodePoolState(m.address, m.programID, in.PoolState)
		if err != nil {
			return err
		}
		if !prev.Pool.SameIdentity(pool) {
			return fmt.Errorf("%w: pool %s changed identity", ErrDeserialization, m.address)
		}
		next.Pool = pool
	}

	var err error
	if next.AmmConfig, err = DecodeAmmConfig(in.Config); err != nil {
		return err
	}
	if next.Mint0, err = DecodeMint(in.Mint0); err != nil {
		return fmt.Errorf("mint0: %w", err)
	}
	if next.Mint1, err = DecodeMint(in.Mint1); err != nil {
		return fmt.Errorf("mint1: %w", err)
	}
	if next.Extension, err = DecodeTickArrayBitmapExtension(in.Extension); err != nil {
		return err
	}
	if next.Extension.PoolID != m.address {
		return fmt.Errorf("%w: bitmap extension belongs to %s", ErrDeserialization, next.Extension.PoolID)
	}
	if next.UpArrays, err = m.decodeWindow(in.Up, next.Pool.TickSpacing, Up); err != nil {
		return err
	}
	if next.DownArrays, err = m.decodeWindow(in.Down, next.Pool.TickSpacing, Down); err != nil {
		return err
	}

	m.discover(next)
	m.current.Store(next)
	return nil
}

func (m *PoolStateMirror) decodeWindow(raw [][]byte, tickSpacing uint16, dir Direction) ([]*TickArray, error) {
	arrays := make([]*TickArray, 0, len(raw))
	for i, data := range raw {
		ta, err := DecodeTickArray(data)
		if err != nil {
			return nil, fmt.Errorf("%s tick array %d: %w", dir, i, err)
		}
		if err := ta.Validate(m.address, tickSpacing); err != nil {
			return nil, err
		}
		if i > 0 {
			last := arrays[i-1].StartTickIndex
			if (dir == Up && ta.StartTickIndex <= last) || (dir == Down && ta.StartTickIndex >= last) {
				return nil, fmt.Errorf("%w: %s tick array %d out of order after %d", ErrDeserialization, dir, ta.StartTickIndex, last)
			}
		}
		arrays = append(arrays, ta)
	}
	return arrays, nil
}

// discover fills the bitmap and window keys of snap from its pool state and
// extension.
func (m *PoolStateMirror) discover(snap *Snapshot) {
	var coverage BitmapCoverage = DefaultOnly{}
	if snap.Extension != nil {
		coverage = WithExtension{Extension: snap.Extension}
	}
	snap.Bitmap = NewTickArrayBitmap(snap.Pool.TickSpacing, snap.Pool.TickArrayBitmap, coverage)

	builder := WindowBuilder{
		ProgramID:        m.programID,
		Pool:             m.address,
		TickSpacing:      snap.Pool.TickSpacing,
		NeighborhoodSize: m.neighborhoodSize,
	}
	snap.UpKeys, snap.DownKeys, snap.UpErr, snap.DownErr = builder.BuildBoth(snap.Pool.TickCurrent, snap.Bitmap)
	if snap.UpErr != nil {
		m.logger.Warn("tick array discovery failed", zap.Stringer("pool", m.address), zap.Stringer("direction", Up), zap.Error(snap.UpErr))
		m.metrics.discoveryFailures.WithLabelValues(Up.String()).Inc()
	}
	if snap.DownErr != nil {
		m.logger.Warn("tick array discovery failed", zap.Stringer("pool", m.address), zap.Stringer("direction", Down), zap.Error(snap.DownErr))
		m.metrics.discoveryFailures.WithLabelValues(Down.String()).Inc()
	}
	m.metrics.windowSize.WithLabelValues(Up.String()).Set(float64(snap.UpKeys.Len()))
	m.metrics.windowSize.WithLabelValues(Down.String()).Set(float64(snap.DownKeys.Len()))
}
