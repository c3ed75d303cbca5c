package clmm

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// AccountFetcher loads raw account data. GetAccounts returns one entry per
// key, nil for accounts that do not exist.
type AccountFetcher interface {
	GetAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)
	GetEpoch(ctx context.Context) (uint64, error)
}

// maxSyncRounds bounds how often one Sync refetches after discovery moved.
const maxSyncRounds = 2

// PoolSynchronizer is the single writer of a PoolStateMirror.
type PoolSynchronizer struct {
	mirror  *PoolStateMirror
	fetcher AccountFetcher
	logger  *zap.Logger
	metrics *Metrics

	mu      sync.Mutex
	trigger chan struct{}
}

// NewPoolSynchronizer wires mirror to fetcher. logger and metrics may be nil.
func NewPoolSynchronizer(mirror *PoolStateMirror, fetcher AccountFetcher, logger *zap.Logger, metrics *Metrics) *PoolSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &PoolSynchronizer{
		mirror:  mirror,
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
		trigger: make(chan struct{}, 1),
	}
}

// AccountsToUpdate lists the accounts one pass loads: pool, amm config, both
// mints, bitmap extension, then the up and down window keys.
func (s *PoolSynchronizer) AccountsToUpdate(snap *Snapshot) ([]solana.PublicKey, error) {
	p := snap.Pool
	ext, err := TickArrayBitmapExtensionAddress(p.ProgramID, p.Address)
	if err != nil {
		return nil, err
	}
	keys := make([]solana.PublicKey, 0, 5+snap.UpKeys.Len()+snap.DownKeys.Len())
	keys = append(keys, p.Address, p.AmmConfig, p.TokenMint0, p.TokenMint1, ext)
	keys = append(keys, snap.UpKeys.Addresses...)
	keys = append(keys, snap.DownKeys.Addresses...)
	return keys, nil
}

// Sync runs one synchronization pass. When the refreshed pool moved into
// different tick arrays the pass refetches once more so the loaded windows
// match discovery.
func (s *PoolSynchronizer) Sync(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := prometheus.NewTimer(s.metrics.syncDuration.WithLabelValues())
	defer func() {
		timer.ObserveDuration()
		result := "ok"
		if err != nil {
			result = "error"
			s.logger.Error("pool sync failed", zap.Stringer("pool", s.mirror.Address()), zap.Error(err))
		}
		s.metrics.syncTotal.WithLabelValues(result).Inc()
	}()

	epoch, err := s.fetcher.GetEpoch(ctx)
	if err != nil {
		return fmt.Errorf("get epoch: %w", err)
	}

	for round := 0; round < maxSyncRounds; round++ {
		snap := s.mirror.Snapshot()
		keys, err := s.AccountsToUpdate(snap)
		if err != nil {
			return err
		}
		data, err := s.fetcher.GetAccounts(ctx, keys)
		if err != nil {
			return fmt.Errorf("get accounts: %w", err)
		}
		if len(data) != len(keys) {
			return fmt.Errorf("get accounts: want %d accounts, got %d", len(keys), len(data))
		}

		up := snap.UpKeys.Len()
		in := RefreshInput{
			PoolState: data[0],
			Config:    data[1],
			Mint0:     data[2],
			Mint1:     data[3],
			Extension: data[4],
			Up:        present(data[5 : 5+up]),
			Down:      present(data[5+up:]),
			Epoch:     epoch,
		}
		if in.PoolState == nil {
			return fmt.Errorf("%w: pool account %s not found", ErrDeserialization, s.mirror.Address())
		}
		if err := s.mirror.Refresh(in); err != nil {
			return err
		}

		next := s.mirror.Snapshot()
		s.logger.Debug("pool synced",
			zap.Stringer("pool", s.mirror.Address()),
			zap.Int32("tick", next.Pool.TickCurrent),
			zap.Uint64("epoch", epoch),
			zap.Int("up", len(next.UpArrays)),
			zap.Int("down", len(next.DownArrays)),
			zap.Int("round", round),
		)
		if sameWindow(snap.UpKeys, next.UpKeys) && sameWindow(snap.DownKeys, next.DownKeys) {
			return nil
		}
	}
	// loaded arrays stay self-consistent; the next pass picks up the new keys
	next := s.mirror.Snapshot()
	s.logger.Warn("pool sync did not converge",
		zap.Stringer("pool", s.mirror.Address()),
		zap.Int32("tick", next.Pool.TickCurrent),
		zap.Int("rounds", maxSyncRounds),
		zap.Int32s("up", next.UpKeys.StartIndexes),
		zap.Int32s("down", next.DownKeys.StartIndexes),
	)
	return nil
}

// Notify asks Run for an extra pass, for example after an account change
// notification. It never blocks.
func (s *PoolSynchronizer) Notify() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run syncs every interval and on Notify until ctx is done.
func (s *PoolSynchronizer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = s.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.trigger:
		}
		// failures are logged by Sync, the next pass retries
		_ = s.Sync(ctx)
	}
}

// present truncates raw at the first missing account so the window stays
// contiguous.
func present(raw [][]byte) [][]byte {
	for i, data := range raw {
		if data == nil {
			return raw[:i]
		}
	}
	return raw
}

func sameWindow(a, b TickArrayWindow) bool {
	return slices.Equal(a.StartIndexes, b.StartIndexes)
}
