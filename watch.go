package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gtdvccc/swapioclmm/pkg/pool/clmm"
	"github.com/gtdvccc/swapioclmm/pkg/protocol"
	"github.com/gtdvccc/swapioclmm/pkg/publish"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// publishPoll is how often the publisher looks for a new snapshot.
const publishPoll = 250 * time.Millisecond

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s, err := openSession(ctx, cmd, true, clmm.NewMetrics(reg))
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := s.quoteRequest(cmd.Flags())
	if err != nil {
		return err
	}

	mirror := s.pool.Mirror()
	syncer := s.pool.Synchronizer()
	extension, err := clmm.TickArrayBitmapExtensionAddress(mirror.ProgramID(), mirror.Address())
	if err != nil {
		return err
	}

	s.logger.Info("watch start",
		zap.Stringer("pool", mirror.Address()),
		zap.Duration("refresh_interval", s.cfg.RefreshInterval),
		zap.String("metrics_addr", s.cfg.MetricsAddr),
		zap.String("redis_addr", s.cfg.RedisAddr),
		zap.Bool("websocket", s.client.WsClient != nil),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return syncer.Run(gctx, s.cfg.RefreshInterval)
	})

	if s.client.WsClient != nil {
		g.Go(func() error {
			err := s.client.WatchAccounts(gctx, []solana.PublicKey{mirror.Address(), extension},
				func(solana.PublicKey, uint64) { syncer.Notify() })
			if err != nil && gctx.Err() == nil {
				// periodic refresh keeps the mirror current without notifications
				s.logger.Warn("account subscription stopped", zap.Error(err))
				return nil
			}
			return err
		})
	} else {
		s.logger.Warn("no websocket endpoint, relying on periodic refresh")
	}

	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		server := &http.Server{
			Addr:              s.cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if s.cfg.RedisAddr != "" {
		publisher := publish.NewQuotePublisher(s.cfg.RedisAddr, s.cfg.RedisChannel)
		defer publisher.Close()
		g.Go(func() error {
			return publishQuotes(gctx, s.pool, publisher, req, s.logger)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		s.logger.Info("watch stopped")
		return nil
	}
	return err
}

// publishQuotes publishes a quote of req every time the mirror publishes a
// new snapshot.
func publishQuotes(ctx context.Context, pool *protocol.SwapIoPool, publisher *publish.QuotePublisher, req clmm.QuoteRequest, logger *zap.Logger) error {
	ticker := time.NewTicker(publishPoll)
	defer ticker.Stop()

	var last *clmm.Snapshot
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		snap := pool.Mirror().Snapshot()
		if snap == last || snap.Ready() != nil {
			continue
		}
		last = snap

		q, err := pool.QuoteSwap(ctx, req)
		if err != nil {
			logger.Warn("quote failed", zap.Error(err))
			continue
		}
		if err := publisher.Publish(ctx, publish.NewQuoteEvent(snap, req, q, time.Now())); err != nil {
			logger.Warn("publish failed", zap.Error(err))
		}
	}
}
