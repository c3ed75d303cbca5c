package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gtdvccc/swapioclmm/pkg/pool/clmm"
	"github.com/gtdvccc/swapioclmm/pkg/protocol"
	"github.com/gtdvccc/swapioclmm/pkg/publish"
	"github.com/gtdvccc/swapioclmm/pkg/sol"
	"github.com/gtdvccc/swapioclmm/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "swapioclmm",
		Short:        "swap_io_clmm quote and instruction engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against the mirrored pool",
		RunE:  runQuote,
	}
	addPoolFlags(quoteCmd.Flags())
	addSwapFlags(quoteCmd.Flags())
	root.AddCommand(quoteCmd)

	instructionCmd := &cobra.Command{
		Use:   "instruction",
		Short: "Build an unsigned swap_v2 instruction",
		RunE:  runInstruction,
	}
	addPoolFlags(instructionCmd.Flags())
	addSwapFlags(instructionCmd.Flags())
	instructionCmd.Flags().String("owner", "", "payer and owner of the token accounts")
	instructionCmd.Flags().String("source", "", "input token account, derived from --owner when empty")
	instructionCmd.Flags().String("destination", "", "output token account, derived from --owner when empty")
	root.AddCommand(instructionCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the pool mirrored, serve metrics and publish quotes",
		RunE:  runWatch,
	}
	addPoolFlags(watchCmd.Flags())
	addSwapFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("refresh-interval", 10*time.Second, "periodic resync interval")
	watchCmd.Flags().String("metrics-addr", ":9100", "prometheus listen address, empty disables")
	watchCmd.Flags().String("redis-addr", "", "redis address for quote publishing, empty disables")
	watchCmd.Flags().String("redis-channel", "swapio:quotes", "redis channel prefix")
	root.AddCommand(watchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "Solana RPC URL (falls back to SOLANA_RPC_URL)")
	fs.String("ws", "", "Solana websocket URL (falls back to SOLANA_WS_RPC_URL)")
	fs.String("program-id", "", "swap_io_clmm program id")
	fs.String("pool", "", "pool address")
	fs.Int("neighborhood-size", clmm.NEIGHBORHOOD_SIZE, "tick arrays mirrored per direction")
	fs.Float64("rps", sol.DefaultRPS, "RPC requests per second, 0 disables the limit")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addSwapFlags(fs *pflag.FlagSet) {
	fs.String("input-mint", "", "input mint, defaults to the pool's mint0")
	fs.String("output-mint", "", "output mint, defaults to the other pool mint")
	fs.Uint64("amount", 1_000_000, "input amount, or output amount with --exact-out")
	fs.Bool("exact-out", false, "treat --amount as the exact output")
	fs.String("slippage", "0.005", "slippage tolerance as a fraction")
}

// session is the state shared by every subcommand.
type session struct {
	cfg      utils.Config
	logger   *zap.Logger
	client   *sol.Client
	pool     *protocol.SwapIoPool
	slippage decimal.Decimal
}

func openSession(ctx context.Context, cmd *cobra.Command, withWS bool, metrics *clmm.Metrics) (*session, error) {
	utils.LoadEnv()
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := utils.LoadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	slippage, err := decimal.NewFromString(cfg.Slippage)
	if err != nil {
		return nil, fmt.Errorf("invalid slippage %q: %w", cfg.Slippage, err)
	}
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}
	poolID, err := solana.PublicKeyFromBase58(cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("invalid pool: %w", err)
	}

	wsURL := ""
	if withWS {
		wsURL = cfg.WSURL
	}
	client, err := sol.NewClient(ctx, cfg.RPCURL, wsURL,
		sol.WithRateLimit(cfg.RPS, sol.DefaultBurst),
		sol.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create solana client: %w", err)
	}

	proto := protocol.NewSwapIoClmm(client,
		protocol.WithProgramID(programID),
		protocol.WithNeighborhoodSize(cfg.NeighborhoodSize),
		protocol.WithSlippage(slippage),
		protocol.WithLogger(logger),
		protocol.WithMetrics(metrics),
	)
	pool, err := proto.OpenPool(ctx, poolID)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		pool:     pool,
		slippage: slippage,
	}, nil
}

func (s *session) Close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// quoteRequest reads the swap flags. Missing mints default to mint0 in and
// mint1 out.
func (s *session) quoteRequest(fs *pflag.FlagSet) (clmm.QuoteRequest, error) {
	mints := s.pool.Mirror().ReserveMints()
	inputMint, outputMint := mints[0], mints[1]

	if in, _ := fs.GetString("input-mint"); in != "" {
		key, err := solana.PublicKeyFromBase58(in)
		if err != nil {
			return clmm.QuoteRequest{}, fmt.Errorf("invalid input mint: %w", err)
		}
		inputMint = key
		if key == mints[1] {
			outputMint = mints[0]
		}
	}
	if out, _ := fs.GetString("output-mint"); out != "" {
		key, err := solana.PublicKeyFromBase58(out)
		if err != nil {
			return clmm.QuoteRequest{}, fmt.Errorf("invalid output mint: %w", err)
		}
		outputMint = key
	}

	amount, _ := fs.GetUint64("amount")
	exactOut, _ := fs.GetBool("exact-out")
	return clmm.QuoteRequest{
		InputMint:         inputMint,
		OutputMint:        outputMint,
		ExactInput:        !exactOut,
		Amount:            amount,
		SlippageTolerance: s.slippage,
	}, nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, false, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := s.quoteRequest(cmd.Flags())
	if err != nil {
		return err
	}
	q, err := s.pool.QuoteSwap(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(publish.NewQuoteEvent(s.pool.Mirror().Snapshot(), req, q, time.Now()))
}

type accountView struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type instructionView struct {
	ProgramID string             `json:"programId"`
	Accounts  []accountView      `json:"accounts"`
	Data      string             `json:"data"`
	Quote     publish.QuoteEvent `json:"quote"`
}

func runInstruction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, false, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := s.quoteRequest(cmd.Flags())
	if err != nil {
		return err
	}

	ownerStr, _ := cmd.Flags().GetString("owner")
	if ownerStr == "" {
		return fmt.Errorf("--owner is required")
	}
	owner, err := solana.PublicKeyFromBase58(ownerStr)
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	src, err := tokenAccountFlag(ctx, s.client, cmd.Flags(), "source", owner, req.InputMint)
	if err != nil {
		return err
	}
	dst, err := tokenAccountFlag(ctx, s.client, cmd.Flags(), "destination", owner, req.OutputMint)
	if err != nil {
		return err
	}

	q, err := s.pool.QuoteSwap(ctx, req)
	if err != nil {
		return err
	}
	inst, err := s.pool.BuildQuotedSwap(owner, src, dst, req, q)
	if err != nil {
		return err
	}
	data, err := inst.Data()
	if err != nil {
		return err
	}

	view := instructionView{
		ProgramID: inst.ProgramID().String(),
		Data:      base64.StdEncoding.EncodeToString(data),
		Quote:     publish.NewQuoteEvent(s.pool.Mirror().Snapshot(), req, q, time.Now()),
	}
	for _, meta := range inst.Accounts() {
		view.Accounts = append(view.Accounts, accountView{
			PublicKey:  meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return printJSON(view)
}

// tokenAccountFlag reads an explicit token account or selects the owner's
// account of mint.
func tokenAccountFlag(ctx context.Context, client *sol.Client, fs *pflag.FlagSet, name string, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	if v, _ := fs.GetString(name); v != "" {
		key, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
		}
		return key, nil
	}
	return client.SelectSPLTokenAccount(ctx, owner, mint)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
