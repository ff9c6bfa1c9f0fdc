package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StorkBison/escrow-sell-SC/config"
	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/observability/logging"
	telemetry "github.com/StorkBison/escrow-sell-SC/observability/otel"
	"github.com/StorkBison/escrow-sell-SC/rpc"
	"github.com/StorkBison/escrow-sell-SC/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *genesisFlag != "" {
		cfg.GenesisFile = *genesisFlag
	}

	opts := []logging.Option{logging.WithLevel(cfg.Logging.Level)}
	if cfg.Logging.File != "" {
		opts = append(opts, logging.WithFile(cfg.Logging.File))
	}
	logger := logging.Setup("escrowd", cfg.Logging.Env, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("escrowd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	nodeOpts, err := nodeOptions(cfg, logger)
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "escrowd",
		Environment: cfg.Logging.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers, os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Attributes:  map[string]string{"escrow.program": nodeOpts.EscrowProgramID.String()},
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	node, err := core.NewNode(db, nodeOpts)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("open node: %w", err)
	}
	defer func() {
		if err := node.Close(); err != nil {
			logger.Warn("close node", slog.Any("error", err))
		}
	}()

	index, err := indexer.Open(cfg.IndexDriver, cfg.IndexDSN, logger.With(slog.String("component", "indexer")))
	if err != nil {
		return fmt.Errorf("open escrow index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Warn("close escrow index", slog.Any("error", err))
		}
	}()

	hub := rpc.NewHub(logger.With(slog.String("component", "ws")))
	node.SetEmitter(events.Multi{index, hub})

	server := rpc.NewServer(node, index, hub, rpc.ServerConfig{
		JWTSecret:    cfg.RPC.JWTSecret,
		RateLimit:    cfg.RPC.RateLimit,
		Burst:        cfg.RPC.Burst,
		ReadTimeout:  time.Duration(cfg.RPC.ReadTimeoutSecs) * time.Second,
		MaxBodyBytes: cfg.RPC.MaxBodyBytes,
	}, logger.With(slog.String("component", "rpc")))

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe(cfg.RPCAddress) }()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return errors.New("rpc server exited")
	case <-ctx.Done():
		logger.Info("shutting down", slog.Uint64("slot", node.Slot()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown", slog.Any("error", err))
	}
	return <-serveErr
}

// nodeOptions converts the configuration into the node's program wiring.
func nodeOptions(cfg *config.Config, logger *slog.Logger) (core.Options, error) {
	opts := core.DefaultOptions()
	var err error
	if opts.Fees, err = cfg.FeeSchedule(); err != nil {
		return opts, err
	}
	if opts.EscrowProgramID, err = cfg.EscrowProgramID(); err != nil {
		return opts, err
	}
	if opts.MetadataProgramID, err = cfg.MetadataProgramID(); err != nil {
		return opts, err
	}
	opts.AuthoritySeed = cfg.Escrow.AuthoritySeed
	opts.Rent = cfg.Rent
	opts.Logger = logger

	genesis, err := config.LoadGenesis(cfg.GenesisFile)
	if err != nil {
		return opts, fmt.Errorf("load genesis: %w", err)
	}
	alloc, err := genesis.Allocations()
	if err != nil {
		return opts, err
	}
	opts.Genesis = make([]core.GenesisAccount, len(alloc))
	for i, a := range alloc {
		opts.Genesis[i] = core.GenesisAccount{Address: a.Address, Lamports: a.Lamports}
	}
	return opts, nil
}
