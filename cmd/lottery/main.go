// Package main runs one lottery cycle: snapshot, draw, distribute.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-lottery/internal/config"
	"solana-lottery/internal/endpoint"
	"solana-lottery/internal/lottery"
	"solana-lottery/internal/record"
	"solana-lottery/internal/scanner"
	"solana-lottery/internal/solana"
	"solana-lottery/internal/transfer"
)

func main() {
	_ = godotenv.Load() // best-effort

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	var opts config.Options
	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse configuration", zap.Error(err))
	}

	cfg, err := config.Build(opts)
	if err != nil {
		// Fatal before any network activity.
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("lottery run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Lottery, logger *zap.Logger) error {
	factory := func(url string) solana.RPCClient {
		// Low-level retries stay off: a failing endpoint should surface,
		// and the selector's candidate list is the recovery mechanism.
		return solana.NewHTTPClient(url,
			solana.WithMaxRetries(0),
			solana.WithRateLimit(cfg.RPCRateLimit),
		)
	}

	var confirmer transfer.Confirmer
	if cfg.WSURL != "" {
		confirmer = solana.NewWSConfirmer(cfg.WSURL, nil)
	}

	batcher, err := transfer.New(transfer.Config{
		Payer:          cfg.Payer,
		Mint:           cfg.Mint,
		Decimals:       cfg.Decimals,
		Prize:          cfg.Prize,
		BatchSize:      cfg.BatchSize,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Confirmer:      confirmer,
	}, logger)
	if err != nil {
		return err
	}

	recorder, cleanup, err := buildRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := lottery.New(lottery.Options{
		Endpoints:   cfg.Endpoints,
		Winners:     cfg.Winners,
		Selector:    endpoint.New(factory, cfg.ProbeTimeout, logger),
		Scanner:     scanner.New(cfg.Mint.String(), cfg.PayerAddress(), cfg.Excluded, logger),
		Distributor: batcher,
		Recorder:    recorder,
		Logger:      logger,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	for _, w := range result.Winners {
		logger.Info("winner outcome",
			zap.String("address", w.Address),
			zap.String("outcome", string(w.Outcome)),
			zap.String("tx", w.Signature),
			zap.String("reason", w.Reason))
	}

	if result.Failed() {
		return errors.New("one or more batches failed; unpaid winners are listed in the run result")
	}
	return nil
}

// buildRecorder always writes the JSON history file and additionally the
// Postgres run history when a DSN is configured.
func buildRecorder(ctx context.Context, cfg *config.Lottery, logger *zap.Logger) (record.Recorder, func(), error) {
	recorders := []record.Recorder{record.NewFileRecorder(cfg.HistoryFile)}
	cleanup := func() {}

	if cfg.DatabaseURL != "" {
		pool, err := record.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		recorders = append(recorders, record.NewPostgresRecorder(pool))
		cleanup = pool.Close
	}

	return record.NewMulti(logger, recorders...), cleanup, nil
}
