package main

import (
	"fmt"
	"os"

	"github.com/arhyth/bankledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	svc    bankledger.Service
	log    zerolog.Logger
	closer func() error
}

func setup(cfgPath string) (*app, error) {
	cfg, err := bankledger.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	lvl, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	txlog, err := bankledger.OpenTransactionLog(cfg, &logger)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	snaps, err := bankledger.NewSnapshotStore(cfg.Ledger.SnapshotDir)
	if err != nil {
		txlog.Close()
		return nil, err
	}
	ids, err := bankledger.NewSnowflakeIDs(cfg.Ledger.NodeID)
	if err != nil {
		txlog.Close()
		return nil, err
	}
	svc, err := bankledger.NewService(txlog,
		bankledger.WithIDGenerator(ids),
		bankledger.WithSnapshotStore(snaps),
	)
	if err != nil {
		txlog.Close()
		return nil, err
	}

	all, err := snaps.LoadAll()
	if err != nil {
		txlog.Close()
		return nil, err
	}
	n, err := svc.Restore(all)
	if err != nil {
		txlog.Close()
		return nil, err
	}
	logger.Debug().Int("accounts", n).Msg("ledger restored")

	wrapped := bankledger.Chain(svc,
		bankledger.NewLoggingMiddleware(&logger),
		bankledger.NewCircuitBreakMiddleware(
			bankledger.NewServiceBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout, &logger),
		),
		bankledger.NewLimitMiddleware(
			bankledger.NewServiceLimits(cfg.Limits.MaxInFlight, cfg.Limits.AcquireTimeout),
		),
	)
	return &app{
		svc:    wrapped,
		log:    logger,
		closer: txlog.Close,
	}, nil
}

// parseAmount is the caller-side check that raw input is a positive number.
func parseAmount(raw string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: not a number", raw)
	}
	if !amt.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: must be greater than zero", raw)
	}
	return amt, nil
}
