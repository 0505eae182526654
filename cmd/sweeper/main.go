package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/usage"
)

// The sweeper deletes usage counter rows whose retention has lapsed.
// Counters are month-scoped, so anything past its expiry is dead weight
// the API never reads again. Runs one-shot by default; -interval keeps
// it resident.
func main() {
	var interval time.Duration
	flag.DurationVar(&interval, "interval", 0, "sweep repeatedly at this interval (0 sweeps once and exits)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "sweeper").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	counters := usage.NewPGStore(infra.NewSQLRunner(pool, logger), cfg.UsageTTL)

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		deleted, err := counters.SweepExpired(sweepCtx)
		if err != nil {
			logger.Error().Err(err).Msg("sweeper: sweep failed")
			return
		}
		logger.Info().Int64("deleted", deleted).Msg("sweeper: usage counters swept")
	}

	sweep()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				logger.Error().Err(ctx.Err()).Msg("sweeper: context ended")
			}
			logger.Info().Msg("sweeper: stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
