package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/license"
	"server/internal/usage"
)

func main() {
	var (
		keyFlag    string
		tierFlag   string
		removeFlag bool
		showFlag   bool
	)

	flag.StringVar(&keyFlag, "key", "", "license key to update")
	flag.StringVar(&tierFlag, "tier", "starter", "tier to assign (trial, starter, pro, agency)")
	flag.BoolVar(&removeFlag, "remove", false, "remove the assignment so the key falls back to trial")
	flag.BoolVar(&showFlag, "show", false, "print the current assignment and usage, change nothing")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if !domain.LicenseKeyWellFormed(key) {
		exitWithError(fmt.Errorf("license key %q is too short (minimum %d characters)", key, domain.MinLicenseKeyLength))
	}

	tierName := strings.TrimSpace(strings.ToLower(tierFlag))
	if !removeFlag && !showFlag {
		if _, ok := domain.TierByName(tierName); !ok {
			exitWithError(fmt.Errorf("unsupported tier %q", tierFlag))
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "licensetier").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	store := license.NewPGTierStore(runner)

	execCtx, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()

	switch {
	case showFlag:
		name, err := store.TierName(execCtx, key)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fmt.Printf("License %s has no assignment (resolves to %s)\n", key, domain.TierTrial.Name)
			name = domain.TierTrial.Name
		case err != nil:
			exitWithError(fmt.Errorf("failed to load assignment: %w", err))
		default:
			fmt.Printf("License %s is assigned tier %s\n", key, name)
		}
		tier, ok := domain.TierByName(name)
		if !ok {
			tier = domain.TierTrial
		}
		monthKey := domain.MonthKey(time.Now())
		counters := usage.NewPGStore(runner, usage.DefaultTTL)
		used, err := counters.Count(execCtx, key, monthKey)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load usage: %w", err))
		}
		fmt.Printf("Usage %s: %d/%d\n", monthKey, used, tier.Limit)

	case removeFlag:
		if err := store.Remove(execCtx, key); err != nil {
			exitWithError(fmt.Errorf("failed to remove assignment: %w", err))
		}
		fmt.Printf("License %s assignment removed, key resolves to %s\n", key, domain.TierTrial.Name)

	default:
		if err := store.Assign(execCtx, key, tierName); err != nil {
			exitWithError(fmt.Errorf("failed to assign tier: %w", err))
		}
		tier, _ := domain.TierByName(tierName)
		fmt.Printf("License %s assigned tier %s (limit %d/month)\n", key, tier.Name, tier.Limit)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
