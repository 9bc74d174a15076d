package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vigil.fyi/riskradar/internal/cli"
	"vigil.fyi/riskradar/internal/store"
)

func runResetAnalysis(args []string) int {
	fs := flag.NewFlagSet("reset-analysis", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	category := fs.String("category", "", "Only reset events in this category")
	since := fs.String("since", "", "Only reset events created at or after this RFC3339 time")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *orgID <= 0 {
		fmt.Fprintln(os.Stderr, "--org must be a positive organization ID")
		return 2
	}

	filter := store.ResetFilter{Category: *category}
	if trimmed := strings.TrimSpace(*since); trimmed != "" {
		ts, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			fmt.Fprintln(os.Stderr, "--since must be RFC3339")
			return 2
		}
		utc := ts.UTC()
		filter.Since = &utc
	}

	cfg, logger, code := loadEnvAndConfig(envLoader)
	if code != 0 {
		return code
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, code := connectPool(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	defer pool.Close()

	svc, err := buildService(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	resetCount, err := svc.ResetAnalysis(ctx, *orgID, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reset failed: %v\n", err)
		return 1
	}

	fmt.Printf("events_reset=%d\n", resetCount)
	return 0
}

func runPurge(args []string) int {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	scopeRaw := fs.String("scope", "unanalyzed", "Purge scope: unanalyzed or all")
	cascadeAlerts := fs.Bool("cascade-alerts", false, "Also delete alerts created from purged events")
	confirm := fs.Bool("yes", false, "Confirm the purge")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *orgID <= 0 {
		fmt.Fprintln(os.Stderr, "--org must be a positive organization ID")
		return 2
	}
	scope, err := store.ParsePurgeScope(*scopeRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if !*confirm {
		fmt.Fprintln(os.Stderr, "Refusing to purge without --yes")
		return 2
	}

	cfg, logger, code := loadEnvAndConfig(envLoader)
	if code != 0 {
		return code
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, code := connectPool(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	defer pool.Close()

	svc, err := buildService(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	eventsDeleted, alertsDeleted, err := svc.PurgeEvents(ctx, *orgID, scope, *cascadeAlerts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Purge failed: %v\n", err)
		return 1
	}

	fmt.Printf("events_deleted=%d alerts_deleted=%d\n", eventsDeleted, alertsDeleted)
	return 0
}
