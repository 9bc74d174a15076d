package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vigil.fyi/riskradar/internal/cli"
)

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	maxBatch := fs.Int("max-batch", 0, "Maximum events to analyze (0 uses RR_ANALYSIS_BATCH_LIMIT)")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

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
	if *maxBatch < 0 {
		fmt.Fprintln(os.Stderr, "--max-batch must not be negative")
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

	eventsAnalyzed, alertsCreated, err := svc.AnalyzeBacklog(ctx, *orgID, *maxBatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		return 1
	}

	fmt.Printf("events_analyzed=%d alerts_created=%d\n", eventsAnalyzed, alertsCreated)
	return 0
}
