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

func runScan(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	trigger := fs.String("trigger", "manual", "Trigger label recorded in the run ledger")
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

	summary, err := svc.RunFullScan(ctx, *orgID, *trigger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return 1
	}

	fmt.Printf("run_uuid=%s status=%s\n", summary.RunUUID, summary.Status)
	fmt.Printf("feeds_processed=%d items_stored=%d items_filtered=%d items_duplicate=%d\n",
		summary.FeedsProcessed, summary.ItemsStored, summary.ItemsFiltered, summary.ItemsDuplicate)
	fmt.Printf("events_analyzed=%d alerts_created=%d\n", summary.EventsAnalyzed, summary.AlertsCreated)
	for _, sourceError := range summary.SourceErrors {
		fmt.Printf("source_error source=%s error=%s\n", sourceError.SourceName, sourceError.Error)
	}
	return 0
}
