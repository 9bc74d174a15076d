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

func runRuns(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	limit := fs.Int("limit", 20, "Maximum number of runs to list")
	timeout := fs.Duration("timeout", 20*time.Second, "Command timeout")

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
	if *limit < 1 || *limit > 200 {
		fmt.Fprintln(os.Stderr, "--limit must be between 1 and 200")
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

	records, err := svc.ListRuns(ctx, *orgID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		return 1
	}

	for _, record := range records {
		finished := "-"
		if record.FinishedAt != nil {
			finished = record.FinishedAt.Format(time.RFC3339)
		}
		fmt.Printf("run_uuid=%s status=%s trigger=%s started=%s finished=%s stored=%d analyzed=%d alerts=%d errors=%d\n",
			record.RunUUID,
			record.Status,
			record.Trigger,
			record.StartedAt.Format(time.RFC3339),
			finished,
			record.ItemsStored,
			record.EventsAnalyzed,
			record.AlertsCreated,
			len(record.SourceErrors),
		)
	}
	return 0
}
