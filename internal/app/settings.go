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
	"vigil.fyi/riskradar/internal/db"
)

// runSettings shows the organization's resolved scan settings, or updates
// them when any of the value flags is set.
func runSettings(args []string) int {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	mode := fs.String("mode", "", "Scanner mode: ai or keyword-only")
	minConfidence := fs.Float64("min-confidence", -1, "Minimum confidence for alerts (0..1)")
	lookbackDays := fs.Int("lookback-days", 0, "Feed item lookback window in days")
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

	current, err := svc.Settings(ctx, *orgID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		return 1
	}

	updating := strings.TrimSpace(*mode) != "" || *minConfidence >= 0 || *lookbackDays > 0
	if updating {
		next := db.OrgScanSettings{
			ScannerMode:   current.ScannerMode,
			MinConfidence: current.MinConfidence,
			LookbackDays:  current.LookbackDays,
		}
		if trimmed := strings.TrimSpace(*mode); trimmed != "" {
			next.ScannerMode = trimmed
		}
		if *minConfidence >= 0 {
			next.MinConfidence = *minConfidence
		}
		if *lookbackDays > 0 {
			next.LookbackDays = *lookbackDays
		}

		if err := svc.UpdateSettings(ctx, *orgID, next); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update settings: %v\n", err)
			return 1
		}
		current = next
	}

	fmt.Printf("scanner_mode=%s min_confidence=%.2f lookback_days=%d\n",
		current.ScannerMode, current.MinConfidence, current.LookbackDays)
	return 0
}
