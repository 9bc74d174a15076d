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
)

func runTestAlert(args []string) int {
	fs := flag.NewFlagSet("test-alert", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	orgID := fs.Int64("org", 0, "Organization ID (required)")
	riskCode := fs.String("risk-code", "", "Risk code to alert against (required)")
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
	if strings.TrimSpace(*riskCode) == "" {
		fmt.Fprintln(os.Stderr, "--risk-code is required")
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

	alertID, alertUUID, err := svc.CreateTestAlert(ctx, *orgID, *riskCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Test alert failed: %v\n", err)
		return 1
	}

	fmt.Printf("alert_id=%d alert_uuid=%s\n", alertID, alertUUID)
	return 0
}
