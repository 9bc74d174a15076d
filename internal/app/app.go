package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/alerts"
	"vigil.fyi/riskradar/internal/analyzer"
	"vigil.fyi/riskradar/internal/cli"
	"vigil.fyi/riskradar/internal/config"
	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/feeds"
	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/logging"
	"vigil.fyi/riskradar/internal/scanner"
	"vigil.fyi/riskradar/internal/store"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "scan":
		return runScan(args[1:])
	case "analyze":
		return runAnalyze(args[1:])
	case "reset-analysis":
		return runResetAnalysis(args[1:])
	case "purge":
		return runPurge(args[1:])
	case "test-alert":
		return runTestAlert(args[1:])
	case "runs":
		return runRuns(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "riskradar CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  riskradar <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health          Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  scan            Run the full pipeline for one organization")
	fmt.Fprintln(os.Stderr, "  analyze         Analyze pending events without fetching feeds")
	fmt.Fprintln(os.Stderr, "  reset-analysis  Return analyzed events to the backlog")
	fmt.Fprintln(os.Stderr, "  purge           Delete stored events for one organization")
	fmt.Fprintln(os.Stderr, "  test-alert      Create a synthetic alert to verify delivery")
	fmt.Fprintln(os.Stderr, "  runs            List recent scan runs")
	fmt.Fprintln(os.Stderr, "  settings        Show or update per-organization scan settings")
	fmt.Fprintln(os.Stderr, "  serve           Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"riskradar <command> -h\" for command-specific flags.")
}

func loadEnvAndConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, int) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Logger{}, 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Logger{}, 1
	}

	return cfg, logger, 0
}

func connectPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*db.Pool, int) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return nil, 1
	}
	return pool, 0
}

// buildService wires the full pipeline. A missing model key drops the model
// path; every judgement then comes from the keyword fallback.
func buildService(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*scanner.Service, error) {
	fetcher := feeds.NewFetcher(feeds.FetcherOptions{
		Timeout:   cfg.FetchTimeout,
		ItemLimit: cfg.FeedItemLimit,
	})
	registry := keywords.NewRegistry(pool, logger)
	gateway := store.NewGateway(pool, logger)
	publisher := alerts.NewPublisher(pool, logger)

	var modelClient analyzer.ModelClient
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := analyzer.NewOpenAIClient(analyzer.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("build model client: %w", err)
		}
		modelClient = client
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, all judgements use the keyword fallback")
	}

	eventAnalyzer := analyzer.New(modelClient, analyzer.Options{
		ModelTimeout:      cfg.ModelTimeout,
		ModelCallInterval: cfg.ModelCallInterval,
	}, logger)

	return scanner.NewService(cfg, pool, logger, fetcher, registry, gateway, eventAnalyzer, publisher), nil
}
