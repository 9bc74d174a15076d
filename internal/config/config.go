package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ScannerModeAI          = "ai"
	ScannerModeKeywordOnly = "keyword-only"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"RR_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"RR_DB_MAX_CONNS" default:"8"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL" default:""`
	ModelTimeout  time.Duration `envconfig:"RR_MODEL_TIMEOUT" default:"30s"`

	// ModelCallInterval separates consecutive model calls so one run cannot
	// exceed the metered provider's throughput budget.
	ModelCallInterval time.Duration `envconfig:"RR_MODEL_CALL_INTERVAL" default:"1s"`

	FetchTimeout  time.Duration `envconfig:"RR_FETCH_TIMEOUT" default:"10s"`
	FetchWorkers  int           `envconfig:"RR_FETCH_WORKERS" default:"4"`
	FeedItemLimit int           `envconfig:"RR_FEED_ITEM_LIMIT" default:"25"`

	ScannerMode        string  `envconfig:"RR_SCANNER_MODE" default:"ai"`
	MinConfidence      float64 `envconfig:"RR_MIN_CONFIDENCE" default:"0.6"`
	LookbackDays       int     `envconfig:"RR_LOOKBACK_DAYS" default:"7"`
	AnalysisBatchLimit int     `envconfig:"RR_ANALYSIS_BATCH_LIMIT" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("RR_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("RR_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("RR_DB_MIN_CONNS (%d) cannot exceed RR_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if !IsValidScannerMode(c.ScannerMode) {
		return fmt.Errorf("RR_SCANNER_MODE must be %q or %q", ScannerModeAI, ScannerModeKeywordOnly)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("RR_MIN_CONFIDENCE must be between 0 and 1")
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("RR_LOOKBACK_DAYS must be >= 1")
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("RR_FETCH_WORKERS must be >= 1")
	}
	if c.FeedItemLimit < 1 {
		return fmt.Errorf("RR_FEED_ITEM_LIMIT must be >= 1")
	}
	if c.AnalysisBatchLimit < 1 {
		return fmt.Errorf("RR_ANALYSIS_BATCH_LIMIT must be >= 1")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("RR_FETCH_TIMEOUT must be positive")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("RR_MODEL_TIMEOUT must be positive")
	}
	if c.ModelCallInterval < 0 {
		return fmt.Errorf("RR_MODEL_CALL_INTERVAL must not be negative")
	}
	return nil
}

func IsValidScannerMode(mode string) bool {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case ScannerModeAI, ScannerModeKeywordOnly:
		return true
	default:
		return false
	}
}
