package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:        "local",
		LogLevel:           "info",
		DatabaseURL:        "postgres://localhost/riskradar",
		DBMinConns:         1,
		DBMaxConns:         8,
		ModelTimeout:       30 * time.Second,
		FetchTimeout:       10 * time.Second,
		FetchWorkers:       4,
		FeedItemLimit:      25,
		ScannerMode:        ScannerModeAI,
		MinConfidence:      0.6,
		LookbackDays:       7,
		AnalysisBatchLimit: 50,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed on a valid config: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database url", func(c *Config) { c.DatabaseURL = " " }},
		{"min conns above max", func(c *Config) { c.DBMinConns = 10 }},
		{"unknown scanner mode", func(c *Config) { c.ScannerMode = "hybrid" }},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.5 }},
		{"zero lookback", func(c *Config) { c.LookbackDays = 0 }},
		{"zero fetch workers", func(c *Config) { c.FetchWorkers = 0 }},
		{"zero batch limit", func(c *Config) { c.AnalysisBatchLimit = 0 }},
		{"negative model timeout", func(c *Config) { c.ModelTimeout = -time.Second }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
		})
	}
}

func TestIsValidScannerMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"ai", "keyword-only", " AI ", "Keyword-Only"} {
		if !IsValidScannerMode(mode) {
			t.Fatalf("IsValidScannerMode(%q) = false", mode)
		}
	}
	for _, mode := range []string{"", "hybrid", "keyword"} {
		if IsValidScannerMode(mode) {
			t.Fatalf("IsValidScannerMode(%q) = true", mode)
		}
	}
}
