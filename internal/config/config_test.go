package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SCORING_BASE_URL", "http://scores.local/ ")
	for _, k := range []string{"SCORING_TIMEOUT_MS", "SCORING_RETRY", "CHECKPOINT_TTL_SEC", "CHART_DIR", "CHART_RENDERER", "OPERATOR_ID", "SCORING_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ScoringBaseURL != "http://scores.local" {
		t.Fatalf("base url not trimmed: %q", cfg.ScoringBaseURL)
	}
	if cfg.ScoringTimeout != 8*time.Second || cfg.ScoringRetry != 1 || cfg.CheckpointTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ChartDir != "charts" || cfg.ChartRenderer != "svg" || cfg.OperatorID != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Headers() != nil {
		t.Fatalf("expected no headers without api key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SCORING_BASE_URL", "http://scores.local")
	t.Setenv("SCORING_TIMEOUT_MS", "1500")
	t.Setenv("SCORING_RETRY", "3")
	t.Setenv("SCORING_API_KEY", "k")
	t.Setenv("CHECKPOINT_TTL_SEC", "60")
	t.Setenv("CHART_RENDERER", "GoChart")
	t.Setenv("OPERATOR_ID", "table-2")
	t.Setenv("SCORING_RETRY", "bogus")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ScoringTimeout != 1500*time.Millisecond || cfg.CheckpointTTL != time.Minute {
		t.Fatalf("durations not applied: %+v", cfg)
	}
	if cfg.ScoringRetry != 1 {
		t.Fatalf("bad retry value should keep default, got %d", cfg.ScoringRetry)
	}
	if cfg.ChartRenderer != "gochart" || cfg.OperatorID != "table-2" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Headers()["X-API-Key"] != "k" {
		t.Fatalf("api key header missing")
	}
}

func TestFromEnvRequiresBaseURL(t *testing.T) {
	t.Setenv("SCORING_BASE_URL", "")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error without SCORING_BASE_URL")
	}
}

func TestFromEnvRejectsUnknownRenderer(t *testing.T) {
	t.Setenv("SCORING_BASE_URL", "http://scores.local")
	t.Setenv("CHART_RENDERER", "ascii")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected renderer error")
	}
}
