package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	ScoringBaseURL string
	ScoringTimeout time.Duration
	ScoringRetry   int
	ScoringAPIKey  string

	RedisURL      string
	CheckpointTTL time.Duration
	DatabaseURL   string

	ChartDir      string
	ChartRenderer string
	MessagesDir   string

	FeedWSURL  string
	OperatorID string
}

// Load reads the environment, after merging an optional .env file.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		ScoringTimeout: 8 * time.Second,
		ScoringRetry:   1,
		CheckpointTTL:  24 * time.Hour,
		ChartDir:       "charts",
		ChartRenderer:  "svg",
		OperatorID:     "default",
	}

	cfg.ScoringBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("SCORING_BASE_URL")), "/")
	cfg.ScoringAPIKey = strings.TrimSpace(os.Getenv("SCORING_API_KEY"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.FeedWSURL = strings.TrimSpace(os.Getenv("FEED_WS_URL"))

	if v := strings.TrimSpace(os.Getenv("SCORING_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScoringTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCORING_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScoringRetry = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHECKPOINT_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CheckpointTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHART_DIR")); v != "" {
		cfg.ChartDir = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("CHART_RENDERER"))); v != "" {
		cfg.ChartRenderer = v
	}
	if v := strings.TrimSpace(os.Getenv("OPERATOR_ID")); v != "" {
		cfg.OperatorID = v
	}

	if cfg.ScoringBaseURL == "" {
		return nil, errors.New("SCORING_BASE_URL is required")
	}
	switch cfg.ChartRenderer {
	case "svg", "gochart":
	default:
		return nil, errors.New("CHART_RENDERER must be svg or gochart")
	}
	return cfg, nil
}

// Headers returns the extra request headers for the scoring client.
func (c *AppConfig) Headers() map[string]string {
	if c == nil || c.ScoringAPIKey == "" {
		return nil
	}
	return map[string]string{"X-API-Key": c.ScoringAPIKey}
}
