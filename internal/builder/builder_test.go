package builder

import (
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/skullking-companion/internal/checkpoint"
	"github.com/park285/skullking-companion/internal/config"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		ScoringBaseURL: "http://scores.local",
		ScoringTimeout: time.Second,
		ScoringRetry:   1,
		CheckpointTTL:  time.Hour,
		ChartRenderer:  "svg",
		OperatorID:     "op",
	}
}

func TestNewWithoutBackends(t *testing.T) {
	cfg := baseConfig()
	cfg.ChartDir = t.TempDir()
	d, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if d.Dispatcher == nil || d.Controller == nil || d.Client == nil {
		t.Fatalf("missing deps: %+v", d)
	}
	if d.Archive != nil {
		t.Fatalf("archive should be nil without DATABASE_URL")
	}
	if _, ok := d.Store.(*checkpoint.RedisStore); ok {
		t.Fatalf("expected memory store")
	}
}

func TestNewWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	cfg := baseConfig()
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())
	d, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := d.Store.(*checkpoint.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", d.Store)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatalf("expected nil config error")
	}
}
