package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Interval != 0 {
		t.Errorf("expected zero default interval, got %v", cfg.Interval)
	}
	if !cfg.RejectOutOfOrder {
		t.Errorf("expected RejectOutOfOrder to default true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RIFT_INTERVAL", "10s")
	t.Setenv("RIFT_TICK_FUNCTION_NAME", "tick")
	t.Setenv("RIFT_REJECT_OUT_OF_ORDER", "false")

	cfg := Load("", "RIFT")
	if cfg.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", cfg.Interval)
	}
	if cfg.TickFunctionName != "tick" {
		t.Errorf("TickFunctionName = %q, want tick", cfg.TickFunctionName)
	}
	if cfg.RejectOutOfOrder {
		t.Errorf("expected RejectOutOfOrder overridden to false")
	}
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	cfg := Load("/nonexistent/path/to/config.yaml", "RIFT_MISSING_PREFIX")
	if cfg.MetricsAddr != DefaultConfig().MetricsAddr {
		t.Errorf("expected defaults to survive a missing config file, got %+v", cfg)
	}
}
