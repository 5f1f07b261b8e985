package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.TeamNumber != 1234 {
		t.Errorf("team number = %d, want 1234", cfg.Engine.TeamNumber)
	}
	if cfg.Engine.SendPort != 1110 || cfg.Engine.RecvPort != 1150 {
		t.Errorf("ports = %d/%d, want 1110/1150", cfg.Engine.SendPort, cfg.Engine.RecvPort)
	}
	if got := cfg.Engine.TickPeriod(); got != 20*time.Millisecond {
		t.Errorf("tick period = %v, want 20ms", got)
	}
	if got := cfg.Engine.WatchdogTimeout(); got != 150*time.Millisecond {
		t.Errorf("watchdog timeout = %v, want 150ms", got)
	}
	if cfg.Fanout.LogRingCapacity != 500 {
		t.Errorf("log ring capacity = %d, want 500", cfg.Fanout.LogRingCapacity)
	}
	if got := cfg.Fanout.BroadcastPeriod(); got != 50*time.Millisecond {
		t.Errorf("broadcast period = %v, want 50ms", got)
	}
	if got := cfg.Fanout.SystemStatsInterval(); got != 5*time.Second {
		t.Errorf("system stats interval = %v, want 5s", got)
	}
	if cfg.KV.RedisURL != "" {
		t.Errorf("redis url should default to empty, got %q", cfg.KV.RedisURL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("TEAM_NUMBER", "254")
	t.Setenv("WATCHDOG_TIMEOUT_MS", "300")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.TeamNumber != 254 {
		t.Errorf("team number = %d, want 254", cfg.Engine.TeamNumber)
	}
	if got := cfg.Engine.WatchdogTimeout(); got != 300*time.Millisecond {
		t.Errorf("watchdog timeout = %v, want 300ms", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}
