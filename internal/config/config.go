// Package config loads the driver-station core's tunables from the
// environment. No files are read; every field has an env var and a
// default.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root settings struct, one section per subsystem.
type Config struct {
	Engine    EngineConfig
	Fanout    FanoutConfig
	Websocket WebsocketConfig
	KV        KVConfig
	Logging   LoggingConfig
}

// EngineConfig holds the protocol engine's tunables.
type EngineConfig struct {
	TeamNumber        uint16 `mapstructure:"team_number"`
	SendPort          int    `mapstructure:"send_port"`
	RecvPort          int    `mapstructure:"recv_port"`
	TickPeriodMs      int    `mapstructure:"tick_period_ms"`
	WatchdogTimeoutMs int    `mapstructure:"watchdog_timeout_ms"`
}

func (e EngineConfig) TickPeriod() time.Duration {
	return time.Duration(e.TickPeriodMs) * time.Millisecond
}

func (e EngineConfig) WatchdogTimeout() time.Duration {
	return time.Duration(e.WatchdogTimeoutMs) * time.Millisecond
}

// FanoutConfig holds the status fan-out's tunables.
type FanoutConfig struct {
	LogRingCapacity        int `mapstructure:"log_ring_capacity"`
	BroadcastPeriodMs      int `mapstructure:"broadcast_period_ms"`
	SystemStatsIntervalSec int `mapstructure:"system_stats_interval_sec"`
}

func (f FanoutConfig) BroadcastPeriod() time.Duration {
	return time.Duration(f.BroadcastPeriodMs) * time.Millisecond
}

func (f FanoutConfig) SystemStatsInterval() time.Duration {
	return time.Duration(f.SystemStatsIntervalSec) * time.Second
}

// WebsocketConfig holds the subscriber transport's listen address and
// rate limit.
type WebsocketConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
}

// KVConfig holds the optional Redis-backed key-value mirror connection.
// An empty URL means the fan-out runs with no external feed (empty
// status map).
type KVConfig struct {
	RedisURL string `mapstructure:"redis_url"`
}

// LoggingConfig holds the zap logger's level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the environment, falling back to the
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("TEAM_NUMBER", 1234)
	v.SetDefault("SEND_PORT", 1110)
	v.SetDefault("RECV_PORT", 1150)
	v.SetDefault("TICK_PERIOD_MS", 20)
	v.SetDefault("WATCHDOG_TIMEOUT_MS", 150)

	v.SetDefault("LOG_RING_CAPACITY", 500)
	v.SetDefault("FANOUT_BROADCAST_MS", 50)
	v.SetDefault("SYSTEM_STATS_INTERVAL_SEC", 5)

	v.SetDefault("WEBSOCKET_HOST", "0.0.0.0")
	v.SetDefault("WEBSOCKET_PORT", 8080)
	v.SetDefault("WEBSOCKET_RATE_LIMIT_PER_MIN", 120)

	v.SetDefault("KV_REDIS_URL", "")

	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Engine: EngineConfig{
			TeamNumber:        uint16(v.GetInt("TEAM_NUMBER")),
			SendPort:          v.GetInt("SEND_PORT"),
			RecvPort:          v.GetInt("RECV_PORT"),
			TickPeriodMs:      v.GetInt("TICK_PERIOD_MS"),
			WatchdogTimeoutMs: v.GetInt("WATCHDOG_TIMEOUT_MS"),
		},
		Fanout: FanoutConfig{
			LogRingCapacity:        v.GetInt("LOG_RING_CAPACITY"),
			BroadcastPeriodMs:      v.GetInt("FANOUT_BROADCAST_MS"),
			SystemStatsIntervalSec: v.GetInt("SYSTEM_STATS_INTERVAL_SEC"),
		},
		Websocket: WebsocketConfig{
			Host:            v.GetString("WEBSOCKET_HOST"),
			Port:            v.GetInt("WEBSOCKET_PORT"),
			RateLimitPerMin: v.GetInt("WEBSOCKET_RATE_LIMIT_PER_MIN"),
		},
		KV: KVConfig{
			RedisURL: v.GetString("KV_REDIS_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
	return cfg, nil
}
