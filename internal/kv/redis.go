// Package kv bridges an external key-value store into the fan-out. The
// core only ever sees the fanout listener entry points; this package is
// the external caller behind them, subscribing to Redis pub/sub channels
// standing in for the robot-side "Dashboard" and "Logs" tables. Swapping
// Redis for a different key-value client means replacing this package
// only. The core is untouched.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dscore/driverstation/internal/fanout"
)

const (
	dashboardChannel = "driverstation:dashboard"
	logsChannel      = "driverstation:logs"
)

// entry is the small envelope published onto a channel: a single
// key/value pair, standing in for one NetworkTables entry-listener
// callback invocation.
type entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// RedisBridge subscribes to Redis pub/sub channels and mirrors updates
// into a Fanout. A connection failure at construction time is reported
// but is not fatal to the process; the fan-out simply runs with an empty
// status map.
type RedisBridge struct {
	client *redis.Client
	logger *zap.Logger
}

// Connect parses redisURL and pings the server once to fail fast; the
// caller decides whether a connection error is fatal (it should not be).
func Connect(redisURL string, logger *zap.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kv: invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("kv: redis connection failed: %w", err)
	}
	logger.Info("connected to redis key-value mirror")
	return &RedisBridge{client: client, logger: logger}, nil
}

// Close releases the Redis connection.
func (b *RedisBridge) Close() error { return b.client.Close() }

// Run subscribes to the dashboard and log channels and forwards every
// message into f's listener entry points until ctx is canceled.
func (b *RedisBridge) Run(ctx context.Context, f *fanout.Fanout) {
	sub := b.client.Subscribe(ctx, dashboardChannel, logsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(f, msg.Channel, msg.Payload)
		}
	}
}

func (b *RedisBridge) dispatch(f *fanout.Fanout, channel, payload string) {
	var e entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		b.logger.Debug("kv: malformed entry, ignoring", zap.Error(err))
		return
	}
	switch channel {
	case dashboardChannel:
		f.UpdateStatus(e.Key, e.Value)
	case logsChannel:
		if s, ok := e.Value.(string); ok {
			f.UpdateLog(e.Key, s)
		}
	}
}
