// Package fanout mirrors a remote key-value table into an in-memory
// status map and a bounded log ring, periodically broadcasts snapshots
// to attached subscribers, and honors the subscriber init-bundle
// ordering contract.
package fanout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BroadcastPeriod is the periodic snapshot cadence.
const BroadcastPeriod = 50 * time.Millisecond

// DashboardTable is the key-value table name carried on single-field
// delta messages.
const DashboardTable = "Dashboard"

// Config bundles the Fan-out's tunables.
type Config struct {
	LogRingCapacity int
	BroadcastPeriod time.Duration
	Logger          *zap.Logger
}

// Fanout owns the mirrored status map, the log ring, and the subscriber
// hub, and runs the periodic broadcaster.
type Fanout struct {
	mu      sync.Mutex
	status  map[string]any
	log     *logRing
	stats   map[string]any

	hub    *Hub
	logger *zap.Logger
	period time.Duration

	joystick JoystickSink
}

// JoystickSink is the engine-side interface point a recognized
// joystick_update payload is forwarded to.
type JoystickSink interface {
	UpdateJoysticks(payload []any)
}

// New constructs a Fanout. Call Run to start its periodic broadcaster and
// Hub.Run (separately) to start delivering messages.
func New(cfg Config, hub *Hub, joystick JoystickSink) *Fanout {
	capacity := cfg.LogRingCapacity
	if capacity == 0 {
		capacity = 500
	}
	period := cfg.BroadcastPeriod
	if period == 0 {
		period = BroadcastPeriod
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		status:   make(map[string]any),
		log:      newLogRing(capacity),
		stats:    make(map[string]any),
		hub:      hub,
		logger:   logger,
		period:   period,
		joystick: joystick,
	}
}

// UpdateStatus is the status listener entry point: any key writes
// status[key] = value and triggers a broadcast of the full map, preceded
// by a narrower single-field delta for clients that track point updates.
func (f *Fanout) UpdateStatus(key string, value any) {
	f.mu.Lock()
	f.status[key] = value
	snapshot := cloneMap(f.status)
	f.mu.Unlock()

	f.hub.Broadcast(statusDelta(DashboardTable, key, value))
	f.hub.Broadcast(dashboard(snapshot))
}

// UpdateLog is the log listener entry point: key "latest" appends a
// single line; key "history" replaces the buffer by splitting on
// newlines and keeping the trailing capacity lines.
func (f *Fanout) UpdateLog(key, value string) {
	switch key {
	case "latest":
		f.mu.Lock()
		f.log.append(value)
		f.mu.Unlock()
		format := "ansi"
		if containsTag(value) {
			format = "html"
		}
		f.hub.Broadcast(logLine(value, format))
	case "history":
		lines := splitNonEmptyLines(value)
		f.mu.Lock()
		f.log.replace(lines)
		snapshot := f.log.snapshot()
		f.mu.Unlock()
		f.hub.Broadcast(logInit(snapshot))
	}
}

// UpdateSystemStats replaces the system_stats snapshot and broadcasts it.
func (f *Fanout) UpdateSystemStats(stats map[string]any) {
	f.mu.Lock()
	f.stats = stats
	f.mu.Unlock()
	f.hub.Broadcast(systemStats(stats))
}

// HandleInbound dispatches one inbound subscriber message; unrecognized
// tags are ignored. The only recognized tag is joystick_update,
// forwarded verbatim to the sink.
func (f *Fanout) HandleInbound(msgType string, joysticks []any) {
	if msgType != "joystick_update" || f.joystick == nil {
		return
	}
	f.joystick.UpdateJoysticks(joysticks)
}

// Attach registers a new subscriber and sends it the ordered init
// bundle: status_init (if non-empty), log_init (if non-empty), then one
// system_stats snapshot, before Hub.Run begins delivering the unbounded
// stream.
func (f *Fanout) Attach(s *Subscriber) {
	f.mu.Lock()
	status := cloneMap(f.status)
	lines := f.log.snapshot()
	stats := cloneMap(f.stats)
	f.mu.Unlock()

	// Queue the init bundle before registering with the Hub, so no
	// broadcast can reach this subscriber's Send channel ahead of it.
	if len(status) > 0 {
		s.Send <- statusInit(status)
	}
	if len(lines) > 0 {
		s.Send <- logInit(lines)
	}
	s.Send <- systemStats(stats)
	f.hub.Register(s)
}

// Detach removes a subscriber from the Hub.
func (f *Fanout) Detach(s *Subscriber) {
	f.hub.Unregister(s)
}

// SubscriberCount reports how many subscribers are currently attached.
func (f *Fanout) SubscriberCount() int {
	return f.hub.Count()
}

// Run drives the periodic broadcaster: every period, if the status map
// is non-empty and there is at least one subscriber, emit a dashboard
// snapshot coalescing any intervening point updates.
func (f *Fanout) Run(ctx context.Context) {
	ticker := time.NewTicker(f.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.Lock()
			empty := len(f.status) == 0
			snapshot := cloneMap(f.status)
			f.mu.Unlock()
			if empty || f.hub.Count() == 0 {
				continue
			}
			f.hub.Broadcast(dashboard(snapshot))
		}
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func containsTag(s string) bool {
	for _, r := range s {
		if r == '<' {
			return true
		}
	}
	return false
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
