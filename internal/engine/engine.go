// Package engine implements the driver-station protocol engine: it owns
// the control intent and observed robot status, runs the fixed-period
// send loop and the blocking-with-timeout receive loop, enforces the
// communications watchdog, and gates every command behind the safety
// preconditions derived from observed robot state.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dscore/driverstation/internal/clock"
	"github.com/dscore/driverstation/internal/frame"
	"github.com/dscore/driverstation/internal/link"
)

// TickPeriod is the send-loop period: 50 Hz.
const TickPeriod = 20 * time.Millisecond

// logEveryN controls the debug-level transmit log cadence.
const logEveryN = 250

// joinDeadline bounds how long Stop waits for the send and receive loops
// to exit before abandoning them.
const joinDeadline = 1 * time.Second

// Config bundles the Engine's tunables, normally sourced from
// internal/config.
type Config struct {
	SendPort        int
	RecvPort        int
	TickPeriod      time.Duration
	WatchdogTimeout time.Duration
	Clock           clock.Clock
	Logger          *zap.Logger
}

// Engine is the Protocol Engine. All public methods are safe for
// concurrent use from any goroutine.
type Engine struct {
	mu     sync.Mutex
	intent Intent
	status Status

	clk             clock.Clock
	tickPeriod      time.Duration
	watchdogTimeout time.Duration
	logger          *zap.Logger

	sendPort int
	recvPort int
	lk       *link.Link

	sendCount       uint64
	decodeFailures  uint64
	missedTicks     uint64
	joystickUpdates uint64

	running  bool
	stopCh   chan struct{}
	sendDone chan struct{}
	recvDone chan struct{}
}

// New constructs an Engine with safe defaults and does not yet bind a
// socket or start any loop; call Start for that.
func New(cfg Config) *Engine {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	period := cfg.TickPeriod
	if period == 0 {
		period = TickPeriod
	}
	timeout := cfg.WatchdogTimeout
	if timeout == 0 {
		timeout = WatchdogTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sendPort := cfg.SendPort
	if sendPort == 0 {
		sendPort = 1110
	}
	recvPort := cfg.RecvPort
	if recvPort == 0 {
		recvPort = 1150
	}
	return &Engine{
		intent:          defaultIntent(),
		status:          disconnectedStatus(),
		clk:             clk,
		tickPeriod:      period,
		watchdogTimeout: timeout,
		logger:          logger,
		sendPort:        sendPort,
		recvPort:        recvPort,
	}
}

func robotAddressFor(team uint16) string {
	return link.RobotAddress(team)
}

// Start binds the UDP socket and launches the send and receive loops. A
// bind failure is the only fatal condition the engine can report.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	lk, err := link.New(e.recvPort, e.sendPort)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("bind failed", zap.Error(err))
		return ErrBindFailed
	}
	e.lk = lk
	e.running = true
	e.stopCh = make(chan struct{})
	e.sendDone = make(chan struct{})
	e.recvDone = make(chan struct{})
	e.mu.Unlock()

	go e.sendLoop()
	go e.recvLoop()
	e.logger.Info("engine started", zap.Int("send_port", e.sendPort), zap.Int("recv_port", e.recvPort))
	return nil
}

// Stop signals both loops to drain, closes the socket, and waits up to
// joinDeadline for them to exit before abandoning them.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	lk := e.lk
	e.mu.Unlock()

	if lk != nil {
		_ = lk.Close()
	}

	deadline := time.NewTimer(joinDeadline)
	defer deadline.Stop()
	for _, done := range []chan struct{}{e.sendDone, e.recvDone} {
		select {
		case <-done:
		case <-deadline.C:
			e.logger.Warn("loop did not join within deadline, abandoning")
			e.resetStatus()
			return
		}
	}
	e.resetStatus()
	e.logger.Info("engine stopped")
}

// resetStatus returns the observed status to disconnected defaults and
// clears enabled, used on teardown.
func (e *Engine) resetStatus() {
	e.mu.Lock()
	e.status = disconnectedStatus()
	e.intent.Enabled = false
	e.mu.Unlock()
}

// UpdateJoysticks accepts a joystick_update payload forwarded by the
// fan-out. The payload shape is owned by the UI side; the engine records
// receipt only.
func (e *Engine) UpdateJoysticks(payload []any) {
	e.mu.Lock()
	e.joystickUpdates += uint64(len(payload))
	e.mu.Unlock()
}

func (e *Engine) sendLoop() {
	defer close(e.sendDone)
	ticker := clock.NewTicker(e.clk, e.tickPeriod)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}
		ticker.Next(time.Sleep)

		e.mu.Lock()
		e.missedTicks = ticker.Missed()
		e.intent.Sequence++
		out := frame.Outbound{
			Sequence:         e.intent.Sequence,
			Mode:             e.intent.Mode,
			Enabled:          e.intent.Enabled,
			EmergencyStopped: e.intent.EmergencyStopped,
			FMSAttached:      e.intent.FMSAttached,
			Request:          frame.RequestNormal,
			Station:          e.intent.Station,
		}
		addr := e.intent.RobotAddress
		e.sendCount++
		count := e.sendCount
		e.mu.Unlock()

		payload := frame.Encode(out)
		if err := e.lk.Send(addr, payload); err != nil {
			e.logger.Debug("send failed", zap.Error(err))
			continue
		}
		if count%logEveryN == 0 {
			e.logger.Debug("transmitted control frame",
				zap.Uint16("sequence", out.Sequence),
				zap.String("address", addr),
				zap.Bool("enabled", out.Enabled))
		}
	}
}

func (e *Engine) recvLoop() {
	defer close(e.recvDone)
	buf := make([]byte, 256)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n, srcIP, err := e.lk.Recv(buf)
		if err != nil {
			if !link.IsTimeout(err) {
				return
			}
			e.mu.Lock()
			now := e.clk.Now()
			if e.status.Connected && watchdogExpired(now, e.status.LastResponseTime, e.watchdogTimeout) {
				e.forceDisconnect()
			}
			e.mu.Unlock()
			continue
		}

		e.mu.Lock()
		expected := e.intent.RobotAddress
		e.mu.Unlock()
		if srcIP != expected {
			continue
		}

		in, err := frame.Decode(buf[:n])
		if err != nil {
			e.mu.Lock()
			e.decodeFailures++
			e.mu.Unlock()
			continue
		}

		e.mu.Lock()
		wasConnected := e.status.Connected
		e.status.Connected = true
		e.status.CodePresent = in.CodePresent
		e.status.Voltage = in.Voltage
		e.status.LastEchoedMode = in.ModeEcho
		e.status.LastEchoedEStop = in.EStopEcho
		e.status.LastPacketSeq = in.Sequence
		e.status.LastResponseTime = e.clk.Now()
		e.mu.Unlock()
		if !wasConnected {
			e.logger.Info("robot connected")
		}
	}
}
