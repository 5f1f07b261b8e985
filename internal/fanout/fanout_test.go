package fanout

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestFanout(t *testing.T) (*Fanout, *Hub) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	f := New(Config{LogRingCapacity: 500, Logger: zap.NewNop()}, hub, nil)
	return f, hub
}

func recvWithin(t *testing.T, s *Subscriber, d time.Duration) Message {
	t.Helper()
	select {
	case msg := <-s.Send:
		return msg
	case <-time.After(d):
		t.Fatalf("timed out waiting for a message")
		return Message{}
	}
}

// TestAttachDeliversInitBundleInOrder checks the subscriber contract:
// status_init, log_init, system_stats, in that order, before anything else.
func TestAttachDeliversInitBundleInOrder(t *testing.T) {
	f, _ := newTestFanout(t)
	f.UpdateStatus("mode", "teleop")
	f.UpdateLog("latest", "boot")

	sub := NewSubscriber()
	f.Attach(sub)

	first := recvWithin(t, sub, time.Second)
	if first.Type != "status_init" {
		t.Fatalf("first message = %q, want status_init", first.Type)
	}

	second := recvWithin(t, sub, time.Second)
	if second.Type != "log_init" {
		t.Fatalf("second message = %q, want log_init", second.Type)
	}

	third := recvWithin(t, sub, time.Second)
	if third.Type != "system_stats" {
		t.Fatalf("third message = %q, want system_stats", third.Type)
	}
}

// TestAttachSkipsEmptyInitSections covers the "(if non-empty)" qualifiers:
// a fresh Fan-out with nothing pushed yet skips straight to system_stats.
func TestAttachSkipsEmptyInitSections(t *testing.T) {
	f, _ := newTestFanout(t)
	sub := NewSubscriber()
	f.Attach(sub)

	first := recvWithin(t, sub, time.Second)
	if first.Type != "system_stats" {
		t.Fatalf("first message = %q, want system_stats (status/log empty)", first.Type)
	}
}

func TestUpdateStatusBroadcastsDeltaThenDashboard(t *testing.T) {
	f, _ := newTestFanout(t)
	sub := NewSubscriber()
	f.Attach(sub)
	recvWithin(t, sub, time.Second) // system_stats init bundle (status/log empty)

	f.UpdateStatus("voltage", 12.5)

	delta := recvWithin(t, sub, time.Second)
	if delta.Type != "status" || delta.Table != DashboardTable || delta.Key != "voltage" {
		t.Fatalf("unexpected delta message: %+v", delta)
	}

	dash := recvWithin(t, sub, time.Second)
	if dash.Type != "dashboard" {
		t.Fatalf("unexpected dashboard message: %+v", dash)
	}
	data, ok := dash.Data.(map[string]any)
	if !ok || data["voltage"] != 12.5 {
		t.Fatalf("dashboard snapshot missing update: %+v", dash.Data)
	}
}

func TestUpdateLogLatestAppendsAsAnsiByDefault(t *testing.T) {
	f, _ := newTestFanout(t)
	sub := NewSubscriber()
	f.Attach(sub)
	recvWithin(t, sub, time.Second)

	f.UpdateLog("latest", "plain line")
	msg := recvWithin(t, sub, time.Second)
	if msg.Type != "log" || msg.Format != "ansi" {
		t.Fatalf("unexpected log message: %+v", msg)
	}
}

func TestUpdateLogHistoryReplacesBuffer(t *testing.T) {
	f, _ := newTestFanout(t)
	sub := NewSubscriber()
	f.Attach(sub)
	recvWithin(t, sub, time.Second)

	f.UpdateLog("history", "one\ntwo\nthree")
	msg := recvWithin(t, sub, time.Second)
	if msg.Type != "log_init" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	lines, ok := msg.Data.([]string)
	if !ok || len(lines) != 3 {
		t.Fatalf("unexpected log_init payload: %+v", msg.Data)
	}
}

// TestHandleInboundOnlyForwardsJoystickUpdate: unrecognized tags must be
// ignored.
func TestHandleInboundOnlyForwardsJoystickUpdate(t *testing.T) {
	var got []any
	sink := sinkFunc(func(payload []any) { got = payload })
	f := New(Config{Logger: zap.NewNop()}, NewHub(zap.NewNop()), sink)

	f.HandleInbound("unknown_tag", []any{1, 2, 3})
	if got != nil {
		t.Fatalf("unrecognized tag must not forward: %v", got)
	}

	f.HandleInbound("joystick_update", []any{"a", "b"})
	if len(got) != 2 {
		t.Fatalf("joystick_update must forward its payload: %v", got)
	}
}

type sinkFunc func(payload []any)

func (s sinkFunc) UpdateJoysticks(payload []any) { s(payload) }
