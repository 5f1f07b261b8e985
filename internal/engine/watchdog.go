package engine

import "time"

// WatchdogTimeout is the inactivity window after which the connection is
// considered lost.
const WatchdogTimeout = 150 * time.Millisecond

// watchdogExpired reports whether now is more than timeout past
// lastResponseTime, the sole predicate behind the Connected/Disconnected
// transition. It is invoked from the receive loop's timeout branch; no
// separate ticking goroutine is needed for a single robot.
func watchdogExpired(now, lastResponseTime time.Time, timeout time.Duration) bool {
	if lastResponseTime.IsZero() {
		return true
	}
	return now.Sub(lastResponseTime) > timeout
}

// forceDisconnect applies the on-entering-Disconnected transition:
// enabled is forced false, voltage and code_present reset, and the
// echoed e-stop bit is cleared. The locally-latched EmergencyStopped
// intent is untouched; only an explicit ClearEmergencyStop clears it.
func (e *Engine) forceDisconnect() {
	wasConnected := e.status.Connected
	e.status = disconnectedStatus()
	e.intent.Enabled = false
	if wasConnected {
		e.logger.Warn("watchdog expired, forcing disconnect")
	}
}
