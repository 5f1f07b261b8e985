package engine

import (
	"net"

	"github.com/dscore/driverstation/internal/frame"
)

// Snapshot is a consistent, point-in-time copy of the control intent and
// the observed robot status.
type Snapshot struct {
	Mode             frame.Mode
	Enabled          bool
	EmergencyStopped bool
	FMSAttached      bool
	Station          frame.Station
	TeamNumber       uint16
	RobotAddress     string
	Sequence         uint16

	Connected         bool
	CodePresent       bool
	Voltage           float64
	LastEchoedMode    frame.Mode
	LastEchoedEStop   bool
	LastPacketSeq     uint16
	CPUUsagePct       float64
	RAMUsagePct       float64
	CANUtilizationPct float64

	MissedTicks     uint64
	DecodeFailures  uint64
	JoystickUpdates uint64
}

// Snapshot returns a consistent copy of the engine's full observable
// state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Mode:              e.intent.Mode,
		Enabled:           e.intent.Enabled,
		EmergencyStopped:  e.intent.EmergencyStopped,
		FMSAttached:       e.intent.FMSAttached,
		Station:           e.intent.Station,
		TeamNumber:        e.intent.TeamNumber,
		RobotAddress:      e.intent.RobotAddress,
		Sequence:          e.intent.Sequence,
		Connected:         e.status.Connected,
		CodePresent:       e.status.CodePresent,
		Voltage:           e.status.Voltage,
		LastEchoedMode:    e.status.LastEchoedMode,
		LastEchoedEStop:   e.status.LastEchoedEStop,
		LastPacketSeq:     e.status.LastPacketSeq,
		CPUUsagePct:       e.status.CPUUsagePct,
		RAMUsagePct:       e.status.RAMUsagePct,
		CANUtilizationPct: e.status.CANUtilizationPct,
		MissedTicks:       e.missedTicks,
		DecodeFailures:    e.decodeFailures,
		JoystickUpdates:   e.joystickUpdates,
	}
}

// Summary renders the snapshot as a flattened, JSON-safe map with
// human-readable aliases. It is not fed into the fan-out's broadcasts.
func (s Snapshot) Summary() map[string]any {
	return map[string]any{
		"mode_str":         s.Mode.String(),
		"enabled":          s.Enabled,
		"estopped":         s.EmergencyStopped,
		"fms_attached":     s.FMSAttached,
		"station":          s.Station,
		"team_number":      s.TeamNumber,
		"robot_address":    s.RobotAddress,
		"sequence":         s.Sequence,
		"connected":        s.Connected,
		"code_present":     s.CodePresent,
		"voltage":          s.Voltage,
		"last_echoed_mode": s.LastEchoedMode.String(),
		"estop_echoed":     s.LastEchoedEStop,
		"last_packet_seq":  s.LastPacketSeq,
		"missed_ticks":     s.MissedTicks,
		"decode_failures":  s.DecodeFailures,
	}
}

// SetTeamNumber updates the team number and recomputes RobotAddress. An
// explicit address override only persists until the next team change, so
// it is dropped here.
func (e *Engine) SetTeamNumber(n uint16) error {
	if n < 1 || n > 9999 {
		return ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.TeamNumber = n
	e.intent.addressOverride = false
	e.intent.RobotAddress = robotAddressFor(n)
	return nil
}

// SetRobotAddress overrides the derived robot address. The override
// persists until the next SetTeamNumber call.
func (e *Engine) SetRobotAddress(addr string) error {
	if net.ParseIP(addr) == nil {
		return ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.RobotAddress = addr
	e.intent.addressOverride = true
	return nil
}

// SetMode updates the operating mode. Never rejects.
func (e *Engine) SetMode(m frame.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.Mode = m
}

// SetStation updates the alliance station. Never rejects.
func (e *Engine) SetStation(s frame.Station) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.Station = s
}

// Enable sets enabled=true only while the robot is connected, running
// user code, and not emergency-stopped, returning the precise rejection
// reason otherwise.
func (e *Engine) Enable() EnableRejection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.status.Connected {
		return NoCommunication
	}
	if !e.status.CodePresent {
		return NoRobotCode
	}
	if e.intent.EmergencyStopped {
		return EmergencyStopped
	}
	e.intent.Enabled = true
	return Ok
}

// Disable clears enabled. Never rejects.
func (e *Engine) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.Enabled = false
}

// EmergencyStop sets emergency_stopped and clears enabled atomically.
func (e *Engine) EmergencyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.EmergencyStopped = true
	e.intent.Enabled = false
}

// ClearEmergencyStop clears the emergency-stop latch. It does NOT
// re-enable; the caller must issue an explicit Enable afterwards.
func (e *Engine) ClearEmergencyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intent.EmergencyStopped = false
}
