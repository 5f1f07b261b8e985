package engine

import "github.com/dscore/driverstation/internal/frame"

// Intent is the control intent: the set of fields the Engine owns
// exclusively and mutates only through its command entry points.
type Intent struct {
	Mode             frame.Mode
	Enabled          bool
	EmergencyStopped bool
	FMSAttached      bool
	Station          frame.Station
	TeamNumber       uint16
	RobotAddress     string
	addressOverride  bool
	Sequence         uint16
}

// defaultIntent returns the safe-default Intent an Engine is constructed
// with: disabled, Teleop, not e-stopped, team 1234.
func defaultIntent() Intent {
	const defaultTeam = 1234
	return Intent{
		Mode:         frame.Teleop,
		Station:      frame.Red1,
		TeamNumber:   defaultTeam,
		RobotAddress: robotAddressFor(defaultTeam),
	}
}
