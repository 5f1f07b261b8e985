package engine

import "errors"

// EnableRejection is the typed rejection taxonomy returned from Enable.
// It is reported to the caller as data, never as a panic or a generic
// error string.
type EnableRejection int

const (
	// Ok means the command transitioned Intent to enabled.
	Ok EnableRejection = iota
	// NoCommunication means the robot is not connected.
	NoCommunication
	// NoRobotCode means the robot is connected but its user program is
	// not running.
	NoRobotCode
	// EmergencyStopped means the emergency-stop latch is set.
	EmergencyStopped
)

func (r EnableRejection) String() string {
	switch r {
	case Ok:
		return "ok"
	case NoCommunication:
		return "no_communication"
	case NoRobotCode:
		return "no_robot_code"
	case EmergencyStopped:
		return "emergency_stopped"
	default:
		return "unknown"
	}
}

// Error returns "" for Ok so callers can treat it as a nil-equivalent, and
// the taxonomy string otherwise.
func (r EnableRejection) Error() string {
	if r == Ok {
		return ""
	}
	return r.String()
}

// ErrBindFailed is returned from Start when the UDP socket could not be
// bound; it is the only fatal condition in the Engine.
var ErrBindFailed = errors.New("engine: bind failed")

// ErrInvalidArgument is returned from the setters (set_team_number,
// set_robot_address) on bad input; Intent is left unchanged.
var ErrInvalidArgument = errors.New("engine: invalid argument")
