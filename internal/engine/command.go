package engine

import "github.com/dscore/driverstation/internal/frame"

// CommandKind tags a Command's variant. The HTTP façade parses its flat
// action vocabulary (enable, disable, teleop, estop, ...) into one of
// these at the boundary; the core itself never routes on a string.
type CommandKind int

const (
	CmdEnable CommandKind = iota
	CmdDisable
	CmdSetMode
	CmdEmergencyStop
	CmdClearEmergencyStop
	CmdSetTeam
	CmdSetAddress
	CmdStatus
)

// Command is the sum type replacing the source's string-keyed dispatch.
// At most one of Mode, Team, or Address is meaningful, selected by Kind.
type Command struct {
	Kind    CommandKind
	Mode    frame.Mode
	Team    uint16
	Address string
}

// Result is the flat record every dispatched Command returns: Success,
// and on failure an Error string drawn from the rejection taxonomy.
type Result struct {
	Success bool
	Error   string
	Status  Snapshot
}

// Dispatch routes cmd to the matching Engine operation and reports the
// outcome as data; rejections never surface as panics.
func Dispatch(e *Engine, cmd Command) Result {
	switch cmd.Kind {
	case CmdEnable:
		if r := e.Enable(); r != Ok {
			return Result{Success: false, Error: r.String()}
		}
		return Result{Success: true}

	case CmdDisable:
		e.Disable()
		return Result{Success: true}

	case CmdSetMode:
		e.SetMode(cmd.Mode)
		return Result{Success: true}

	case CmdEmergencyStop:
		e.EmergencyStop()
		return Result{Success: true}

	case CmdClearEmergencyStop:
		e.ClearEmergencyStop()
		return Result{Success: true}

	case CmdSetTeam:
		if err := e.SetTeamNumber(cmd.Team); err != nil {
			return Result{Success: false, Error: err.Error()}
		}
		return Result{Success: true}

	case CmdSetAddress:
		if err := e.SetRobotAddress(cmd.Address); err != nil {
			return Result{Success: false, Error: err.Error()}
		}
		return Result{Success: true}

	case CmdStatus:
		return Result{Success: true, Status: e.Snapshot()}

	default:
		return Result{Success: false, Error: "unknown_command"}
	}
}
