package engine

import (
	"time"

	"github.com/dscore/driverstation/internal/frame"
)

// Status is the observed robot status: fields mutated only by the
// receive path and the watchdog.
type Status struct {
	Connected         bool
	CodePresent       bool
	Voltage           float64
	LastEchoedMode    frame.Mode
	LastEchoedEStop   bool
	LastPacketSeq     uint16
	LastResponseTime  time.Time
	CPUUsagePct       float64
	RAMUsagePct       float64
	CANUtilizationPct float64
}

// disconnectedStatus returns the defaults Status resets to on watchdog
// expiry and on Engine teardown.
func disconnectedStatus() Status {
	return Status{}
}
