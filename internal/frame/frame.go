// Package frame implements the fixed-byte-offset wire codec for the
// driver-station control channel: a 6-byte outbound control frame and a
// 7-or-more-byte inbound status frame.
package frame

import "fmt"

const (
	protocolVersion = 0x01

	ctrlEnabled   = 0x04
	ctrlFMS       = 0x08
	ctrlEStop     = 0x80
	ctrlModeMask  = 0x03
	echoEStopBit  = 0x80
	statusCodeBit = 0x20
)

// Mode is the robot operating mode transmitted in the control byte.
type Mode uint8

const (
	Teleop     Mode = 0x00
	Test       Mode = 0x01
	Autonomous Mode = 0x02
)

func (m Mode) String() string {
	switch m {
	case Teleop:
		return "teleop"
	case Autonomous:
		return "autonomous"
	case Test:
		return "test"
	default:
		return "unknown"
	}
}

// RequestCode is the outbound request-code byte (offset 4).
type RequestCode uint8

const (
	RequestNormal  RequestCode = 0x00
	RequestRestart RequestCode = 0x04
	RequestReboot  RequestCode = 0x08
)

// Station is the alliance color and position index (offset 5).
type Station uint8

const (
	Red1  Station = 0x00
	Red2  Station = 0x01
	Red3  Station = 0x02
	Blue1 Station = 0x03
	Blue2 Station = 0x04
	Blue3 Station = 0x05
)

// Outbound is the set of fields that make up a transmitted control frame.
type Outbound struct {
	Sequence         uint16
	Mode             Mode
	Enabled          bool
	EmergencyStopped bool
	FMSAttached      bool
	Request          RequestCode
	Station          Station
}

// Encode renders o as the 6-byte outbound wire frame. The enabled bit is
// cleared whenever EmergencyStopped is set, even if the caller left
// Enabled on: an e-stopped robot must never see an enable bit.
func Encode(o Outbound) []byte {
	buf := make([]byte, 6)
	buf[0] = byte(o.Sequence >> 8)
	buf[1] = byte(o.Sequence)
	buf[2] = protocolVersion

	control := byte(o.Mode) & ctrlModeMask
	if o.Enabled && !o.EmergencyStopped {
		control |= ctrlEnabled
	}
	if o.FMSAttached {
		control |= ctrlFMS
	}
	if o.EmergencyStopped {
		control |= ctrlEStop
	}
	buf[3] = control
	buf[4] = byte(o.Request)
	buf[5] = byte(o.Station)
	return buf
}

// Inbound is the decoded content of a received status frame. Extended
// holds any raw trailing bytes past the fixed 7-byte header; their field
// layout (CPU/RAM/CAN utilization) has not been confirmed against a
// capture, so they are retained undecoded.
type Inbound struct {
	Sequence    uint16
	Version     uint8
	ModeEcho    Mode
	EStopEcho   bool
	CodePresent bool
	Voltage     float64
	Extended    []byte
}

// ErrTooShort is returned when a datagram is shorter than the minimum
// 7-byte inbound frame.
var ErrTooShort = fmt.Errorf("frame: inbound datagram shorter than 7 bytes")

// ErrUnknownVersion is returned when the protocol version byte does not
// match the one version this codec understands.
var ErrUnknownVersion = fmt.Errorf("frame: unknown protocol version")

// Decode parses an inbound status datagram. Frames shorter than 7 bytes or
// carrying an unrecognized version are rejected without any partial
// result; trailing bytes beyond the extended block are tolerated and
// simply retained in Extended.
func Decode(b []byte) (Inbound, error) {
	if len(b) < 7 {
		return Inbound{}, ErrTooShort
	}
	version := b[2]
	if version != protocolVersion {
		return Inbound{}, ErrUnknownVersion
	}

	in := Inbound{
		Sequence:    uint16(b[0])<<8 | uint16(b[1]),
		Version:     version,
		ModeEcho:    Mode(b[3] & ctrlModeMask),
		EStopEcho:   b[3]&echoEStopBit != 0,
		CodePresent: b[4]&statusCodeBit != 0,
		Voltage:     float64(b[5]) + float64(b[6])/256.0,
	}
	if len(b) > 7 {
		in.Extended = append([]byte(nil), b[7:]...)
	}
	return in, nil
}
