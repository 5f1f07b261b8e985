package frame

import (
	"bytes"
	"testing"
)

func TestEncodeTeleopDisabled(t *testing.T) {
	got := Encode(Outbound{Sequence: 42, Mode: Teleop, Station: Red1})
	want := []byte{0x00, 0x2A, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeAutonomousEnabled(t *testing.T) {
	got := Encode(Outbound{Sequence: 1, Mode: Autonomous, Enabled: true, Station: Red1})
	want := []byte{0x00, 0x01, 0x01, 0x06, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeEStopMasksEnable(t *testing.T) {
	got := Encode(Outbound{
		Sequence:         65535,
		Mode:             Test,
		Enabled:          true,
		EmergencyStopped: true,
		Station:          Blue2,
	})
	want := []byte{0xFF, 0xFF, 0x01, 0x81, 0x00, 0x04}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestDecodeVoltage(t *testing.T) {
	in := []byte{0x00, 0x05, 0x01, 0x00, 0x20, 0x0C, 0x80}
	got, err := Decode(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sequence != 5 {
		t.Errorf("sequence = %d, want 5", got.Sequence)
	}
	if !got.CodePresent {
		t.Errorf("expected code_present = true")
	}
	if got.EStopEcho {
		t.Errorf("expected estop = false")
	}
	if got.Voltage != 12.5 {
		t.Errorf("voltage = %v, want 12.5", got.Voltage)
	}
}

func TestDecodeTooShortDiscarded(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x05, 0x01, 0x00, 0x20, 0x0C})
	if err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestDecodeUnknownVersionDiscarded(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x05, 0x02, 0x00, 0x20, 0x0C, 0x80})
	if err != ErrUnknownVersion {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestDecodeToleratesTrailingBytes(t *testing.T) {
	in := []byte{0x00, 0x05, 0x01, 0x00, 0x20, 0x0C, 0x80, 0x10, 0x20, 0x30}
	got, err := Decode(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Extended) != 3 {
		t.Fatalf("expected 3 extended bytes, got %d", len(got.Extended))
	}
}

func TestEncodeDecodeRoundTripsControlFields(t *testing.T) {
	// Decode(Encode(frame)) preserves the control-relevant fields. The
	// outbound and inbound frames have different shapes, so
	// this checks the subset Decode can observe: the sequence number and
	// the e-stop bit (outbound carries estop in bit 0x80 of its control
	// byte; inbound echoes it at the same bit position).
	out := Outbound{Sequence: 1234, Mode: Autonomous, Enabled: true, EmergencyStopped: true, Station: Blue1}
	encoded := Encode(out)

	// Build a minimal 7-byte inbound frame that echoes the same control
	// byte back, as the robot firmware would.
	inbound := append(append([]byte{}, encoded[:4]...), 0x00, 0x0C, 0x00)
	decoded, err := Decode(inbound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Sequence != out.Sequence {
		t.Errorf("sequence mismatch: got %d want %d", decoded.Sequence, out.Sequence)
	}
	if !decoded.EStopEcho {
		t.Errorf("expected estop echo to be preserved")
	}
}

func TestDecodeLengthAndVersionGateIsExhaustive(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x05, 0x01, 0x00, 0x20, 0x0C}, // 6 bytes, too short
		{0x00, 0x05, 0x02, 0x00, 0x20, 0x0C, 0x80}, // 7 bytes, unknown version
	}
	for _, c := range cases {
		if _, err := Decode(c); err == nil {
			t.Errorf("expected decode to reject %v", c)
		}
	}

	ok := []byte{0x00, 0x05, 0x01, 0x00, 0x20, 0x0C, 0x80}
	if _, err := Decode(ok); err != nil {
		t.Errorf("expected a 7-byte version-0x01 frame to decode, got %v", err)
	}
}
