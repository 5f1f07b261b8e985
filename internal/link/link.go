// Package link owns the UDP socket: binding the receive port with address
// reuse, deriving the robot's address from its team number, and filtering
// inbound datagrams by source address. It is the only package that talks
// to net.UDPConn.
package link

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// recvTimeout bounds a single blocking read so the receive loop can
// check its shutdown flag between reads.
const recvTimeout = 100 * time.Millisecond

// Link binds a single UDP socket used both to transmit control frames to
// the robot and to receive its status frames.
type Link struct {
	conn     *net.UDPConn
	sendPort int
}

// New binds a UDP socket on recvPort with address reuse and sendPort is the
// port control frames are transmitted to; it is fixed for the Link's
// lifetime. net.ListenUDP does not set SO_REUSEADDR on its own, so the
// bind goes through a net.ListenConfig with an explicit Control callback
// to have the socket option in effect before bind() is called.
func New(recvPort, sendPort int) (*Link, error) {
	lc := net.ListenConfig{Control: setReuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", recvPort))
	if err != nil {
		return nil, fmt.Errorf("link: bind failed: %w", err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("link: unexpected packet conn type %T", pc)
	}
	return &Link{conn: conn, sendPort: sendPort}, nil
}

// setReuseAddr sets SO_REUSEADDR (and, best-effort, SO_REUSEPORT) on the
// listening socket before bind, so the receive port can be rebound
// immediately on a process restart instead of the kernel refusing a
// second bind.
func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
		if sockErr == nil {
			// Best-effort: SO_REUSEPORT isn't load-bearing for this
			// protocol (one process, one socket) but costs nothing to set
			// where the platform supports it.
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}

// Close releases the underlying socket. Safe to call once; subsequent
// reads return immediately with an error, which unblocks the receive loop
// during shutdown.
func (l *Link) Close() error {
	return l.conn.Close()
}

// LocalPort returns the port the socket actually bound to, useful when
// New was called with recvPort 0 and the OS picked a free port.
func (l *Link) LocalPort() int {
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Send transmits frame to (robotAddress, sendPort). robotAddress is a bare
// IPv4 dotted-quad, as produced by the team-number formula or an explicit
// override.
func (l *Link) Send(robotAddress string, payload []byte) error {
	dst := &net.UDPAddr{IP: net.ParseIP(robotAddress), Port: l.sendPort}
	_, err := l.conn.WriteToUDP(payload, dst)
	return err
}

// Recv blocks for up to recvTimeout waiting for one datagram. It returns
// the payload and the source address's IP, or an error on timeout or
// socket closure. Callers should treat any error as "no frame this tick"
// except where IsTimeout reports false, which marks a closed socket.
func (l *Link) Recv(buf []byte) (n int, srcIP string, err error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return 0, "", err
	}
	n, addr, err := l.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, "", err
	}
	return n, addr.IP.String(), nil
}

// IsTimeout reports whether err is a read-deadline timeout, as opposed to
// a closed socket or other I/O failure. The receive loop uses this to
// decide whether a read failure should run the watchdog check or just
// unwind (socket closed during shutdown).
func IsTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// RobotAddress computes the FRC driver-station address formula:
// 10.{team/100}.{team%100}.2
func RobotAddress(team uint16) string {
	return fmt.Sprintf("10.%d.%d.2", team/100, team%100)
}
