//go:build linux

// Package transport implements the session.Transport capability set
// over real TCP and UDP sockets.
package transport

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// quickAckControl sets SO_REUSEADDR and an initial TCP_QUICKACK on a
// freshly created socket, for both the client dial and the server
// listen/accept path. The kernel clears TCP_QUICKACK again after every
// read, so this alone does not keep the hint alive for the life of the
// connection: see setQuickAck, which reapplies it before each receive.
func quickAckControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		//nolint:gosec // G115: fd uintptr->int is safe; kernel FDs are always small positive integers.
		ifd := int(fd)
		if sockErr = unix.SetsockoptInt(ifd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(ifd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("set socket options: %w", sockErr)
	}
	return nil
}

// setQuickAck re-arms TCP_QUICKACK on conn. The kernel resets the
// delayed-ACK heuristic to its default after each read, so this must be
// called again before every receive to keep it effective for the whole
// connection rather than just its first read.
func setQuickAck(conn *net.TCPConn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw conn: %w", err)
	}

	var sockErr error
	err = rc.Control(func(fd uintptr) {
		//nolint:gosec // G115: fd uintptr->int is safe; kernel FDs are always small positive integers.
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("set TCP_QUICKACK: %w", sockErr)
	}
	return nil
}
