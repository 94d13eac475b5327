//go:build linux
// +build linux

package driverclient

import (
	"net"

	"golang.org/x/sys/unix"
)

// dialTCP connects to addr and disables Nagle's algorithm directly via the
// socket option, since a single small command/response at a time is the
// entire traffic pattern this client ever drives.
func dialTCP(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return conn, nil
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return conn, nil
	}

	var sockErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if ctrlErr != nil || sockErr != nil {
		return conn, nil
	}

	return conn, nil
}
