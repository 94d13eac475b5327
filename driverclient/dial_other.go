//go:build !linux
// +build !linux

package driverclient

import "net"

// dialTCP connects to addr, disabling Nagle's algorithm through the
// portable net.TCPConn API on platforms without direct socket-option
// access.
func dialTCP(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}
