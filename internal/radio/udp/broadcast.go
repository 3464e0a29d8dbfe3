//go:build linux || darwin

package udp

import (
	"fmt"
	"net"
	"syscall"
)

// newBroadcastConn enables SO_BROADCAST on conn so WriteToUDP may target a
// broadcast address. This is unavoidably a raw syscall: net.UDPConn has no
// portable API for socket options, and no third-party library in the
// example corpus wraps SO_BROADCAST either, so the standard library's
// syscall package is the only reasonable tool here.
func newBroadcastConn(conn *net.UDPConn) (*net.UDPConn, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("udp radio: syscall conn: %w", err)
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("udp radio: control: %w", err)
	}
	if sockErr != nil {
		return nil, fmt.Errorf("udp radio: set SO_BROADCAST: %w", sockErr)
	}
	return conn, nil
}
