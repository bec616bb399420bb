// Package portalloc picks and validates local TCP ports.
package portalloc

import (
	"fmt"
	"net"
)

const maxPort = 65535

// Free asks the kernel for an unused port on the loopback interface.
// The port is released before returning, so another process can still take
// it; callers launch immediately after.
func Free() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate free port: %w", err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address %s", l.Addr())
	}
	return addr.Port, nil
}

// Validate rejects ports outside 1..65535.
func Validate(port int) error {
	if port <= 0 || port > maxPort {
		return fmt.Errorf("port must be between 1 and %d, got %d", maxPort, port)
	}
	return nil
}
