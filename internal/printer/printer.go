// Package printer talks raw TCP to network receipt printers (port 9100) and
// checks whether tablets and printers are reachable.
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	DialTimeout  = 5 * time.Second
	ProbeTimeout = 300 * time.Millisecond
	writeTimeout = 10 * time.Second
)

var ErrNoAddress = errors.New("no printer address configured")

// Send writes a complete ESC/POS stream to the printer at addr.
func Send(ctx context.Context, addr string, data []byte) error {
	if addr == "" {
		return ErrNoAddress
	}

	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Probe reports whether something accepts TCP connections at addr.
func Probe(addr string) bool {
	if addr == "" {
		return false
	}
	conn, err := net.DialTimeout("tcp", addr, ProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
