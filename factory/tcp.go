// Package factory provides concrete ResourceFactory implementations for the
// resource pool: raw TCP connections and PostgreSQL sessions over pgx.
package factory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/guileen/respool/pool"
)

// TCP is a pool.ResourceFactory producing raw TCP connections to a single
// address. Handles are net.Conn values.
type TCP struct {
	address string
	timeout time.Duration
}

// NewTCP creates a TCP connection factory
func NewTCP(address string, timeout time.Duration) *TCP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TCP{
		address: address,
		timeout: timeout,
	}
}

// Create dials the factory's address, honoring the context deadline when one
// is set.
func (f *TCP) Create(ctx context.Context) (any, error) {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	conn, err := net.DialTimeout("tcp", f.address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", f.address, err)
	}
	return conn, nil
}

// Probe checks liveness with a short deadline read. A read timeout means the
// connection is healthy but has no data pending; EOF or a closed-connection
// error means the peer went away.
func (f *TCP) Probe(ctx context.Context, handle any) error {
	conn, ok := handle.(net.Conn)
	if !ok {
		return fmt.Errorf("unexpected handle type %T", handle)
	}

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Millisecond))
	var buf [1]byte
	_, err := conn.Read(buf[:])
	_ = conn.SetReadDeadline(time.Time{})

	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil
	}
	return fmt.Errorf("connection probe failed: %w", err)
}

// Close tears down the connection
func (f *TCP) Close(handle any) error {
	conn, ok := handle.(net.Conn)
	if !ok {
		return fmt.Errorf("unexpected handle type %T", handle)
	}
	return conn.Close()
}

var _ pool.ResourceFactory = (*TCP)(nil)
