// Package netcheck probes whether the wide-area network is reachable.
package netcheck

import (
	"context"
	"net"
	"sync"
	"time"
)

// Default probe settings.
const (
	DefaultAddress = "1.1.1.1:53"
	DefaultTimeout = 2 * time.Second
	DefaultTTL     = 30 * time.Second
)

// Checker dials a well-known address and caches the answer for TTL.
type Checker struct {
	address string
	timeout time.Duration
	ttl     time.Duration
	dialer  net.Dialer

	mu      sync.Mutex
	checked time.Time
	active  bool
}

// New creates a checker. Zero values select the defaults.
func New(address string, timeout, ttl time.Duration) *Checker {
	if address == "" {
		address = DefaultAddress
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ttl < 0 {
		ttl = DefaultTTL
	}
	return &Checker{address: address, timeout: timeout, ttl: ttl}
}

// Active reports whether the probe address accepted a TCP connection
// within the timeout.
func (c *Checker) Active(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checked.IsZero() && time.Since(c.checked) < c.ttl {
		return c.active
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
	c.active = err == nil
	if conn != nil {
		conn.Close()
	}
	c.checked = time.Now()
	return c.active
}
