package utils

import (
	"context"
	"net"

	"golang.org/x/net/netutil"
)

// ListenOptions controls how a TCP listener is created.
type ListenOptions struct {
	// MaxConns caps the number of simultaneously accepted connections.
	// Zero means unbounded.
	MaxConns int
	// ReusePort sets SO_REUSEPORT on the listening socket.
	ReusePort bool
}

// Listen binds a TCP listener on addr.
func Listen(ctx context.Context, addr string, opts ListenOptions) (net.Listener, error) {
	var lc net.ListenConfig
	if opts.ReusePort {
		lc.Control = reusePortControl
	}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		ln = netutil.LimitListener(ln, opts.MaxConns)
	}
	return ln, nil
}
