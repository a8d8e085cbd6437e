package transport

import (
	"context"
	"fmt"
	"net"
)

// ConnectTCP implements the connect operation for stream transports backed
// directly by net.Dialer: resolve host to candidates consistent with
// props.Family, try each in order, optionally bind local_port, return on
// the first success.
func ConnectTCP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	candidates, err := resolveCandidates(ctx, host, props.Family)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, ip := range candidates {
		dialer := net.Dialer{}
		if localPort != 0 {
			dialer.LocalAddr = &net.TCPAddr{Port: localPort}
		}
		addr := net.JoinHostPort(ip.String(), fmt.Sprint(remotePort))
		conn, err := dialer.DialContext(ctx, networkFor(props), addr)
		if err != nil {
			lastErr = err
			continue
		}
		ep := newStreamConn(props, conn)
		return ep, nil
	}
	if lastErr == nil {
		lastErr = ErrNotConnected
	}
	return nil, fmt.Errorf("%w: %v", ErrNotConnected, lastErr)
}

// ListenTCP implements the listen operation for stream transports: for a
// dual-stack family, bind with a network string that allows both v4 and
// v6; reuse of the wildcard address is implicit in net.Listen's default
// behavior on most platforms.
func ListenTCP(ctx context.Context, props Properties, port int, backlog int) (Endpoint, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, networkFor(props), fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	ep := newStreamListener(props, ln)
	ep.ctx = ctx
	return ep, nil
}
