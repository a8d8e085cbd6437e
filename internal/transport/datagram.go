package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// sharedConn is the refcounted handle behind Clone: the datagram server
// fan-out pool shares one listening socket across several responder
// workers, and the OS resource must close exactly once when the last
// holder drops it. Each shared socket's refcount is guarded by its own
// mutex with O(1) critical sections.
type sharedConn struct {
	mu   sync.Mutex
	conn net.PacketConn
	refs int
}

func newSharedConn(conn net.PacketConn) *sharedConn {
	return &sharedConn{conn: conn, refs: 1}
}

func (s *sharedConn) retain() {
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
}

func (s *sharedConn) release() error {
	s.mu.Lock()
	s.refs--
	closeNow := s.refs == 0
	s.mu.Unlock()
	if closeNow {
		return s.conn.Close()
	}
	return nil
}

// datagramEndpoint wraps a shared connection-less socket (udp, raw).
type datagramEndpoint struct {
	shared     *sharedConn
	props      Properties
	remote     net.Addr
	localAddr  net.Addr
	timeout    time.Duration
	ctx        context.Context
	mu         sync.Mutex
}

func newDatagramEndpoint(props Properties, conn net.PacketConn, remote net.Addr) *datagramEndpoint {
	return &datagramEndpoint{
		shared:    newSharedConn(conn),
		props:     props,
		remote:    remote,
		localAddr: conn.LocalAddr(),
		ctx:       context.Background(),
	}
}

func (e *datagramEndpoint) SetTimeout(d time.Duration) {
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

func (e *datagramEndpoint) SetCancel(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

func (e *datagramEndpoint) Properties() Properties { return e.props }

func (e *datagramEndpoint) LocalAddr() Addr { return toAddr(e.localAddr) }

func (e *datagramEndpoint) RemoteAddr() Addr {
	if e.remote == nil {
		return Addr{}
	}
	return toAddr(e.remote)
}

func (e *datagramEndpoint) Send(buf []byte, dest Addr) (int, error) {
	target := e.remote
	if target == nil {
		if dest.IsZero() {
			return 0, fmt.Errorf("transport: connection-less send requires a destination")
		}
		target = &net.UDPAddr{IP: net.ParseIP(dest.IP), Port: dest.Port}
	}
	total := 0
	for total < len(buf) {
		n, err := e.shared.conn.WriteTo(buf[total:], target)
		total += n
		if err != nil {
			return total, classifyIOErr("send", err)
		}
	}
	return total, nil
}

func (e *datagramEndpoint) Recv(buf []byte, atLeast int, src *Addr) (int, error) {
	e.mu.Lock()
	timeout := e.timeout
	ctx := e.ctx
	e.mu.Unlock()

	var peer net.Addr
	n, err := pollRecv(ctx, timeout,
		func(t time.Time) { _ = e.shared.conn.SetReadDeadline(t) },
		func() (int, error) {
			var readN int
			var readErr error
			readN, peer, readErr = e.shared.conn.ReadFrom(buf)
			return readN, readErr
		})
	if err != nil {
		return n, classifyIOErr("recv", err)
	}
	if src != nil && peer != nil {
		*src = toAddr(peer)
	}
	if n < atLeast {
		return n, ErrConnectionReset
	}
	return n, nil
}

func (e *datagramEndpoint) Accept() (Endpoint, Addr, error) {
	return nil, Addr{}, fmt.Errorf("transport: accept not valid on a connection-less endpoint")
}

func (e *datagramEndpoint) Clone() (Endpoint, error) {
	e.shared.retain()
	clone := &datagramEndpoint{
		shared:    e.shared,
		props:     e.props,
		remote:    e.remote,
		localAddr: e.localAddr,
		ctx:       e.ctx,
	}
	return clone, nil
}

func (e *datagramEndpoint) Close() error {
	return e.shared.release()
}

// ConnectUDP implements connect for connection-less transports: it binds a
// local UDP socket and records the remote peer, but does not actually
// perform a kernel-level connect handshake since none exists for
// datagrams.
func ConnectUDP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	candidates, err := resolveCandidates(ctx, host, props.Family)
	if err != nil {
		return nil, err
	}
	ip := candidates[0]

	var lc net.ListenConfig
	local := fmt.Sprintf(":%d", localPort)
	conn, err := lc.ListenPacket(ctx, networkFor(props), local)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	remote := &net.UDPAddr{IP: ip, Port: remotePort}
	return newDatagramEndpoint(props, conn, remote), nil
}

// ListenUDP implements listen for connection-less transports: bind to the
// wildcard address on port; callers use Clone to share this endpoint
// across the responder fan-out pool.
func ListenUDP(ctx context.Context, props Properties, port int, _ int) (Endpoint, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, networkFor(props), fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return newDatagramEndpoint(props, conn, nil), nil
}
