//go:build linux

package transport

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// dialExoticStream opens a stream-shaped socket for a protocol net doesn't
// know natively (sctp, dccp) via a raw syscall, then hands it to net via
// FileConn so the rest of the transport package can treat it exactly like
// a TCP connection. Grounded on uping/sender.go's pattern of opening a raw
// socket with unix.Socket and driving it directly with x/sys/unix.
func dialExoticStream(props Properties, sockType int, ip net.IP, remotePort, localPort int) (net.Conn, error) {
	domain := unix.AF_INET
	if ip.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, sockType, props.Protocol)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %v", ErrNotConnected, err)
	}
	if localPort != 0 {
		if err := bindFD(fd, domain, nil, localPort); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: bind: %v", ErrNotConnected, err)
		}
	}
	if err := connectFD(fd, domain, ip, remotePort); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: connect: %v", ErrNotConnected, err)
	}
	return fdToConn(fd)
}

func listenExoticStream(props Properties, sockType int, family Family, port, backlog int) (net.Listener, error) {
	domain := unix.AF_INET
	if family == FamilyV6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, sockType, props.Protocol)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %v", ErrNotConnected, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: reuseaddr: %v", ErrNotConnected, err)
	}
	if err := bindFD(fd, domain, nil, port); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: bind: %v", ErrNotConnected, err)
	}
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: listen: %v", ErrNotConnected, err)
	}
	f := os.NewFile(uintptr(fd), fmt.Sprintf("%s-listener", props.Name))
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return ln, nil
}

func bindFD(fd, domain int, ip net.IP, port int) error {
	if domain == unix.AF_INET6 {
		var addr unix.SockaddrInet6
		addr.Port = port
		if ip != nil {
			copy(addr.Addr[:], ip.To16())
		}
		return unix.Bind(fd, &addr)
	}
	var addr unix.SockaddrInet4
	addr.Port = port
	if ip != nil {
		copy(addr.Addr[:], ip.To4())
	}
	return unix.Bind(fd, &addr)
}

func connectFD(fd, domain int, ip net.IP, port int) error {
	if domain == unix.AF_INET6 {
		var addr unix.SockaddrInet6
		addr.Port = port
		copy(addr.Addr[:], ip.To16())
		return unix.Connect(fd, &addr)
	}
	var addr unix.SockaddrInet4
	addr.Port = port
	copy(addr.Addr[:], ip.To4())
	return unix.Connect(fd, &addr)
}

func fdToConn(fd int) (net.Conn, error) {
	f := os.NewFile(uintptr(fd), "exotic-conn")
	conn, err := net.FileConn(f)
	f.Close()
	return conn, err
}

// ConnectSCTP and ConnectDCCP open stream-shaped sockets over protocols
// without first-class net package support.
func ConnectSCTP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	candidates, err := resolveCandidates(ctx, host, props.Family)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, ip := range candidates {
		conn, err := dialExoticStream(props, unix.SOCK_STREAM, ip, remotePort, localPort)
		if err != nil {
			lastErr = err
			continue
		}
		return newStreamConn(props, conn), nil
	}
	return nil, lastErr
}

func ListenSCTP(ctx context.Context, props Properties, port, backlog int) (Endpoint, error) {
	ln, err := listenExoticStream(props, unix.SOCK_STREAM, props.Family, port, backlog)
	if err != nil {
		return nil, err
	}
	ep := newStreamListener(props, ln)
	ep.ctx = ctx
	return ep, nil
}

func ConnectDCCP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	candidates, err := resolveCandidates(ctx, host, props.Family)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, ip := range candidates {
		conn, err := dialExoticStream(props, unix.SOCK_DCCP, ip, remotePort, localPort)
		if err != nil {
			lastErr = err
			continue
		}
		return newStreamConn(props, conn), nil
	}
	return nil, lastErr
}

func ListenDCCP(ctx context.Context, props Properties, port, backlog int) (Endpoint, error) {
	ln, err := listenExoticStream(props, unix.SOCK_DCCP, props.Family, port, backlog)
	if err != nil {
		return nil, err
	}
	ep := newStreamListener(props, ln)
	ep.ctx = ctx
	return ep, nil
}
