//go:build !linux

package transport

import "context"

// ConnectSCTP, ListenSCTP, ConnectDCCP, and ListenDCCP need raw syscall
// access to socket types the net package doesn't expose portably; only the
// Linux build provides them (see exotic_linux.go).
func ConnectSCTP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	return nil, ErrUnsupported
}

func ListenSCTP(ctx context.Context, props Properties, port, backlog int) (Endpoint, error) {
	return nil, ErrUnsupported
}

func ConnectDCCP(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	return nil, ErrUnsupported
}

func ListenDCCP(ctx context.Context, props Properties, port, backlog int) (Endpoint, error) {
	return nil, ErrUnsupported
}
