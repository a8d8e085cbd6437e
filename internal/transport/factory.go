package transport

import (
	"context"
	"fmt"
)

// Connect dispatches to the right concrete dialer for props.Name. It is
// the single entry point requestor/worker code should call.
func Connect(ctx context.Context, props Properties, host string, remotePort, localPort int) (Endpoint, error) {
	switch props.Name {
	case "tcp":
		return ConnectTCP(ctx, props, host, remotePort, localPort)
	case "udp":
		return ConnectUDP(ctx, props, host, remotePort, localPort)
	case "raw":
		return ConnectRaw(ctx, props, host, remotePort, localPort)
	case "sctp":
		return ConnectSCTP(ctx, props, host, remotePort, localPort)
	case "dccp":
		return ConnectDCCP(ctx, props, host, remotePort, localPort)
	default:
		return nil, fmt.Errorf("transport: unknown constructor %q", props.Name)
	}
}

// Listen dispatches to the right concrete listener factory for props.Name.
func Listen(ctx context.Context, props Properties, port, backlog int) (Endpoint, error) {
	switch props.Name {
	case "tcp":
		return ListenTCP(ctx, props, port, backlog)
	case "udp":
		return ListenUDP(ctx, props, port, backlog)
	case "raw":
		return ListenRaw(ctx, props, port, backlog)
	case "sctp":
		return ListenSCTP(ctx, props, port, backlog)
	case "dccp":
		return ListenDCCP(ctx, props, port, backlog)
	default:
		return nil, fmt.Errorf("transport: unknown constructor %q", props.Name)
	}
}
