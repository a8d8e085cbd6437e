package transport

import (
	"context"
	"fmt"
	"net"
)

// rawNetwork builds the "ip4:N" / "ip6:N" network string net.DialIP and
// net.ListenIP expect, embedding the wire protocol number from props.
func rawNetwork(props Properties) string {
	fam := "ip4"
	if props.Family == FamilyV6 {
		fam = "ip6"
	}
	return fmt.Sprintf("%s:%d", fam, props.Protocol)
}

// ConnectRaw implements connect for raw IP sockets. Raw sockets have no
// listen/accept pair; every raw endpoint is effectively connection-less at
// the transport layer, matching props.Kind == KindDatagram for raw.
func ConnectRaw(ctx context.Context, props Properties, host string, remotePort, _ int) (Endpoint, error) {
	candidates, err := resolveCandidates(ctx, host, props.Family)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialIP(rawNetwork(props), nil, &net.IPAddr{IP: candidates[0]})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return newDatagramEndpoint(props, conn, conn.RemoteAddr()), nil
}

// ListenRaw implements listen for raw IP sockets: bind to the wildcard
// address, consume inbound packets directly (no accept phase).
func ListenRaw(ctx context.Context, props Properties, _ int, _ int) (Endpoint, error) {
	var addr *net.IPAddr
	if props.Family == FamilyV6 {
		addr = &net.IPAddr{IP: net.IPv6zero}
	} else {
		addr = &net.IPAddr{IP: net.IPv4zero}
	}
	conn, err := net.ListenIP(rawNetwork(props), addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return newDatagramEndpoint(props, conn, nil), nil
}
