package responder_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amartin755/babbler/internal/responder"
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
)

// pipeEndpoint adapts a net.Conn (from net.Pipe) to transport.Endpoint for
// tests, without needing a real socket.
type pipeEndpoint struct {
	conn net.Conn
}

func (p *pipeEndpoint) Send(buf []byte, _ transport.Addr) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := p.conn.Write(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p *pipeEndpoint) Recv(buf []byte, atLeast int, _ *transport.Addr) (int, error) {
	total := 0
	for total < atLeast {
		n, err := p.conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p *pipeEndpoint) Accept() (transport.Endpoint, transport.Addr, error) {
	return nil, transport.Addr{}, nil
}
func (p *pipeEndpoint) Clone() (transport.Endpoint, error) { return p, nil }
func (p *pipeEndpoint) SetTimeout(_ time.Duration)         {}
func (p *pipeEndpoint) SetCancel(_ context.Context)        {}
func (p *pipeEndpoint) Close() error                       { return p.conn.Close() }
func (p *pipeEndpoint) LocalAddr() transport.Addr          { return transport.Addr{} }
func (p *pipeEndpoint) RemoteAddr() transport.Addr         { return transport.Addr{} }
func (p *pipeEndpoint) Properties() transport.Properties {
	return transport.Properties{Name: "tcp", Kind: transport.KindStream}
}

func TestResponderEchoesRequestedSize(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	clientEP := &pipeEndpoint{conn: clientConn}
	serverEP := &pipeEndpoint{conn: serverConn}
	defer clientEP.Close()

	serverCounters := stats.New()
	serverCodec := wire.NewCodec(serverEP, serverCounters, 256)
	r := responder.New(serverCodec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	clientCodec := wire.NewCodec(clientEP, stats.New(), 256)
	require.NoError(t, clientCodec.SendRequest(1, 80, 60))
	require.NoError(t, clientCodec.RecvResponse(1))

	require.Eventually(t, func() bool {
		s := serverCounters.Summary(time.Now())
		return s.ReceivedPackets == 1 && s.SentPackets == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	clientEP.Close()
	<-runDone
}

func TestResponderSkipsResponseWhenSizeIsZero(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	clientEP := &pipeEndpoint{conn: clientConn}
	serverEP := &pipeEndpoint{conn: serverConn}
	defer clientEP.Close()

	serverCounters := stats.New()
	serverCodec := wire.NewCodec(serverEP, serverCounters, 256)
	r := responder.New(serverCodec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	clientCodec := wire.NewCodec(clientEP, stats.New(), 256)
	require.NoError(t, clientCodec.SendRequest(1, 80, 0))

	require.Eventually(t, func() bool {
		return serverCounters.Summary(time.Now()).ReceivedPackets == 1
	}, time.Second, 10*time.Millisecond)

	// No response should ever be sent for a zero-size request.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int64(0), serverCounters.Summary(time.Now()).SentPackets)

	cancel()
	clientEP.Close()
	<-runDone
}

func TestResponderReturnsCancelledOnContextDone(t *testing.T) {
	_, serverConn := net.Pipe()
	serverEP := &pipeEndpoint{conn: serverConn}
	defer serverEP.Close()

	serverCodec := wire.NewCodec(serverEP, stats.New(), 256)
	r := responder.New(serverCodec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	require.ErrorIs(t, err, transport.Cancelled)
}
