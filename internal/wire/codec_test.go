package wire_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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
func (p *pipeEndpoint) LocalAddr() transport.Addr           { return transport.Addr{} }
func (p *pipeEndpoint) RemoteAddr() transport.Addr          { return transport.Addr{} }
func (p *pipeEndpoint) Properties() transport.Properties {
	return transport.Properties{Name: "tcp", Kind: transport.KindStream}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	clientEP := &pipeEndpoint{conn: clientConn}
	serverEP := &pipeEndpoint{conn: serverConn}

	clientCounters := stats.New()
	serverCounters := stats.New()
	clientCodec := wire.NewCodec(clientEP, clientCounters, 256)
	serverCodec := wire.NewCodec(serverEP, serverCounters, 256)

	var wg sync.WaitGroup
	wg.Add(1)
	var serverErr error
	go func() {
		defer wg.Done()
		seq, respSize, _, err := serverCodec.RecvRequest()
		if err != nil {
			serverErr = err
			return
		}
		serverErr = serverCodec.SendResponse(seq, respSize, transport.Addr{})
	}()

	const reqSize, respSize = 100, 150
	require.NoError(t, clientCodec.SendRequest(1, reqSize, respSize))
	require.NoError(t, clientCodec.RecvResponse(1))
	wg.Wait()
	require.NoError(t, serverErr)

	now := time.Now()
	cs := clientCounters.Summary(now)
	require.Equal(t, int64(1), cs.SentPackets)
	require.Equal(t, int64(reqSize), cs.SentOctets)
	require.Equal(t, int64(1), cs.ReceivedPackets)
	require.Equal(t, int64(respSize), cs.ReceivedOctets)

	ss := serverCounters.Summary(now)
	require.Equal(t, int64(1), ss.SentPackets)
	require.Equal(t, int64(respSize), ss.SentOctets)
	require.Equal(t, int64(1), ss.ReceivedPackets)
	require.Equal(t, int64(reqSize), ss.ReceivedOctets)
}

func TestCorruptedPayloadRejected(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	clientEP := &pipeEndpoint{conn: clientConn}
	serverEP := &pipeEndpoint{conn: serverConn}

	serverCodec := wire.NewCodec(serverEP, stats.New(), 256)

	done := make(chan error, 1)
	go func() {
		_, _, _, err := serverCodec.RecvRequest()
		done <- err
	}()

	// Hand-build a request frame and flip one payload byte before sending.
	h := wire.Header{Type: wire.TypeRequest, Length: wire.HeaderLen + 10, Sequence: 5, Options: 0}
	buf := make([]byte, wire.HeaderLen+10)
	h.Encode(buf[:wire.HeaderLen])
	wire.FillPattern(buf[wire.HeaderLen:], 5, true)
	buf[wire.HeaderLen] ^= 0xFF // corrupt first payload byte

	_, err := clientConn.Write(buf)
	require.NoError(t, err)

	err = <-done
	require.ErrorIs(t, err, wire.ErrCorruptedPayload)
}
