package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amartin755/babbler/internal/transport"
)

func TestTCPLoopbackRoundTrip(t *testing.T) {
	props, err := transport.NewProperties("tcp", transport.FamilyV4)
	require.NoError(t, err)

	ctx := context.Background()
	srv, err := transport.ListenTCP(ctx, props, 0, 1)
	require.NoError(t, err)
	defer srv.Close()

	port := srv.LocalAddr().Port

	acceptErr := make(chan error, 1)
	var accepted transport.Endpoint
	go func() {
		ep, _, err := srv.Accept()
		accepted = ep
		acceptErr <- err
	}()

	client, err := transport.ConnectTCP(ctx, props, "127.0.0.1", port, 0)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, <-acceptErr)
	defer accepted.Close()

	n, err := client.Send([]byte("hello"), transport.Addr{})
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = accepted.Recv(buf, 5, nil)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestUDPLoopbackRoundTrip(t *testing.T) {
	props, err := transport.NewProperties("udp", transport.FamilyV4)
	require.NoError(t, err)

	ctx := context.Background()
	srv, err := transport.ListenUDP(ctx, props, 0, 0)
	require.NoError(t, err)
	defer srv.Close()

	port := srv.LocalAddr().Port

	client, err := transport.ConnectUDP(ctx, props, "127.0.0.1", port, 0)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send([]byte("ping"), transport.Addr{})
	require.NoError(t, err)

	buf := make([]byte, 4)
	var peer transport.Addr
	n, err := srv.Recv(buf, 4, &peer)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "ping", string(buf))
	require.NotZero(t, peer.Port)
}

func TestRecvRespectsCancellation(t *testing.T) {
	props, err := transport.NewProperties("udp", transport.FamilyV4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := transport.ListenUDP(context.Background(), props, 0, 0)
	require.NoError(t, err)
	defer srv.Close()
	srv.SetCancel(ctx)

	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		cancel()
	}()

	buf := make([]byte, 4)
	_, err = srv.Recv(buf, 4, nil)
	<-done
	elapsed := time.Since(start)

	require.ErrorIs(t, err, transport.Cancelled)
	require.Less(t, elapsed, 2*time.Second)
}
