package requestor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amartin755/babbler/internal/protosettings"
	"github.com/amartin755/babbler/internal/requestor"
	"github.com/amartin755/babbler/internal/responder"
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
)

func TestRequestorResponderFixedSizeExchange(t *testing.T) {
	props, err := transport.NewProperties("tcp", transport.FamilyV4)
	require.NoError(t, err)

	ctx := context.Background()
	srv, err := transport.ListenTCP(ctx, props, 0, 1)
	require.NoError(t, err)
	defer srv.Close()
	port := srv.LocalAddr().Port

	acceptCh := make(chan transport.Endpoint, 1)
	go func() {
		ep, _, err := srv.Accept()
		require.NoError(t, err)
		acceptCh <- ep
	}()

	client, err := transport.ConnectTCP(ctx, props, "127.0.0.1", port, 0)
	require.NoError(t, err)
	defer client.Close()

	server := <-acceptCh
	defer server.Close()

	serverCounters := stats.New()
	serverCodec := wire.NewCodec(server, serverCounters, 4096)
	r := responder.New(serverCodec, nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	server.SetCancel(runCtx)
	respDone := make(chan error, 1)
	go func() { respDone <- r.Run(runCtx) }()

	com, err := protosettings.Parse("100,100,80,80")
	require.NoError(t, err)

	clientCounters := stats.New()
	clientCodec := wire.NewCodec(client, clientCounters, 4096)
	req := requestor.New(clientCodec, requestor.Params{ComSettings: com, MaxCount: 5}, nil)

	require.NoError(t, req.Run(runCtx))

	summary := clientCounters.Summary(time.Now())
	require.Equal(t, int64(5), summary.SentPackets)
	require.Equal(t, int64(500), summary.SentOctets)
	require.Equal(t, int64(5), summary.ReceivedPackets)
	require.Equal(t, int64(400), summary.ReceivedOctets)

	cancel()
	<-respDone
}
