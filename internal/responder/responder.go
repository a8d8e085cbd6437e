// Package responder drives the server-side exchange: receive a request,
// send a response of the size the request demands. Grounded on the
// teacher's serverudp.go (handleREQ/packetLoop), generalized from
// file-transfer chunk delivery to the spec's size-on-demand echo.
package responder

import (
	"context"

	"github.com/amartin755/babbler/internal/obslog"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
)

// Responder is one server-side connection's driver. It runs until the
// peer closes, a protocol error occurs, or cancellation.
type Responder struct {
	codec *wire.Codec
	log   obslog.Logger
}

func New(codec *wire.Codec, log obslog.Logger) *Responder {
	return &Responder{codec: codec, log: log}
}

// Run executes the responder loop: recv_request, send_response, repeat.
// When resp_size is zero the responder emits nothing and proceeds to the
// next request.
func (r *Responder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return transport.Cancelled
		default:
		}

		seq, respSize, peer, err := r.codec.RecvRequest()
		if err != nil {
			return err
		}

		if respSize == 0 {
			continue
		}
		if err := r.codec.SendResponse(seq, respSize, peer); err != nil {
			return err
		}
	}
}
