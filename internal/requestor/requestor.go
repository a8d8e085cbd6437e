// Package requestor drives the client-side exchange: send a request,
// await the matching response, pace by delay, rotate sizes, and stop on
// any configured limit. Grounded on the teacher's clientudp.go round-trip
// loop (Config/Callbacks shape) and original_source/src/protocol.hpp's
// cRequestor::doJob, generalized from retry/NACK-driven file transfer to
// the spec's strict single-round-trip-per-iteration model with
// fixed/random/sweep size rotation (spec.md's explicit min/max model is
// authoritative here, not the C++ source's apparent base+delta shortcut).
package requestor

import (
	"context"
	"math/rand"
	"time"

	"github.com/amartin755/babbler/internal/obslog"
	"github.com/amartin755/babbler/internal/protosettings"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
)

// Params are the immutable parameters driving one Requestor's loop.
type Params struct {
	ComSettings protosettings.Settings
	Delay       time.Duration

	MaxCount         int   // 0 means unlimited
	SendLimitOctets  int64 // 0 means unlimited
	RecvLimitOctets  int64 // 0 means unlimited
}

// Requestor is one client-side connection's driver.
type Requestor struct {
	codec  *wire.Codec
	params Params
	log    obslog.Logger
	rng    *rand.Rand

	seq            uint64
	sentOctets     int64
	recvOctets     int64
	iterationCount int
}

func New(codec *wire.Codec, params Params, log obslog.Logger) *Requestor {
	return &Requestor{
		codec:  codec,
		params: params,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the requestor loop until termination, a limit exhausts, or
// a lower-layer error occurs. transport.Cancelled is returned as-is so
// callers can treat it as a silent exit rather than a failure.
func (r *Requestor) Run(ctx context.Context) error {
	sizes := r.params.ComSettings.Initial()

	for {
		select {
		case <-ctx.Done():
			return transport.Cancelled
		default:
		}

		if r.params.MaxCount > 0 && r.iterationCount >= r.params.MaxCount {
			return nil
		}

		reqSize, respSize, ok := r.clamp(sizes)
		if !ok {
			return transport.Cancelled
		}

		t0 := time.Now()
		r.seq++
		if err := r.codec.SendRequest(r.seq, reqSize, respSize); err != nil {
			return err
		}
		r.sentOctets += int64(reqSize)

		if respSize > 0 {
			if err := r.codec.RecvResponse(r.seq); err != nil {
				return err
			}
			r.recvOctets += int64(respSize)
		}
		t1 := time.Now()

		if r.log != nil {
			r.log.WithField("seq", r.seq).Debugf("round trip in %s (req=%d resp=%d)", t1.Sub(t0), reqSize, respSize)
		}

		r.iterationCount++

		if r.params.Delay > 0 {
			select {
			case <-ctx.Done():
				return transport.Cancelled
			case <-time.After(r.params.Delay):
			}
		}

		sizes = r.params.ComSettings.Next(protosettings.Sizes{Request: reqSize, Response: respSize}, r.rng)
	}
}

// clamp enforces the send/receive octet budgets: if a limit is set, the
// next sizes are reduced so the remaining budget isn't exceeded; if that
// reduction would leave a frame smaller than the wire minimum, the size is
// borrowed back up to HeaderLen instead of dropping the iteration (the
// final frame may slightly overshoot the configured budget rather than
// being skipped); if the budget is already fully exhausted (remaining <=
// 0), ok is false and the caller should treat the iteration as cancelled.
func (r *Requestor) clamp(sizes protosettings.Sizes) (reqSize, respSize uint32, ok bool) {
	reqSize, respSize = sizes.Request, sizes.Response

	if r.params.SendLimitOctets > 0 {
		remaining := r.params.SendLimitOctets - r.sentOctets
		if remaining <= 0 {
			return 0, 0, false
		}
		if int64(reqSize) > remaining {
			reqSize = uint32(remaining)
			if reqSize < wire.HeaderLen {
				reqSize = wire.HeaderLen
			}
		}
	}
	if r.params.RecvLimitOctets > 0 && respSize > 0 {
		remaining := r.params.RecvLimitOctets - r.recvOctets
		if remaining <= 0 {
			return 0, 0, false
		} else if int64(respSize) > remaining {
			respSize = uint32(remaining)
			if respSize < wire.HeaderLen {
				respSize = wire.HeaderLen
			}
		}
	}
	return reqSize, respSize, true
}
