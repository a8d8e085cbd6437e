package wire

import (
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/transport"
)

// Codec frames and deframes messages over one Endpoint, generating and
// verifying the payload pattern, and attributing sent/received counts to a
// Counters record.
//
// Codec owns an internal buffer sized to bufSize (the configured
// --buf-size) and retains any bytes a stream transport delivered past one
// frame's boundary for the next call, since stream transports may return
// multiple frames (or a partial frame) in one read.
type Codec struct {
	ep    transport.Endpoint
	stats *stats.Counters
	buf   []byte

	// pending holds bytes already read from the transport but not yet
	// consumed by the caller — only ever non-empty for stream transports.
	pending []byte
}

// NewCodec constructs a Codec over ep with an internal buffer of bufSize
// bytes (minimum HeaderLen), attributing traffic to counters.
func NewCodec(ep transport.Endpoint, counters *stats.Counters, bufSize int) *Codec {
	if bufSize < HeaderLen {
		bufSize = HeaderLen
	}
	return &Codec{ep: ep, stats: counters, buf: make([]byte, bufSize)}
}

// SendRequest emits one request frame of reqSize bytes total, stashing
// respSize in the options field. If respSize is zero the peer is expected
// to send no response.
func (c *Codec) SendRequest(seq uint64, reqSize, respSize uint32) error {
	return c.send(Header{Type: TypeRequest, Length: reqSize, Sequence: seq, Options: respSize}, nil)
}

// SendResponse emits one response frame of size bytes total, echoing seq.
// dest is required for connection-less transports.
func (c *Codec) SendResponse(seq uint64, size uint32, dest transport.Addr) error {
	return c.send(Header{Type: TypeResponse, Length: size, Sequence: seq, Options: 0}, &dest)
}

// send serializes the header, fills the remainder with pattern bytes, and
// writes to the transport in buffer-sized chunks until length bytes have
// gone out. Each kernel-visible write counts as sent octets; the logical
// frame counts as exactly one sent packet, credited on the final chunk.
func (c *Codec) send(h Header, dest *transport.Addr) error {
	if h.Length < HeaderLen {
		return ErrFrameTooSmall
	}
	remaining := int(h.Length)
	request := h.Type == TypeRequest
	payloadOff := 0
	first := true

	var d transport.Addr
	if dest != nil {
		d = *dest
	}

	for remaining > 0 {
		n := len(c.buf)
		if n > remaining {
			n = remaining
		}
		if first {
			if n < HeaderLen {
				n = HeaderLen
			}
			h.Encode(c.buf[:HeaderLen])
			fillPayloadChunk(c.buf[HeaderLen:n], h.Sequence, request, payloadOff)
			payloadOff += n - HeaderLen
		} else {
			fillPayloadChunk(c.buf[:n], h.Sequence, request, payloadOff)
			payloadOff += n
		}

		written, err := c.ep.Send(c.buf[:n], d)
		if err != nil {
			return err
		}
		remaining -= n
		if c.stats != nil {
			packets := int64(0)
			if remaining == 0 {
				packets = 1
			}
			c.stats.AddSent(packets, int64(written))
		}
		first = false
	}
	return nil
}

func fillPayloadChunk(buf []byte, sequence uint64, request bool, off int) {
	start := uint8(sequence)
	for i := range buf {
		pos := uint8(off + i + 1)
		if request {
			buf[i] = start + pos
		} else {
			buf[i] = start - pos
		}
	}
}

// RecvResponse receives one frame, demands response type and the given
// sequence, and verifies the payload pattern throughout.
func (c *Codec) RecvResponse(expectedSeq uint64) error {
	_, err := c.recvAndVerify(func(h Header) error {
		if h.Type != TypeResponse {
			return ErrUnexpectedType
		}
		if h.Sequence != expectedSeq {
			return ErrUnexpectedSeq
		}
		return nil
	})
	return err
}

// RecvRequest receives one frame, demands request type, and returns the
// sequence, the requested response size (from options), and the peer
// address for connection-less transports.
func (c *Codec) RecvRequest() (seq uint64, respSize uint32, peer transport.Addr, err error) {
	var peerAddr transport.Addr
	h, err := c.recvAndVerify(func(h Header) error {
		if h.Type != TypeRequest {
			return ErrUnexpectedType
		}
		return nil
	}, &peerAddr)
	if err != nil {
		return 0, 0, transport.Addr{}, err
	}
	return h.Sequence, h.Options, peerAddr, nil
}

// recvAndVerify implements the two-phase receive algorithm: fill the
// buffer with at least a header's worth of bytes, validate it, then
// consume and verify the remainder (payload pattern), looping until
// length bytes total have been consumed. check is called once the header
// is decoded so callers can enforce type/sequence expectations before the
// (potentially large) payload is read.
func (c *Codec) recvAndVerify(check func(Header) error, peer ...*transport.Addr) (Header, error) {
	var src transport.Addr

	header, leftoverPayload, err := c.fillHeader(&src)
	if err != nil {
		return Header{}, err
	}
	if err := check(header); err != nil {
		return Header{}, err
	}
	if len(peer) > 0 && peer[0] != nil {
		*peer[0] = src
	}

	request := header.Type == TypeRequest
	total := int(header.Length) - HeaderLen
	consumed := 0

	if len(leftoverPayload) > 0 {
		n := len(leftoverPayload)
		if n > total {
			n = total
		}
		if err := VerifyPattern(leftoverPayload[:n], header.Sequence, request, consumed); err != nil {
			return Header{}, err
		}
		consumed += n
		c.pending = append([]byte(nil), leftoverPayload[n:]...)
	}

	for consumed < total {
		want := total - consumed
		if want > len(c.buf) {
			want = len(c.buf)
		}
		n, err := c.ep.Recv(c.buf[:want], 1, nil)
		if err != nil {
			return Header{}, err
		}
		if n > want {
			n = want
		}
		if err := VerifyPattern(c.buf[:n], header.Sequence, request, consumed); err != nil {
			return Header{}, err
		}
		consumed += n
	}

	if c.stats != nil {
		c.stats.AddReceived(1, int64(header.Length))
	}
	return header, nil
}

// fillHeader reads at least HeaderLen bytes (reusing any bytes already
// buffered from a previous call by a coalescing stream transport),
// decodes and validates the header, and returns any payload bytes that
// arrived in the same read alongside it.
func (c *Codec) fillHeader(src *transport.Addr) (Header, []byte, error) {
	if len(c.pending) >= HeaderLen {
		h, err := Decode(c.pending[:HeaderLen])
		if err != nil {
			return Header{}, nil, err
		}
		rest := append([]byte(nil), c.pending[HeaderLen:]...)
		c.pending = nil
		return h, rest, nil
	}

	buf := make([]byte, len(c.buf))
	copy(buf, c.pending)
	filled := len(c.pending)
	c.pending = nil

	for filled < HeaderLen {
		n, err := c.ep.Recv(buf[filled:], HeaderLen-filled, src)
		if err != nil {
			return Header{}, nil, err
		}
		filled += n
	}

	h, err := Decode(buf[:HeaderLen])
	if err != nil {
		return Header{}, nil, err
	}
	if h.Length < HeaderLen {
		return Header{}, nil, ErrFrameTooSmall
	}
	return h, buf[HeaderLen:filled], nil
}
