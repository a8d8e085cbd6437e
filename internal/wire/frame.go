// Package wire implements the babbler frame format: a fixed 28-byte header
// plus a pattern-verifiable payload.
package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the fixed size of a frame header on the wire.
const HeaderLen = 28

// checksumLen is the number of leading header bytes folded into the
// checksum: everything before the checksum field itself.
const checksumLen = 24

// FrameType distinguishes request and response frames. The values are the
// magic constants from the wire format, not a compact enum, so that a
// garbled header is unlikely to decode as a valid type by chance.
type FrameType uint32

const (
	TypeRequest  FrameType = 0xAAFFFFEE
	TypeResponse FrameType = 0xEEFFFFAA
)

func (t FrameType) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeResponse:
		return "response"
	default:
		return fmt.Sprintf("unknown(0x%08x)", uint32(t))
	}
}

// Header is the fixed portion of a frame. Layout on the wire, big-endian:
//
//	offset 0  type       4 bytes
//	offset 4  length     4 bytes
//	offset 8  sequence   8 bytes
//	offset 16 options    4 bytes
//	offset 20 reserved   4 bytes (always zero, not exposed)
//	offset 24 checksum   4 bytes
//
// The reserved field pads the checksummed prefix to 24 bytes so that the
// header as a whole is exactly 28 bytes while the checksum still excludes
// itself.
type Header struct {
	Type     FrameType
	Length   uint32
	Sequence uint64
	Options  uint32
}

// checksum computes the running byte sum (mod 2^32) of the first
// checksumLen bytes of h's wire encoding.
func (h Header) checksum() uint32 {
	var buf [checksumLen]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Type))
	binary.BigEndian.PutUint32(buf[4:8], h.Length)
	binary.BigEndian.PutUint64(buf[8:16], h.Sequence)
	binary.BigEndian.PutUint32(buf[16:20], h.Options)
	// buf[20:24] is the reserved field, always zero.
	var sum uint32
	for _, b := range buf {
		sum += uint32(b)
	}
	return sum
}

// Encode writes h's 28-byte wire representation into buf, which must be at
// least HeaderLen bytes long.
func (h Header) Encode(buf []byte) {
	_ = buf[:HeaderLen]
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Type))
	binary.BigEndian.PutUint32(buf[4:8], h.Length)
	binary.BigEndian.PutUint64(buf[8:16], h.Sequence)
	binary.BigEndian.PutUint32(buf[16:20], h.Options)
	binary.BigEndian.PutUint32(buf[20:24], 0)
	binary.BigEndian.PutUint32(buf[24:28], h.checksum())
}

// Decode parses a 28-byte wire header from buf. It validates the checksum
// and the frame type, but not length (the caller is better placed to
// reject a too-small length against its own minimum).
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, fmt.Errorf("wire: short header (%d bytes)", len(buf))
	}
	h := Header{
		Type:     FrameType(binary.BigEndian.Uint32(buf[0:4])),
		Length:   binary.BigEndian.Uint32(buf[4:8]),
		Sequence: binary.BigEndian.Uint64(buf[8:16]),
		Options:  binary.BigEndian.Uint32(buf[16:20]),
	}
	wantSum := binary.BigEndian.Uint32(buf[24:28])
	if gotSum := h.checksum(); gotSum != wantSum {
		return Header{}, ErrWrongChecksum
	}
	if h.Type != TypeRequest && h.Type != TypeResponse {
		return Header{}, ErrUnknownType
	}
	return h, nil
}
