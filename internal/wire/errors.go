package wire

import "errors"

// Protocol-layer failures. All are fatal for the connection that produced
// them, per the no-retry policy: a worker logs and exits, it never retries.
var (
	ErrWrongChecksum     = errors.New("wire: wrong checksum")
	ErrUnknownType       = errors.New("wire: unknown frame type")
	ErrUnexpectedType    = errors.New("wire: unexpected frame type")
	ErrUnexpectedSeq     = errors.New("wire: unexpected sequence number")
	ErrCorruptedPayload  = errors.New("wire: corrupted payload")
	ErrFrameTooSmall     = errors.New("wire: frame length below minimum")
)
