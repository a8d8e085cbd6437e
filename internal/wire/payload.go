package wire

// FillPattern writes the payload pattern for a frame with the given
// sequence into buf. Requests increment from uint8(sequence), responses
// decrement; byte i (0-based) equals uint8(sequence) + (i+1) for a request,
// uint8(sequence) - (i+1) for a response.
func FillPattern(buf []byte, sequence uint64, request bool) {
	start := uint8(sequence)
	if request {
		for i := range buf {
			buf[i] = start + uint8(i+1)
		}
	} else {
		for i := range buf {
			buf[i] = start - uint8(i+1)
		}
	}
}

// VerifyPattern checks buf against the expected pattern starting at byte
// offset off within the logical payload (off is nonzero when a stream
// transport delivered the payload across more than one recv call). It
// returns ErrCorruptedPayload on the first mismatch.
func VerifyPattern(buf []byte, sequence uint64, request bool, off int) error {
	start := uint8(sequence)
	for i, b := range buf {
		pos := uint8(off + i + 1)
		var want uint8
		if request {
			want = start + pos
		} else {
			want = start - pos
		}
		if b != want {
			return ErrCorruptedPayload
		}
	}
	return nil
}
