package transport

import (
	"context"
	"time"
)

// maxPollSlice bounds how long any single deadline-bounded read waits
// before re-checking the cancel context, so that cancellation latency
// stays low even when the configured timeout is long or infinite. Modeled
// on the uping sender's maxPollSlice, which exists for the same reason:
// a single long deadline can't be interrupted once submitted to the
// kernel, so the wait is chopped into short slices instead.
const maxPollSlice = 200 * time.Millisecond

// pollRecv repeatedly arms a short deadline via setDeadline and calls read
// until read succeeds, the context is cancelled, or the overall timeout
// (0 = infinite) elapses. It implements the "wait on both socket and
// cancellation handle with the configured timeout" requirement without a
// platform-specific selector: each slice is a chance to notice ctx.Done().
func pollRecv(ctx context.Context, timeout time.Duration, setDeadline func(time.Time), read func() (int, error)) (int, error) {
	var overallDeadline time.Time
	if timeout > 0 {
		overallDeadline = time.Now().Add(timeout)
	}
	for {
		select {
		case <-ctx.Done():
			return 0, Cancelled
		default:
		}

		slice := maxPollSlice
		if !overallDeadline.IsZero() {
			remaining := time.Until(overallDeadline)
			if remaining <= 0 {
				return 0, ErrTimeout
			}
			if remaining < slice {
				slice = remaining
			}
		}
		setDeadline(time.Now().Add(slice))

		n, err := read()
		if err == nil {
			return n, nil
		}
		if isTimeoutErr(err) {
			// Slice elapsed without data; loop back to re-check
			// cancellation and the overall deadline. This is the
			// "non-blocking retry" the shared datagram fan-out depends
			// on: a thread woken spuriously for another reader's packet
			// must not stall here.
			continue
		}
		return n, err
	}
}

type timeoutError interface {
	Timeout() bool
}

func isTimeoutErr(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
