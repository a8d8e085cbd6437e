// Package worker wraps one Requestor or Responder loop in its own
// goroutine, owning its lifecycle: spawn on construction, wait with Join.
// Grounded on the teacher's per-transfer goroutine pattern
// (serverudp.packetLoop, clientudp's callback-driven transfer goroutine),
// generalized to one goroutine per connection with explicit join and a
// "done" signal the Supervisor multiplexes on.
package worker

import (
	"context"
	"time"

	"github.com/amartin755/babbler/internal/obslog"
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/transport"
)

// Body is the protocol loop a Worker runs: a Requestor.Run or
// Responder.Run bound to an already-established transport.
type Body func(ctx context.Context) error

// Worker is a connection worker: one thread (goroutine) wrapping one
// Requestor or Responder, owning its lifecycle.
type Worker struct {
	clientID   uint
	descriptor string
	counters   *stats.Counters
	start      time.Time
	finished   time.Time

	done chan struct{}
	err  error

	// Done is closed when the worker's body returns; the Supervisor
	// selects on it as the "worker terminated" event.
	Done <-chan struct{}
}

// Spawn starts body in its own goroutine and returns immediately. log, if
// non-nil, receives a Warn line when body ends with a transport/protocol
// error; a nil or Cancelled exit is not logged.
func Spawn(ctx context.Context, clientID uint, descriptor string, counters *stats.Counters, log obslog.Logger, body Body) *Worker {
	done := make(chan struct{})
	w := &Worker{
		clientID:   clientID,
		descriptor: descriptor,
		counters:   counters,
		start:      time.Now(),
		done:       done,
		Done:       done,
	}

	go func() {
		defer close(done)
		err := body(ctx)
		w.finished = time.Now()
		if err == nil || err == transport.Cancelled {
			// Cancelled is not an error: workers unwind silently.
			return
		}
		w.err = err
		if log != nil {
			obslog.WithConn(log, descriptor, clientID).Warnf("connection ended: %v", err)
		}
	}()

	return w
}

// ClientID labels this worker in logs.
func (w *Worker) ClientID() uint { return w.clientID }

// ConnectionDescription is the "local -> remote" label for logging.
func (w *Worker) ConnectionDescription() string { return w.descriptor }

// IsConnected reports whether the worker's body is still running.
func (w *Worker) IsConnected() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Err returns the error the worker's body exited with, or nil if it's
// still running, exited cleanly, or exited via cooperative cancellation.
func (w *Worker) Err() error { return w.err }

// Statistics returns this worker's delta and summary snapshots, plus the
// elapsed time since the last delta call and since the worker started.
func (w *Worker) Statistics() (delta, summary stats.Snapshot, deltaDuration, totalDuration time.Duration) {
	now := time.Now()
	delta = w.counters.Delta(now)
	summary = w.counters.Summary(now)
	return delta, summary, time.Duration(delta.ElapsedMillis) * time.Millisecond, now.Sub(w.start)
}

// Join blocks until the worker's body has returned.
func (w *Worker) Join() {
	<-w.done
}
