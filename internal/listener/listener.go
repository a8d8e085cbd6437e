// Package listener accepts new connections on a bound endpoint
// (connection-oriented) or dispatches a fixed pool of datagram workers
// (connection-less), under a shared admission semaphore. Grounded on the
// teacher's serverudp.Start (bind + spawn receive loop); the semaphore
// comes from golang.org/x/sync/semaphore, matching
// original_source/src/semaphore.hpp's cSemaphore one-for-one.
package listener

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/amartin755/babbler/internal/config"
	"github.com/amartin755/babbler/internal/obslog"
	"github.com/amartin755/babbler/internal/protosettings"
	"github.com/amartin755/babbler/internal/responder"
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
	"github.com/amartin755/babbler/internal/worker"
)

// minDatagramPool is the floor on the connection-less responder pool size;
// the actual size is max(minDatagramPool, runtime.NumCPU()).
const minDatagramPool = 4

// Listener owns one bound endpoint and the Responder workers it spawns
// for it.
type Listener struct {
	ep       transport.Endpoint
	props    transport.Properties
	com      protosettings.Settings
	bufSize  int
	sem      *semaphore.Weighted
	log      obslog.Logger

	mu      sync.Mutex
	workers []*worker.Worker
	nextID  uint
}

// New binds props on port via transport.Listen and wraps the result.
func New(ctx context.Context, props transport.Properties, port int, backlog int, com protosettings.Settings, bufSize int, sem *semaphore.Weighted, log obslog.Logger) (*Listener, error) {
	if bufSize <= 0 {
		bufSize = config.BufSizeDefault
	}
	ep, err := transport.Listen(ctx, props, port, backlog)
	if err != nil {
		return nil, err
	}
	return &Listener{ep: ep, props: props, com: com, bufSize: bufSize, sem: sem, log: log}, nil
}

// Run drives the listener body until ctx is cancelled.
//
// Connection-oriented transports: acquire one admission unit, accept,
// spawn a Responder worker that releases its unit when it finishes, reap
// finished workers, repeat.
//
// Connection-less transports: spawn a fixed pool of max(4, NumCPU())
// Responder workers up front, each sharing the listening endpoint via
// Transport.Clone, then just wait for cancellation.
func (l *Listener) Run(ctx context.Context) error {
	if !l.props.IsConnectionOriented() {
		return l.runDatagramPool(ctx)
	}
	return l.runAcceptLoop(ctx)
}

func (l *Listener) runAcceptLoop(ctx context.Context) error {
	for {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return transport.Cancelled
		}

		conn, remote, err := l.ep.Accept()
		if err != nil {
			l.sem.Release(1)
			if err == transport.Cancelled {
				return transport.Cancelled
			}
			if l.log != nil {
				l.log.Warnf("accept failed: %v", err)
			}
			continue
		}

		l.mu.Lock()
		l.nextID++
		id := l.nextID
		l.mu.Unlock()

		descriptor := fmt.Sprintf("%s -> %s", conn.LocalAddr(), remote)
		if l.log != nil {
			obslog.WithConn(l.log, descriptor, id).Infof("accepted %s connection", l.props.Name)
		}

		counters := stats.New()
		codec := wire.NewCodec(conn, counters, l.bufSize)
		r := responder.New(codec, l.log)

		w := worker.Spawn(ctx, id, descriptor, counters, l.log, func(ctx context.Context) error {
			defer l.sem.Release(1)
			defer conn.Close()
			return r.Run(ctx)
		})

		l.reap()
		l.mu.Lock()
		l.workers = append(l.workers, w)
		l.mu.Unlock()
	}
}

func (l *Listener) runDatagramPool(ctx context.Context) error {
	poolSize := minDatagramPool
	if n := runtime.NumCPU(); n > poolSize {
		poolSize = n
	}

	for i := 0; i < poolSize; i++ {
		clone, err := l.ep.Clone()
		if err != nil {
			return err
		}
		clone.SetCancel(ctx)
		counters := stats.New()
		codec := wire.NewCodec(clone, counters, l.bufSize)
		r := responder.New(codec, l.log)

		l.mu.Lock()
		l.nextID++
		id := l.nextID
		l.mu.Unlock()

		descriptor := fmt.Sprintf("%s (shared)", clone.LocalAddr())
		w := worker.Spawn(ctx, id, descriptor, counters, l.log, func(ctx context.Context) error {
			defer clone.Close()
			return r.Run(ctx)
		})
		l.mu.Lock()
		l.workers = append(l.workers, w)
		l.mu.Unlock()
	}

	<-ctx.Done()
	l.mu.Lock()
	workers := append([]*worker.Worker(nil), l.workers...)
	l.mu.Unlock()
	for _, w := range workers {
		w.Join()
	}
	return transport.Cancelled
}

// reap drops finished workers from the tracked list so it doesn't grow
// without bound across a long-running listener.
func (l *Listener) reap() {
	l.mu.Lock()
	defer l.mu.Unlock()
	live := l.workers[:0]
	for _, w := range l.workers {
		if w.IsConnected() {
			live = append(live, w)
		}
	}
	l.workers = live
}

// Workers returns a snapshot of the currently tracked workers, for the
// Supervisor's periodic status sampling.
func (l *Listener) Workers() []*worker.Worker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*worker.Worker(nil), l.workers...)
}

// Close releases the bound endpoint.
func (l *Listener) Close() error { return l.ep.Close() }

// LocalAddr reports the bound address, mainly useful in tests that bind an
// ephemeral port (port 0) and need to learn what the OS actually assigned.
func (l *Listener) LocalAddr() transport.Addr { return l.ep.LocalAddr() }
