// Package stats implements the per-connection statistics record: four
// signed 64-bit counters behind a single lock, with summary and delta
// views.
package stats

import (
	"sync"
	"time"
)

// Snapshot is an immutable copy of the counters at a point in time, plus
// the elapsed time since the connection started.
type Snapshot struct {
	SentPackets     int64
	SentOctets      int64
	ReceivedPackets int64
	ReceivedOctets  int64
	ElapsedMillis   int64
}

// Sub returns s - other, pointwise. Used to compute delta(now) from two
// summaries.
func (s Snapshot) Sub(other Snapshot) Snapshot {
	return Snapshot{
		SentPackets:     s.SentPackets - other.SentPackets,
		SentOctets:      s.SentOctets - other.SentOctets,
		ReceivedPackets: s.ReceivedPackets - other.ReceivedPackets,
		ReceivedOctets:  s.ReceivedOctets - other.ReceivedOctets,
		ElapsedMillis:   s.ElapsedMillis - other.ElapsedMillis,
	}
}

// Counters is the statistics record for one Requestor or Responder.
//
// A single mutex guards all four fields rather than individual atomics:
// octet and packet counts are updated in pairs and must be observed
// jointly by a snapshot reader, so one critical section is cheaper and
// simpler than coordinating two atomics plus a memory fence.
type Counters struct {
	mu      sync.Mutex
	sent    int64
	sentOct int64
	recv    int64
	recvOct int64

	start      time.Time
	lastSummary Snapshot
}

// New creates a Counters record whose elapsed-time clock starts now.
func New() *Counters {
	return &Counters{start: time.Now()}
}

// AddSent records one logical frame's worth of octets sent. octets may be
// added across several calls if Transport.Send looped internally, but
// packets is incremented exactly once per logical frame by the caller
// passing packets=1 only on the final chunk.
func (c *Counters) AddSent(packets, octets int64) {
	c.mu.Lock()
	c.sent += packets
	c.sentOct += octets
	c.mu.Unlock()
}

func (c *Counters) AddReceived(packets, octets int64) {
	c.mu.Lock()
	c.recv += packets
	c.recvOct += octets
	c.mu.Unlock()
}

// Summary returns the running totals as of now.
func (c *Counters) Summary(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SentPackets:     c.sent,
		SentOctets:      c.sentOct,
		ReceivedPackets: c.recv,
		ReceivedOctets:  c.recvOct,
		ElapsedMillis:   now.Sub(c.start).Milliseconds(),
	}
}

// Delta returns summary(now) - last_summary and advances last_summary to
// the freshly taken snapshot.
func (c *Counters) Delta(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := Snapshot{
		SentPackets:     c.sent,
		SentOctets:      c.sentOct,
		ReceivedPackets: c.recv,
		ReceivedOctets:  c.recvOct,
		ElapsedMillis:   now.Sub(c.start).Milliseconds(),
	}
	delta := current.Sub(c.lastSummary)
	c.lastSummary = current
	return delta
}
