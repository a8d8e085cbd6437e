package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummaryAccumulates(t *testing.T) {
	c := New()
	c.AddSent(1, 100)
	c.AddSent(1, 200)
	c.AddReceived(2, 50)

	s := c.Summary(time.Now())
	require.Equal(t, int64(2), s.SentPackets)
	require.Equal(t, int64(300), s.SentOctets)
	require.Equal(t, int64(2), s.ReceivedPackets)
	require.Equal(t, int64(50), s.ReceivedOctets)
}

func TestDeltaAdvancesBaseline(t *testing.T) {
	c := New()
	c.AddSent(1, 10)

	first := c.Delta(time.Now())
	require.Equal(t, int64(1), first.SentPackets)
	require.Equal(t, int64(10), first.SentOctets)

	second := c.Delta(time.Now())
	require.Equal(t, int64(0), second.SentPackets)
	require.Equal(t, int64(0), second.SentOctets)

	c.AddSent(1, 5)
	third := c.Delta(time.Now())
	require.Equal(t, int64(1), third.SentPackets)
	require.Equal(t, int64(5), third.SentOctets)
}

func TestSummaryMinusSummaryEqualsContributionsBetweenCalls(t *testing.T) {
	c := New()
	c.AddSent(1, 100)
	c.AddReceived(1, 50)
	s1 := c.Summary(time.Now())

	c.AddSent(1, 200)
	c.AddReceived(1, 150)
	s2 := c.Summary(time.Now())

	require.Equal(t, int64(200), s2.SentOctets-s1.SentOctets)
	require.Equal(t, int64(150), s2.ReceivedOctets-s1.ReceivedOctets)
	require.Equal(t, int64(1), s2.SentPackets-s1.SentPackets)
}

func TestSubElapsedMillisIsTheInterval(t *testing.T) {
	a := Snapshot{ElapsedMillis: 1000}
	b := Snapshot{ElapsedMillis: 1300}

	d := b.Sub(a)
	require.Equal(t, int64(300), d.ElapsedMillis, "Sub must report the interval between the two snapshots, not the later one's total elapsed time")
}
