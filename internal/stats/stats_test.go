package stats_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrail/mdcore/internal/protocol"
	"github.com/quantrail/mdcore/internal/stats"
)

func newTestRegistry(t *testing.T) *stats.Registry {
	t.Helper()
	return stats.NewRegistryWith(prometheus.NewRegistry())
}

func TestOnMessageAndCrossedBookAreObserverHooks(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.For("BTC-USD")

	s.OnMessage(protocol.MessageTypeAddOrder)
	s.OnCrossedBook()

	report := s.Snapshot()
	assert.Equal(t, "BTC-USD", report.Symbol)
}

func TestObserveGapIncrementsTotal(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.For("ETH-USD")

	s.ObserveGap()
	s.ObserveGap()

	assert.Equal(t, int64(2), s.Snapshot().TotalGaps)
}

func TestLatencyPercentilesReflectSamples(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.For("BTC-USD")

	for i := 1; i <= 100; i++ {
		s.ObserveDecodeLatency(time.Duration(i) * time.Microsecond)
	}

	p := s.Snapshot().DecodeLatency
	require.Greater(t, p.P50, 0.0)
	assert.Less(t, p.P50, p.P90)
	assert.Less(t, p.P90, p.P99)
}

func TestLatencyPercentilesEmptyIsZero(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.For("BTC-USD")

	p := s.Snapshot().DecodeLatency
	assert.Equal(t, stats.LatencyPercentiles{}, p)
}

func TestRingBufferWrapsAtCapacity(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.For("BTC-USD")

	// Push well past the ring's bound; this must not panic or grow
	// unbounded, and should still produce sane percentiles dominated by
	// the most recent values.
	for i := 0; i < 10000; i++ {
		s.ObserveBookUpdateLatency(time.Duration(i%50) * time.Microsecond)
	}

	p := s.Snapshot().UpdateLatency
	assert.GreaterOrEqual(t, p.P99, p.P50)
}

func TestPerSymbolIsolation(t *testing.T) {
	reg := newTestRegistry(t)
	a := reg.For("BTC-USD")
	b := reg.For("ETH-USD")

	a.ObserveGap()

	assert.Equal(t, int64(1), a.Snapshot().TotalGaps)
	assert.Equal(t, int64(0), b.Snapshot().TotalGaps)
}
