// Package stats collects per-symbol operational metrics: Prometheus
// counters/histograms for external scraping, plus a bounded latency
// ring buffer reduced synchronously via gonum's quantile estimator.

package stats

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrail/mdcore/internal/protocol"
)

// Registry holds the process-wide Prometheus vectors, labeled by
// symbol, and hands out a per-symbol Stats collector. Construct one
// Registry per process, at the cmd/ edge — never per pipeline.
type Registry struct {
	messagesByKind *prometheus.CounterVec
	gapCount       *prometheus.CounterVec
	crossedBook    *prometheus.CounterVec
	decodeLatency  *prometheus.HistogramVec
	bookUpdateLat  *prometheus.HistogramVec
}

// NewRegistry constructs and registers the Prometheus vectors against
// the default registerer, via promauto. Use this from cmd/mdfeed.
func NewRegistry() *Registry {
	return NewRegistryWith(prometheus.DefaultRegisterer)
}

// NewRegistryWith is like NewRegistry but registers against reg,
// letting tests use an isolated prometheus.NewRegistry() instead of
// the process-wide default.
func NewRegistryWith(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		messagesByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_messages_total",
			Help: "Total messages passed to the order book by symbol and message kind.",
		}, []string{"symbol", "kind"}),
		gapCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_sequence_gaps_total",
			Help: "Total sequence-number gaps detected by symbol.",
		}, []string{"symbol"}),
		crossedBook: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcore_crossed_book_total",
			Help: "Total times a symbol's book was observed crossed.",
		}, []string{"symbol"}),
		decodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdcore_decode_latency_microseconds",
			Help:    "Per-record decode latency in microseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"symbol"}),
		bookUpdateLat: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdcore_book_update_latency_microseconds",
			Help:    "Per-message order book update latency in microseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"symbol"}),
	}
}

// For returns a Stats collector scoped to symbol. Each pipeline owns
// exactly one and never shares it across goroutines.
func (r *Registry) For(symbol string) *Stats {
	return &Stats{
		symbol:        symbol,
		registry:      r,
		decodeSamples: newRing(ringCapacity),
		updateSamples: newRing(ringCapacity),
	}
}

// ringCapacity bounds per-operation latency sample retention. 4096
// samples is enough for a stable p99 estimate without unbounded growth
// on a long-lived pipeline.
const ringCapacity = 4096

// Stats is a single symbol's metrics collector. It implements
// book.Observer so the order book can report messages and crossed
// books without importing this package.
type Stats struct {
	symbol   string
	registry *Registry

	decodeSamples *ring
	updateSamples *ring

	gaps int64
}

// OnMessage implements book.Observer.
func (s *Stats) OnMessage(kind protocol.MessageType) {
	s.registry.messagesByKind.WithLabelValues(s.symbol, kind.String()).Inc()
}

// OnCrossedBook implements book.Observer.
func (s *Stats) OnCrossedBook() {
	s.registry.crossedBook.WithLabelValues(s.symbol).Inc()
}

// ObserveGap records a newly-detected sequence gap.
func (s *Stats) ObserveGap() {
	s.gaps++
	s.registry.gapCount.WithLabelValues(s.symbol).Inc()
}

// ObserveDecodeLatency records one decode operation's duration.
func (s *Stats) ObserveDecodeLatency(d time.Duration) {
	micros := float64(d.Nanoseconds()) / 1000.0
	s.registry.decodeLatency.WithLabelValues(s.symbol).Observe(micros)
	s.decodeSamples.add(micros)
}

// ObserveBookUpdateLatency records one book-apply operation's duration.
func (s *Stats) ObserveBookUpdateLatency(d time.Duration) {
	micros := float64(d.Nanoseconds()) / 1000.0
	s.registry.bookUpdateLat.WithLabelValues(s.symbol).Observe(micros)
	s.updateSamples.add(micros)
}

// Report is a synchronous snapshot of a symbol's current statistics,
// for callers that need a value back rather than a scrape target —
// Prometheus histograms don't hand back an arbitrary quantile to
// calling code.
type Report struct {
	Symbol        string
	TotalGaps     int64
	DecodeLatency LatencyPercentiles
	UpdateLatency LatencyPercentiles
}

// LatencyPercentiles holds p50/p90/p99 microsecond latencies computed
// over the current ring buffer contents.
type LatencyPercentiles struct {
	P50, P90, P99 float64
}

// Snapshot computes a Report from the collector's current state.
func (s *Stats) Snapshot() Report {
	return Report{
		Symbol:        s.symbol,
		TotalGaps:     s.gaps,
		DecodeLatency: s.decodeSamples.percentiles(),
		UpdateLatency: s.updateSamples.percentiles(),
	}
}

// ring is a fixed-capacity circular buffer of float64 latency samples.
type ring struct {
	buf    []float64
	next   int
	filled bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) add(v float64) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.filled = true
	}
}

func (r *ring) samples() []float64 {
	if r.filled {
		out := make([]float64, len(r.buf))
		copy(out, r.buf)
		return out
	}
	out := make([]float64, r.next)
	copy(out, r.buf[:r.next])
	return out
}

// percentiles sorts a copy of the current samples and reduces them via
// gonum's empirical-CDF quantile estimator.
func (r *ring) percentiles() LatencyPercentiles {
	samples := r.samples()
	if len(samples) == 0 {
		return LatencyPercentiles{}
	}
	sort.Float64s(samples) // stat.Quantile requires sorted input
	return LatencyPercentiles{
		P50: stat.Quantile(0.50, stat.Empirical, samples, nil),
		P90: stat.Quantile(0.90, stat.Empirical, samples, nil),
		P99: stat.Quantile(0.99, stat.Empirical, samples, nil),
	}
}
