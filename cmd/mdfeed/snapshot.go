package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// snapshotRequester asks the venue for a fresh snapshot on a symbol
// whenever that symbol's pipeline falls into recovery. It is shared
// across all symbol pipelines and is the one place in this tree where
// a NATS request-reply round trip happens — guarded by a circuit
// breaker (so a stuck snapshot service doesn't pile up blocked
// requests) and a rate limiter (so a fast run of gaps on one symbol
// doesn't hammer the venue).
type snapshotRequester struct {
	log        *zap.Logger
	conn       *nats.Conn
	subjectFmt string
	breaker    *gobreaker.CircuitBreaker
	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	ratePerSec float64
	onSnapshot func(symbol string, payload []byte)
}

func newSnapshotRequester(log *zap.Logger, conn *nats.Conn, subjectFmt string, ratePerSec float64, onSnapshot func(string, []byte)) *snapshotRequester {
	settings := gobreaker.Settings{
		Name:        "snapshot-request",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("snapshot breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &snapshotRequester{
		log:        log,
		conn:       conn,
		subjectFmt: subjectFmt,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		limiters:   make(map[string]*rate.Limiter),
		ratePerSec: ratePerSec,
		onSnapshot: onSnapshot,
	}
}

// limiterFor returns symbol's rate limiter, creating it on first use.
// Guarded by limitersMu: unlike the rest of this type, the limiters map
// is touched from every symbol's pipeline goroutine, not just one.
func (r *snapshotRequester) limiterFor(symbol string) *rate.Limiter {
	r.limitersMu.Lock()
	defer r.limitersMu.Unlock()
	l, ok := r.limiters[symbol]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.ratePerSec), 1)
		r.limiters[symbol] = l
	}
	return l
}

// requestAsync fires a snapshot request in its own goroutine so the
// calling pipeline never blocks on the round trip. correlationID ties
// the request to its eventual log lines and, on the venue side, to
// whatever it logs against the request subject.
func (r *snapshotRequester) requestAsync(symbol string) {
	if !r.limiterFor(symbol).Allow() {
		return
	}

	correlationID := uuid.NewString()
	go func() {
		result, err := r.breaker.Execute(func() (interface{}, error) {
			subject := fmt.Sprintf(r.subjectFmt, symbol)
			msg := nats.NewMsg(subject)
			msg.Header.Set("X-Correlation-ID", correlationID)
			reply, err := r.conn.RequestMsg(msg, 5*time.Second)
			if err != nil {
				return nil, err
			}
			return reply.Data, nil
		})
		if err != nil {
			r.log.Warn("snapshot request failed",
				zap.String("symbol", symbol),
				zap.String("correlation_id", correlationID),
				zap.Error(err))
			return
		}

		r.log.Info("snapshot request succeeded",
			zap.String("symbol", symbol),
			zap.String("correlation_id", correlationID))
		r.onSnapshot(symbol, result.([]byte))
	}()
}
