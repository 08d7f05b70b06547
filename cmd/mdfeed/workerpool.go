package main

import (
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// dispatcher owns a single goroutine pool sized to the configured
// symbol count: parallelism here is strictly between independent
// symbol pipelines, never within one.
type dispatcher struct {
	pool *ants.Pool
	log  *zap.Logger
}

func newDispatcher(size int, log *zap.Logger) (*dispatcher, error) {
	pool, err := ants.NewPool(size,
		ants.WithExpiryDuration(10*time.Minute),
		ants.WithPreAlloc(true),
		ants.WithMaxBlockingTasks(1000),
		ants.WithPanicHandler(func(i interface{}) {
			log.Error("dispatcher task panicked", zap.Any("panic", i))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &dispatcher{pool: pool, log: log}, nil
}

// RunSymbolLoop occupies one pool slot for the lifetime of the
// process, draining records for a single symbol in arrival order and
// handing each to handle. One call per configured symbol keeps every
// symbol's pipeline touched from exactly one goroutine, so its state
// never needs internal synchronization.
func (d *dispatcher) RunSymbolLoop(records <-chan []byte, handle func([]byte)) {
	err := d.pool.Submit(func() {
		for buf := range records {
			handle(buf)
		}
	})
	if err != nil {
		d.log.Error("failed to start symbol loop", zap.Error(err))
	}
}

func (d *dispatcher) Release() {
	d.pool.Release()
}
