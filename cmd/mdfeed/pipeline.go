package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/quantrail/mdcore/internal/book"
	"github.com/quantrail/mdcore/internal/decoder"
	"github.com/quantrail/mdcore/internal/gapdetector"
	"github.com/quantrail/mdcore/internal/nbbo"
	"github.com/quantrail/mdcore/internal/protocol"
	"github.com/quantrail/mdcore/internal/recovery"
	"github.com/quantrail/mdcore/internal/stats"
)

// pipeline is one symbol's straight-line decode -> gap-detect ->
// recovery-gated-book-apply flow. It is only ever
// touched from the goroutine the worker pool assigns it to; there is
// no synchronization inside it.
type pipeline struct {
	symbol    string
	log       *zap.Logger
	gaps      gapdetector.Detector
	recovery  *recovery.Manager
	stats     *stats.Stats
	requester *snapshotRequester
}

func newPipeline(symbol string, log *zap.Logger, st *stats.Stats, req *snapshotRequester) *pipeline {
	return &pipeline{
		symbol:    symbol,
		log:       log.With(zap.String("symbol", symbol)),
		recovery:  recovery.NewManager(book.New(st)),
		stats:     st,
		requester: req,
	}
}

// HandleRecord decodes and applies a single wire record. It never
// blocks: a detected gap triggers an asynchronous snapshot request
// rather than waiting on one inline.
func (p *pipeline) HandleRecord(buf []byte) {
	start := time.Now()
	view, _, err := decoder.Decode(buf)
	p.stats.ObserveDecodeLatency(time.Since(start))
	if err != nil {
		p.log.Warn("decode failed", zap.Error(err))
		return
	}

	if view.MessageType() == protocol.MessageTypeSnapshot {
		p.recovery.ApplySnapshot(view.Snapshot(), view.Sequence())
		p.gaps.Reset()
		p.log.Info("applied snapshot", zap.Uint32("sequence", view.Sequence()))
		return
	}

	gapsBefore := p.gaps.TotalGaps()
	p.gaps.Process(view.Sequence())
	if p.gaps.TotalGaps() > gapsBefore {
		p.stats.ObserveGap()
	}
	if p.gaps.TotalGaps() > 0 {
		p.recovery.MarkGap()
	}

	updateStart := time.Now()
	err = p.recovery.ApplyUpdate(view)
	p.stats.ObserveBookUpdateLatency(time.Since(updateStart))

	if p.recovery.NeedsRecovery() {
		p.requester.requestAsync(p.symbol)
		return
	}
	if err != nil {
		p.log.Warn("book apply failed", zap.Error(err))
	}
}

// Summary takes a point-in-time copy of the pipeline's book state,
// safe to hand to a reader on another goroutine.
func (p *pipeline) Summary() nbbo.BookSummary {
	b := p.recovery.Book()
	out := nbbo.BookSummary{Symbol: p.symbol}
	if price, qty, ok := b.BestBid(); ok {
		out.BidPrice, out.BidQuantity, out.HasBid = price, qty, true
	}
	if price, qty, ok := b.BestAsk(); ok {
		out.AskPrice, out.AskQuantity, out.HasAsk = price, qty, true
	}
	return out
}
