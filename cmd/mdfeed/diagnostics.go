package main

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/quantrail/mdcore/internal/stats"
)

// diagnosticsExporter periodically serializes every symbol's
// stats.Report to JSON and compresses the batch with zstd. This is a
// diagnostics sink, not the hot path, so the JSON/zstd cost here never
// touches decode or book-update latency.
type diagnosticsExporter struct {
	log      *zap.Logger
	encoder  *zstd.Encoder
	interval time.Duration
	snapshot func() []stats.Report
	sink     func(compressed []byte)
}

func newDiagnosticsExporter(log *zap.Logger, interval time.Duration, snapshot func() []stats.Report, sink func([]byte)) (*diagnosticsExporter, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &diagnosticsExporter{
		log:      log,
		encoder:  enc,
		interval: interval,
		snapshot: snapshot,
		sink:     sink,
	}, nil
}

// Run exports on a ticker until stop is closed.
func (e *diagnosticsExporter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.exportOnce()
		}
	}
}

func (e *diagnosticsExporter) exportOnce() {
	reports := e.snapshot()
	raw, err := json.Marshal(reports)
	if err != nil {
		e.log.Warn("diagnostics marshal failed", zap.Error(err))
		return
	}

	var buf bytes.Buffer
	compressingWriter := e.encoder
	compressingWriter.Reset(&buf)
	if _, err := compressingWriter.Write(raw); err != nil {
		e.log.Warn("diagnostics compression failed", zap.Error(err))
		return
	}
	if err := compressingWriter.Close(); err != nil {
		e.log.Warn("diagnostics compression close failed", zap.Error(err))
		return
	}

	e.log.Debug("diagnostics export",
		zap.Int("raw_bytes", len(raw)),
		zap.Int("compressed_bytes", buf.Len()),
		zap.Int("symbols", len(reports)))
	e.sink(buf.Bytes())
}
