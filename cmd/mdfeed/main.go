// Command mdfeed runs one market-data feed pipeline per configured
// symbol: decode, gap-detect, and recovery-gate updates into an order
// book, and export operational metrics. Per-symbol book summaries can
// be collected with feedRunner.nbboSummaries; this command does not
// reduce them with nbbo.Best.
package main

import (
	"context"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quantrail/mdcore/internal/nbbo"
	"github.com/quantrail/mdcore/internal/stats"
)

func main() {
	cfg := loadConfig()

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newNATSConn,
			stats.NewRegistry,
			newHTTPServer,
		),
		fx.Invoke(runFeed),
	)
	app.Run()
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConn(cfg Config, log *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("mdfeed"))
	if err != nil {
		return nil, err
	}
	log.Info("connected to NATS", zap.String("url", cfg.NATSURL))
	return conn, nil
}

func newHTTPServer(cfg Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
}

// feedRunner holds every symbol's pipeline and record channel. The
// shared collaborators (transport, dispatcher, snapshot requester,
// diagnostics exporter) are local to runFeed, not fields here.
type feedRunner struct {
	pipelines map[string]*pipeline
	channels  map[string]chan []byte
}

func (f *feedRunner) nbboSummaries() []nbbo.BookSummary {
	out := make([]nbbo.BookSummary, 0, len(f.pipelines))
	for _, p := range f.pipelines {
		out = append(out, p.Summary())
	}
	return out
}

func (f *feedRunner) statsReports() []stats.Report {
	out := make([]stats.Report, 0, len(f.pipelines))
	for _, p := range f.pipelines {
		out = append(out, p.stats.Snapshot())
	}
	return out
}

func runFeed(lc fx.Lifecycle, cfg Config, log *zap.Logger, conn *nats.Conn, registry *stats.Registry, httpServer *http.Server) {
	if len(cfg.Symbols) == 0 {
		log.Fatal("no symbols configured")
		return
	}

	pool, err := newDispatcher(len(cfg.Symbols), log)
	if err != nil {
		log.Fatal("failed to create dispatcher", zap.Error(err))
		return
	}

	runner := &feedRunner{
		pipelines: make(map[string]*pipeline, len(cfg.Symbols)),
		channels:  make(map[string]chan []byte, len(cfg.Symbols)),
	}

	onSnapshot := func(symbol string, payload []byte) {
		if ch, ok := runner.channels[symbol]; ok {
			ch <- payload
		}
	}
	requester := newSnapshotRequester(log, conn, cfg.SnapshotSubjectFmt, cfg.SnapshotRateLimit, onSnapshot)

	tr := newTransport(conn, log)
	for _, symbol := range cfg.Symbols {
		ch := make(chan []byte, 1024)
		p := newPipeline(symbol, log, registry.For(symbol), requester)
		runner.pipelines[symbol] = p
		runner.channels[symbol] = ch

		if err := tr.Subscribe(symbol, ch); err != nil {
			log.Fatal("failed to subscribe", zap.String("symbol", symbol), zap.Error(err))
			return
		}
		pool.RunSymbolLoop(ch, p.HandleRecord)
	}

	diag, err := newDiagnosticsExporter(log, cfg.DiagnosticsInterval, runner.statsReports, func(compressed []byte) {
		log.Debug("diagnostics ready for export", zap.Int("bytes", len(compressed)))
	})
	if err != nil {
		log.Fatal("failed to create diagnostics exporter", zap.Error(err))
		return
	}
	stop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go diag.Run(stop)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("metrics server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			tr.Close()
			pool.Release()
			for _, ch := range runner.channels {
				close(ch)
			}
			_ = conn.Drain()
			return httpServer.Shutdown(ctx)
		},
	})
}
