package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is mdfeed's runtime configuration. It is sourced from flags
// and environment variables directly; this tree has no dependency on
// a config file loader (see DESIGN.md for the rationale).
type Config struct {
	NATSURL             string
	Symbols             []string
	SnapshotSubjectFmt  string
	SnapshotRateLimit   float64
	MetricsAddr         string
	DiagnosticsInterval time.Duration
}

func loadConfig() Config {
	natsURL := flag.String("nats-url", envOr("MDFEED_NATS_URL", "nats://127.0.0.1:4222"), "NATS server URL")
	symbols := flag.String("symbols", envOr("MDFEED_SYMBOLS", "BTC-USD"), "comma-separated symbol list")
	snapshotFmt := flag.String("snapshot-subject-fmt", envOr("MDFEED_SNAPSHOT_SUBJECT_FMT", "mdfeed.snapshot.%s"), "NATS request subject format, one %s for symbol")
	snapshotRate := flag.Float64("snapshot-rate-limit", envFloatOr("MDFEED_SNAPSHOT_RATE_LIMIT", 1.0), "max snapshot requests per second, per symbol")
	metricsAddr := flag.String("metrics-addr", envOr("MDFEED_METRICS_ADDR", ":9090"), "address to serve /metrics on")
	diagInterval := flag.Duration("diagnostics-interval", envDurationOr("MDFEED_DIAGNOSTICS_INTERVAL", 30*time.Second), "interval between compressed diagnostic stats exports")
	flag.Parse()

	return Config{
		NATSURL:             *natsURL,
		Symbols:             splitNonEmpty(*symbols, ","),
		SnapshotSubjectFmt:  *snapshotFmt,
		SnapshotRateLimit:   *snapshotRate,
		MetricsAddr:         *metricsAddr,
		DiagnosticsInterval: *diagInterval,
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
