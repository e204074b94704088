package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/metrics"
	"github.com/pcidash/pcidash/pkg/telemetry"
	"github.com/pcidash/pcidash/pkg/ui"
	"golang.org/x/time/rate"
)

// runServe starts the read-only metrics exporter: Prometheus gauges on
// /metrics plus a small JSON API mirroring the dashboard aggregates.
func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	addr := fs.String("addr", envOrDefault("PCIDASH_SERVE_ADDR", defaults.ServeAddr), "Listen address")
	interval := fs.Duration("interval", defaults.ReloadInterval, "Data re-read interval")
	rateLimit := fs.Float64("rate", defaults.APIRateLimit, "JSON API sustained requests per second")
	rateBurst := fs.Int("burst", defaults.APIRateBurst, "JSON API burst size")
	otelEndpoint := fs.String("otel-endpoint", envOrDefault("PCIDASH_OTEL_ENDPOINT", ""), "OTLP collector endpoint, e.g. localhost:4317 (empty = tracing off)")
	otelInsecure := fs.Bool("otel-insecure", true, "Use a plaintext OTLP connection")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash serve [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Run the compliance exporter. The process is read-only: it re-reads\n")
		fmt.Fprintf(os.Stderr, "the input files on the interval and keeps the last good data set\n")
		fmt.Fprintf(os.Stderr, "when a reload fails.\n\n")
		fmt.Fprintf(os.Stderr, "Endpoints:\n")
		fmt.Fprintf(os.Stderr, "  /metrics            Prometheus metrics (OpenMetrics enabled)\n")
		fmt.Fprintf(os.Stderr, "  /api/summary        Overall score and open findings\n")
		fmt.Fprintf(os.Stderr, "  /api/requirements   Per-requirement rollup\n")
		fmt.Fprintf(os.Stderr, "  /api/findings       Findings, filterable by query params\n")
		fmt.Fprintf(os.Stderr, "  /api/trend          Score history and events\n")
		fmt.Fprintf(os.Stderr, "  /healthz            Liveness probe\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_DATA_DIR        Data directory (same as -data)\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_SERVE_ADDR      Listen address (same as -addr)\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_OTEL_ENDPOINT   OTLP endpoint (same as -otel-endpoint)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash serve -data /var/lib/pcidash\n")
		fmt.Fprintf(os.Stderr, "  pcidash serve -demo -addr :9105 -interval 30s\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	df.Apply()
	ds := mustLoad(&df)

	tracer := newTracer(*otelEndpoint, *otelInsecure)
	defer tracer.Close()

	load := wrapReload(df.Reloader(), tracer)
	srv, err := metrics.New(ds, metrics.Options{
		Addr:      *addr,
		Interval:  *interval,
		Load:      load,
		RateLimit: rate.Limit(*rateLimit),
		RateBurst: *rateBurst,
		Source:    df.Source(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	reloadLabel := interval.String()
	if load == nil {
		reloadLabel = "disabled (embedded data)"
	}
	if !ui.IsSilent() {
		ui.PrintMiniBanner()
		ui.DataSetCard(df.Source(), ds.Snapshot.SnapshotDate.String(),
			len(ds.Catalog.Requirements), len(ds.Snapshot.Controls),
			len(ds.Findings), len(ds.History.Points)).Print()
		ui.ServeCard(*addr, reloadLabel).Print()
		fmt.Println()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer.StartSession(ctx, "serve", ds)
	err = srv.Run(ctx)
	tracer.EndSession(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitInternalError)
	}
	ui.PrintInfo("server stopped")
}

// wrapReload decorates a reload closure so each cycle lands in the trace.
// A nil closure stays nil; reload stays disabled.
func wrapReload(load func() (*loader.DataSet, error), tracer *telemetry.Tracer) func() (*loader.DataSet, error) {
	if load == nil {
		return nil
	}
	return func() (*loader.DataSet, error) {
		ds, err := load()
		tracer.RecordReload(ds, err)
		return ds, err
	}
}
