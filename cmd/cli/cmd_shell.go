package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/shell"
	"github.com/pcidash/pcidash/pkg/telemetry"
	"github.com/pcidash/pcidash/pkg/ui"
)

// runShell starts the interactive dashboard loop.
func runShell() {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	width := fs.Int("width", cfg.Width, "Render width in columns (0 = detect)")
	exportDir := fs.String("export-dir", cfg.ExportDir, "Directory receiving findings exports")
	otelEndpoint := fs.String("otel-endpoint", envOrDefault("PCIDASH_OTEL_ENDPOINT", ""), "OTLP collector endpoint, e.g. localhost:4317 (empty = tracing off)")
	otelInsecure := fs.Bool("otel-insecure", true, "Use a plaintext OTLP connection")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash shell [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Start the interactive dashboard. All four views are reachable as\n")
		fmt.Fprintf(os.Stderr, "commands; filters persist across views until cleared.\n\n")
		fmt.Fprintf(os.Stderr, "Commands inside the shell:\n")
		fmt.Fprintf(os.Stderr, "  summary, req <id>, findings, trend, filter, expr, clear,\n")
		fmt.Fprintf(os.Stderr, "  export [path], reload, help, quit\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_DATA_DIR        Data directory (same as -data)\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_OTEL_ENDPOINT   OTLP endpoint (same as -otel-endpoint)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash shell -demo\n")
		fmt.Fprintf(os.Stderr, "  pcidash shell -data ./data -export-dir ./exports\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	df.Apply()
	ds := mustLoad(&df)

	tracer := newTracer(*otelEndpoint, *otelInsecure)
	defer tracer.Close()

	if !ui.IsSilent() {
		ui.PrintMiniBanner()
		ui.DataSetCard(df.Source(), ds.Snapshot.SnapshotDate.String(),
			len(ds.Catalog.Requirements), len(ds.Snapshot.Controls),
			len(ds.Findings), len(ds.History.Points)).Print()
		fmt.Println()
	}

	tracer.StartSession(context.Background(), "shell", ds)

	sh := shell.New(ds, shell.Options{
		Width:     *width,
		Reload:    df.Reloader(),
		ExportDir: *exportDir,
		Tracer:    tracer,
	})
	err := sh.Run()
	tracer.EndSession(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitInternalError)
	}
}

// newTracer builds the optional session tracer. Telemetry problems are
// reported and ignored; the dashboard never waits on a collector.
func newTracer(endpoint string, insecure bool) *telemetry.Tracer {
	tracer, err := telemetry.New(telemetry.Options{
		Endpoint: endpoint,
		Insecure: insecure,
	})
	if err != nil {
		ui.PrintWarning(fmt.Sprintf("Telemetry disabled: %v", err))
		return nil
	}
	return tracer
}
