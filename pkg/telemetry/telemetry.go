// Package telemetry exports optional OTLP traces around dashboard sessions:
// one root span per session or reload cycle, with span events per view
// render and export. Tracing is disabled entirely when no endpoint is
// configured, and a failure here never affects rendering.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Options configures the trace exporter.
type Options struct {
	// Endpoint is the OTLP collector endpoint (e.g. "localhost:4317").
	// Empty disables tracing; New returns a nil Tracer.
	Endpoint string

	// ServiceName for the trace resource (default: defaults.ToolName).
	ServiceName string

	// Insecure uses a plaintext connection (no TLS).
	Insecure bool

	// Headers adds headers to every OTLP export request.
	Headers map[string]string

	// ShutdownTimeout bounds the final flush (default: defaults.OTLPShutdownTimeout).
	ShutdownTimeout time.Duration

	// ConnectTimeout bounds exporter setup (default: defaults.OTLPConnectTimeout).
	ConnectTimeout time.Duration
}

// Tracer records dashboard activity as spans. Every method is safe on a
// nil Tracer, which is what New returns when tracing is disabled, so
// callers never branch on whether telemetry is on.
type Tracer struct {
	opts     Options
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer

	mu      sync.Mutex
	span    trace.Span
	ctx     context.Context
	errored bool
	closed  bool
}

// New connects an OTLP trace exporter. It returns (nil, nil) when no
// endpoint is configured.
func New(opts Options) (*Tracer, error) {
	if opts.Endpoint == "" {
		return nil, nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaults.OTLPShutdownTimeout
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = defaults.OTLPConnectTimeout
	}

	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "dashboard"),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return newTracer(provider, opts), nil
}

// newTracer builds a Tracer over an existing provider. Split from New so
// tests can substitute an in-memory span processor.
func newTracer(provider *sdktrace.TracerProvider, opts Options) *Tracer {
	return &Tracer{
		opts:     opts,
		provider: provider,
		tracer:   provider.Tracer("pcidash/dashboard"),
	}
}

// StartSession opens the root span for one dashboard session. mode names
// the entry point ("shell", "serve", "cli", "mcp").
func (t *Tracer) StartSession(ctx context.Context, mode string, ds *loader.DataSet) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.span != nil {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.String("session_id", uuid.NewString()),
		attribute.String("mode", mode),
	}, datasetAttributes(ds)...)

	t.ctx, t.span = t.tracer.Start(ctx, "pcidash.session",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.span.AddEvent("session_started")
}

// RecordRender adds a span event for one view render.
func (t *Tracer) RecordRender(view string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.span == nil {
		return
	}
	t.span.AddEvent("view_rendered", trace.WithAttributes(
		attribute.String("view", view),
	))
}

// RecordExport adds a span event for one findings export.
func (t *Tracer) RecordExport(destination string, rows int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.span == nil {
		return
	}
	t.span.AddEvent("findings_exported", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.Int("rows", rows),
	))
}

// RecordReload rotates the cycle span: a successful reload ends the current
// span and opens a fresh one describing the new data set. A failed reload
// marks the current span and keeps it open.
func (t *Tracer) RecordReload(ds *loader.DataSet, err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.span == nil {
		return
	}

	if err != nil {
		t.span.AddEvent("reload_failed", trace.WithAttributes(
			attribute.String("error", err.Error()),
		))
		t.span.SetStatus(codes.Error, "reload failed")
		t.errored = true
		return
	}

	t.endLocked(nil)

	attrs := append([]attribute.KeyValue{
		attribute.String("reload_id", uuid.NewString()),
	}, datasetAttributes(ds)...)

	t.ctx, t.span = t.tracer.Start(t.ctx, "pcidash.reload",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSession closes the active span. A non-nil err marks it failed.
func (t *Tracer) EndSession(err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLocked(err)
}

func (t *Tracer) endLocked(err error) {
	if t.span == nil {
		return
	}
	switch {
	case err != nil:
		t.span.SetStatus(codes.Error, err.Error())
	case !t.errored:
		// The SDK lets Ok override an earlier Error, so a span that saw
		// a failed reload keeps its error status here.
		t.span.SetStatus(codes.Ok, "")
	}
	t.span.End()
	t.span = nil
	t.errored = false
}

// Close ends any active span and flushes pending telemetry.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.endLocked(nil)

	timeout := t.opts.ShutdownTimeout
	if timeout == 0 {
		timeout = defaults.OTLPShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown tracer provider: %w", err)
	}
	return nil
}

// datasetAttributes describes a loaded data set for span attributes.
func datasetAttributes(ds *loader.DataSet) []attribute.KeyValue {
	if ds == nil {
		return nil
	}
	score := aggregate.OverallScore(ds.Snapshot)
	return []attribute.KeyValue{
		attribute.String("dataset.fingerprint", fmt.Sprintf("%016x", ds.Fingerprint)),
		attribute.String("dataset.snapshot_date", ds.Snapshot.SnapshotDate.String()),
		attribute.Int("dataset.requirements", len(ds.Catalog.Requirements)),
		attribute.Int("dataset.controls", len(ds.Snapshot.Controls)),
		attribute.Int("dataset.findings", len(ds.Findings)),
		attribute.Int("dataset.trend_points", len(ds.History.Points)),
		attribute.Float64("dataset.compliance_percent", score.Percentage),
	}
}
