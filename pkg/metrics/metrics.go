// Package metrics runs the serve-mode exporter: a Prometheus registry over
// the current data set plus a small read-only JSON API, with a reload loop
// that re-reads the input files on an interval. A failed reload keeps the
// previous data set; consumers never see a partial load.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Options configures the exporter.
type Options struct {
	// Addr is the listen address (default: defaults.ServeAddr).
	Addr string

	// Interval between input re-reads (default: defaults.ReloadInterval).
	Interval time.Duration

	// Load re-reads the data set from its source. nil disables the
	// reload loop; the initial data set is served forever.
	Load func() (*loader.DataSet, error)

	// RateLimit is the sustained JSON API request rate per second
	// (default: defaults.APIRateLimit). /metrics is never limited.
	RateLimit rate.Limit

	// RateBurst is the JSON API burst size (default: defaults.APIRateBurst).
	RateBurst int

	// Source labels where the data came from, reported by /api/summary.
	Source string
}

// Server exposes one data set over /metrics and /api until its context is
// cancelled.
type Server struct {
	opts     Options
	registry *prometheus.Registry
	server   *http.Server
	limiter  *rate.Limiter

	// Gauges
	compliancePercent prometheus.Gauge
	controlsByStatus  *prometheus.GaugeVec
	requirementStatus *prometheus.GaugeVec
	openBySeverity    *prometheus.GaugeVec
	trendPoints       prometheus.Gauge
	lastReloadUnix    prometheus.Gauge
	datasetInfo       *prometheus.GaugeVec

	// Counters
	reloadsTotal   prometheus.Counter
	reloadFailures prometheus.Counter

	mu sync.RWMutex
	ds *loader.DataSet
}

// New creates a server over ds. Gauges reflect ds immediately; the HTTP
// listener starts in Run.
func New(ds *loader.DataSet, opts Options) (*Server, error) {
	if ds == nil {
		return nil, errors.New("metrics: nil data set")
	}
	if opts.Addr == "" {
		opts.Addr = defaults.ServeAddr
	}
	if opts.Interval <= 0 {
		opts.Interval = defaults.ReloadInterval
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaults.APIRateLimit)
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaults.APIRateBurst
	}
	if opts.Source == "" {
		opts.Source = "files"
	}

	s := &Server{
		opts:     opts,
		registry: prometheus.NewRegistry(),
		limiter:  rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		ds:       ds,
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("metrics: register collectors: %w", err)
	}
	s.observe(ds)
	return s, nil
}

// initMetrics creates and registers all collectors on the private registry.
func (s *Server) initMetrics() error {
	s.compliancePercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcidash_compliance_percent",
		Help: "Overall compliance percentage (passing / graded * 100)",
	})

	s.controlsByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcidash_controls",
		Help: "Number of controls in the snapshot by evaluation status",
	}, []string{"status"})

	s.requirementStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcidash_requirement_status",
		Help: "Per-requirement control state; 1 for the current status",
	}, []string{"requirement", "status"})

	s.openBySeverity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcidash_open_findings",
		Help: "Open findings by severity",
	}, []string{"severity"})

	s.trendPoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcidash_trend_points",
		Help: "Number of points in the trend history",
	})

	s.lastReloadUnix = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcidash_last_reload_timestamp_seconds",
		Help: "Unix time the served data set was loaded",
	})

	s.datasetInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcidash_dataset_info",
		Help: "Fingerprint of the served data set; always 1",
	}, []string{"fingerprint", "source"})

	s.reloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pcidash_reloads_total",
		Help: "Number of reloads that swapped in changed data",
	})

	s.reloadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pcidash_reload_failures_total",
		Help: "Number of reload attempts that failed to load",
	})

	collectors := []prometheus.Collector{
		s.compliancePercent,
		s.controlsByStatus,
		s.requirementStatus,
		s.openBySeverity,
		s.trendPoints,
		s.lastReloadUnix,
		s.datasetInfo,
		s.reloadsTotal,
		s.reloadFailures,
	}
	for _, c := range collectors {
		if err := s.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// observe points every gauge at ds. Called with s.mu held (or before the
// server is reachable).
func (s *Server) observe(ds *loader.DataSet) {
	score := aggregate.OverallScore(ds.Snapshot)
	s.compliancePercent.Set(score.Percentage)
	s.controlsByStatus.WithLabelValues("pass").Set(float64(score.Passing))
	s.controlsByStatus.WithLabelValues("fail").Set(float64(score.Failing))
	s.controlsByStatus.WithLabelValues("unknown").Set(float64(score.Unknown))

	// Reset the labelled vecs so rows from the previous data set cannot
	// linger after a reload changes the label values.
	s.requirementStatus.Reset()
	for _, r := range aggregate.PerRequirementBreakdown(ds.Catalog, ds.Snapshot, ds.Findings) {
		s.requirementStatus.WithLabelValues(r.Requirement.ID, string(r.Status)).Set(1)
	}

	open := aggregate.OpenFindings(ds.Findings)
	for _, c := range aggregate.SeverityBreakdown(open) {
		s.openBySeverity.WithLabelValues(string(c.Severity)).Set(float64(c.Count))
	}

	s.trendPoints.Set(float64(len(ds.History.Points)))

	s.datasetInfo.Reset()
	s.datasetInfo.WithLabelValues(fingerprintHex(ds.Fingerprint), s.opts.Source).Set(1)
	s.lastReloadUnix.Set(float64(ds.LoadedAt.Unix()))
}

// DataSet returns the currently served data set.
func (s *Server) DataSet() *loader.DataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Handler returns the HTTP surface: /metrics plus the JSON API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.Handle("/api/summary", s.api(s.handleSummary))
	mux.Handle("/api/requirements", s.api(s.handleRequirements))
	mux.Handle("/api/findings", s.api(s.handleFindings))
	mux.Handle("/api/trend", s.api(s.handleTrend))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Run serves until ctx is cancelled, reloading the data set on the
// configured interval. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
			defer cancel()
			return s.server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("metrics: server: %w", err)
		case <-ticker.C:
			s.reload()
		}
	}
}

// reload re-reads the data set. A load failure keeps the previous set; an
// unchanged fingerprint skips the swap.
func (s *Server) reload() {
	if s.opts.Load == nil {
		return
	}
	fresh, err := s.opts.Load()
	if err != nil {
		s.reloadFailures.Inc()
		ui.PrintWarning(fmt.Sprintf("reload failed, keeping previous data: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if fresh.Fingerprint == s.ds.Fingerprint {
		return
	}
	s.ds = fresh
	s.observe(fresh)
	s.reloadsTotal.Inc()
	ui.PrintInfo(fmt.Sprintf("data reloaded: %d controls, %d findings, score %.1f%%",
		len(fresh.Snapshot.Controls), len(fresh.Findings),
		aggregate.OverallScore(fresh.Snapshot).Percentage))
}

func fingerprintHex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
