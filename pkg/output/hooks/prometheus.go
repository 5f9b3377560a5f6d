package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes run metrics for Prometheus scraping. With an Addr
// it serves them itself; otherwise callers mount Handler() on their own mux
// (the MCP HTTP transport does this).
type PrometheusHook struct {
	registry *prometheus.Registry
	opts     PrometheusOptions
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger

	runsTotal       *prometheus.CounterVec
	entriesTotal    *prometheus.CounterVec
	matchesTotal    *prometheus.CounterVec
	candidatesTotal *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	lastRunMatches  prometheus.Gauge

	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Addr is the listen address of the metrics server, e.g. ":9090".
	// Empty means no server.
	Addr string

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// Logger receives server errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewPrometheusHook creates the hook and, if opts.Addr is set, starts the
// metrics server. The server runs until Close is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	h := &PrometheusHook{
		registry: prometheus.NewRegistry(),
		opts:     opts,
		logger:   orDefault(opts.Logger),
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if opts.Addr != "" {
		if err := h.startServer(); err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}
	return h, nil
}

func (h *PrometheusHook) initMetrics() error {
	h.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficsieve_runs_total",
			Help: "Filter runs by export mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	h.entriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficsieve_entries_total",
			Help: "Log entries processed, by kind",
		},
		[]string{"kind"},
	)
	h.matchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficsieve_matches_total",
			Help: "Request/response pairs exported",
		},
		[]string{"mode"},
	)
	h.candidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficsieve_json_candidates_total",
			Help: "JSON candidates evaluated, by result",
		},
		[]string{"result"},
	)
	h.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trafficsieve_run_duration_seconds",
			Help:    "Wall time of successful runs",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"mode"},
	)
	h.lastRunMatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trafficsieve_last_run_matches",
		Help: "Matched pairs in the most recent successful run",
	})

	for _, c := range []prometheus.Collector{
		h.runsTotal, h.entriesTotal, h.matchesTotal,
		h.candidatesTotal, h.runDuration, h.lastRunMatches,
	} {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the hook's registry.
func (h *PrometheusHook) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (h *PrometheusHook) startServer() error {
	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, h.Handler())

	h.listener = ln
	h.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
	}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("prometheus: metrics server error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// OnEvent updates metrics from summary and error events.
func (h *PrometheusHook) OnEvent(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.SummaryEvent:
		h.runsTotal.WithLabelValues(e.Mode, "success").Inc()
		h.matchesTotal.WithLabelValues(e.Mode).Add(float64(e.Count))
		h.entriesTotal.WithLabelValues("request").Add(float64(e.Totals.Requests))
		h.entriesTotal.WithLabelValues("response").Add(float64(e.Totals.Responses))
		h.entriesTotal.WithLabelValues("unknown").Add(float64(e.Totals.Unknown))
		h.candidatesTotal.WithLabelValues("valid").Add(float64(e.Totals.Valid - e.Totals.Repaired))
		h.candidatesTotal.WithLabelValues("repaired").Add(float64(e.Totals.Repaired))
		h.candidatesTotal.WithLabelValues("invalid").Add(float64(e.Totals.Candidates - e.Totals.Valid))
		h.runDuration.WithLabelValues(e.Mode).Observe(e.Duration.Seconds())
		h.lastRunMatches.Set(float64(e.Count))
	case *events.ErrorEvent:
		h.runsTotal.WithLabelValues("", e.ErrorType).Inc()
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeSummary, events.EventTypeError}
}

// MetricsURL returns the scrape URL, or "" when no server runs.
func (h *PrometheusHook) MetricsURL() string {
	if h.listener == nil {
		return ""
	}
	return "http://" + h.listener.Addr().String() + h.opts.Path
}

// Close stops the metrics server. Metrics stop updating.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
	defer cancel()
	return h.server.Shutdown(ctx)
}
