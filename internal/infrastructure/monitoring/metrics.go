package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/resilience"
)

const namespace = "labmat"

// Metrics holds all Prometheus metrics on a private registry, so several
// instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Execution metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RunsRejected *prometheus.CounterVec
	BreakerState prometheus.Gauge

	// Session metrics
	Notifications *prometheus.CounterVec
	Dismissals    *prometheus.CounterVec

	// Catalog metrics
	CatalogPracticals prometheus.Gauge
	CatalogTopics     prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds running totals for the JSON health endpoint.
type Snapshot struct {
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	Runs          int64   `json:"runs"`
	RunFailures   int64   `json:"runFailures"`
	Rejections    int64   `json:"rejections"`
	WSConnections int64   `json:"wsConnections"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// NewMetrics creates a collector with its own registry, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed execution round trips by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Execution round trip duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		RunsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_rejected_total",
				Help:      "Runs refused before contacting the executor",
			},
			[]string{"reason"},
		),
		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "executor_breaker_state",
				Help:      "Executor circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),

		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "User-visible notifications by level",
			},
			[]string{"level"},
		),
		Dismissals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overlay_dismissals_total",
				Help:      "Escape dismissals by closed surface",
			},
			[]string{"surface"},
		),

		CatalogPracticals: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_practicals",
				Help:      "Number of practicals in the loaded catalog",
			},
		),
		CatalogTopics: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_tutor_topics",
				Help:      "Number of tutor topics in the loaded catalog",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.Requests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.Errors++
	}
	m.mu.Unlock()
}

// RunCompleted implements execution.Recorder.
func (m *Metrics) RunCompleted(kind execution.Kind, d time.Duration) {
	m.RunsTotal.WithLabelValues(kind.String()).Inc()
	m.RunDuration.WithLabelValues(kind.String()).Observe(d.Seconds())

	m.mu.Lock()
	m.snapshot.Runs++
	if kind.Failed() {
		m.snapshot.RunFailures++
	}
	m.mu.Unlock()
}

// RunRejected implements execution.Recorder.
func (m *Metrics) RunRejected(reason string) {
	m.RunsRejected.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.snapshot.Rejections++
	m.mu.Unlock()
}

// ObserveBreaker tracks executor breaker transitions.
func (m *Metrics) ObserveBreaker(_ string, _, to resilience.State) {
	m.BreakerState.Set(float64(to))
}

// RecordNotification counts a notification by level.
func (m *Metrics) RecordNotification(level string) {
	m.Notifications.WithLabelValues(level).Inc()
}

// RecordDismissal counts an Escape dismissal.
func (m *Metrics) RecordDismissal(surface string) {
	m.Dismissals.WithLabelValues(surface).Inc()
}

// SetCatalog records catalog sizes.
func (m *Metrics) SetCatalog(practicals, topics int) {
	m.CatalogPracticals.Set(float64(practicals))
	m.CatalogTopics.Set(float64(topics))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}

// Snapshot returns the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
