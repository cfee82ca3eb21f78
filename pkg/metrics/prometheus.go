// Package metrics provides Prometheus metrics for the vidtag annotation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Annotation metrics
	sessionsOpened prometheus.Counter
	eventsAdded    prometheus.Counter
	eventsDeleted  prometheus.Counter
	eventsLoaded   prometheus.Counter
	storeSize      prometheus.Gauge

	// Record file metrics
	saves       *prometheus.CounterVec
	saveLatency prometheus.Histogram
	loadLatency prometheus.Histogram
	loadErrors  *prometheus.CounterVec

	// Viewport metrics
	clicks           *prometheus.CounterVec
	overlaysRendered prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vidtag",
		subsystem:        "annotation",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.sessionsOpened = m.counter("sessions_opened_total", "Total number of videos opened for annotation")
	m.eventsAdded = m.counter("events_added_total", "Total number of events added")
	m.eventsDeleted = m.counter("events_deleted_total", "Total number of events deleted")
	m.eventsLoaded = m.counter("events_loaded_total", "Total number of events read from record files")
	m.storeSize = m.gauge("store_events", "Number of events in the open session")

	m.saves = m.counterVec("record_saves_total", "Record file writes by merge mode", "mode")
	m.saveLatency = m.histogram("record_save_latency_milliseconds", "Record file save latency in milliseconds")
	m.loadLatency = m.histogram("record_load_latency_milliseconds", "Record file load latency in milliseconds")
	m.loadErrors = m.counterVec("record_load_errors_total", "Record file load failures by reason", "reason")

	m.clicks = m.counterVec("clicks_total", "Widget clicks by mapping result", "result")
	m.overlaysRendered = m.counter("overlays_rendered_total", "Total number of overlay frames rendered")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordSessionOpened increments the opened sessions counter.
func RecordSessionOpened() {
	globalManager.sessionsOpened.Inc()
}

// RecordEventAdded increments the added events counter.
func RecordEventAdded() {
	globalManager.eventsAdded.Inc()
}

// RecordEventDeleted increments the deleted events counter.
func RecordEventDeleted() {
	globalManager.eventsDeleted.Inc()
}

// RecordEventsLoaded adds n to the loaded events counter.
func RecordEventsLoaded(n int) {
	globalManager.eventsLoaded.Add(float64(n))
}

// UpdateStoreSize sets the number of events in the open session.
func UpdateStoreSize(n int) {
	globalManager.storeSize.Set(float64(n))
}

// RecordSave counts a record file write for mode.
func RecordSave(mode string) {
	globalManager.saves.WithLabelValues(mode).Inc()
}

// RecordSaveLatency records save latency in milliseconds.
func RecordSaveLatency(latencyMs float64) {
	globalManager.saveLatency.Observe(latencyMs)
}

// RecordLoadLatency records load latency in milliseconds.
func RecordLoadLatency(latencyMs float64) {
	globalManager.loadLatency.Observe(latencyMs)
}

// RecordLoadError counts a failed load by reason.
func RecordLoadError(reason string) {
	globalManager.loadErrors.WithLabelValues(reason).Inc()
}

// RecordClick counts a widget click by whether it mapped onto the frame.
func RecordClick(mapped bool) {
	result := "unmapped"
	if mapped {
		result = "mapped"
	}
	globalManager.clicks.WithLabelValues(result).Inc()
}

// RecordOverlayRendered increments the rendered overlays counter.
func RecordOverlayRendered() {
	globalManager.overlaysRendered.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
