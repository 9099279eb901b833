// Package metrics provides Prometheus metrics for the ERP metrics bridge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the bridge service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// ERP Client Metrics - upstream platform health
	erpRequests        *prometheus.CounterVec
	erpRequestDuration *prometheus.HistogramVec
	erpPagesFetched    prometheus.Counter
	erpRowsFetched     prometheus.Counter
	erpSignFailures    prometheus.Counter

	// Aggregation Metrics - the business of this service
	aggregationRuns     *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	degradedFetches     *prometheus.CounterVec
	actionItems         *prometheus.GaugeVec

	// Snapshot Metrics - read-side cache behavior
	snapshotHits    prometheus.Counter
	snapshotMisses  prometheus.Counter
	snapshotEntries prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "erpm",
		subsystem:        "bridge",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// ERP Client Metrics - upstream platform health
	m.erpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "erp_requests_total",
			Help:      "Total number of signed ERP requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.erpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "erp_request_duration_milliseconds",
			Help:      "ERP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method"},
	)

	m.erpPagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "erp_pages_fetched_total",
		Help:      "Total number of result pages pulled through the paginated query client",
	})

	m.erpRowsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "erp_rows_fetched_total",
		Help:      "Total number of result rows pulled through the paginated query client",
	})

	m.erpSignFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "erp_sign_failures_total",
		Help:      "Total number of requests rejected before dispatch due to signing failures",
	})

	// Aggregation Metrics - dashboard computation health
	m.aggregationRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "aggregation_runs_total",
			Help:      "Total number of aggregation runs by dashboard and outcome",
		},
		[]string{"dashboard", "outcome"},
	)

	m.aggregationDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "aggregation_duration_milliseconds",
			Help:      "End-to-end aggregation duration in milliseconds by dashboard",
			Buckets:   m.histogramBuckets,
		},
		[]string{"dashboard"},
	)

	m.degradedFetches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "degraded_fetches_total",
			Help:      "Total number of optional fetches degraded to an empty result set",
		},
		[]string{"fetch"},
	)

	m.actionItems = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "action_items",
			Help:      "Action items emitted by the last inventory aggregation, by severity",
		},
		[]string{"severity"},
	)

	// Snapshot Metrics - read-side cache behavior
	m.snapshotHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_hits_total",
		Help:      "Total number of dashboard reads served from the snapshot store",
	})

	m.snapshotMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_misses_total",
		Help:      "Total number of dashboard reads that required recomputation",
	})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_entries",
		Help:      "Current number of entries in the snapshot store",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics
	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of failed operations in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordERPRequest records a completed ERP request.
func RecordERPRequest(endpoint, method, statusCode string) {
	globalManager.erpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordERPRequestDuration records ERP request duration in milliseconds.
func RecordERPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.erpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// RecordERPPage records one fetched result page and its row count.
func RecordERPPage(rows int) {
	globalManager.erpPagesFetched.Inc()
	globalManager.erpRowsFetched.Add(float64(rows))
}

// RecordERPSignFailure increments the signing failure counter.
func RecordERPSignFailure() {
	globalManager.erpSignFailures.Inc()
}

// RecordAggregationRun records an aggregation run outcome ("ok" or "error").
func RecordAggregationRun(dashboard, outcome string) {
	globalManager.aggregationRuns.WithLabelValues(dashboard, outcome).Inc()
}

// RecordAggregationDuration records aggregation duration in milliseconds.
func RecordAggregationDuration(dashboard string, durationMs float64) {
	globalManager.aggregationDuration.WithLabelValues(dashboard).Observe(durationMs)
}

// RecordDegradedFetch counts an optional fetch that degraded to empty.
func RecordDegradedFetch(fetch string) {
	globalManager.degradedFetches.WithLabelValues(fetch).Inc()
}

// UpdateActionItems sets the action item gauge for a severity.
func UpdateActionItems(severity string, count int) {
	globalManager.actionItems.WithLabelValues(severity).Set(float64(count))
}

// RecordSnapshotHit counts a dashboard read served from the snapshot store.
func RecordSnapshotHit() {
	globalManager.snapshotHits.Inc()
}

// RecordSnapshotMiss counts a dashboard read that required recomputation.
func RecordSnapshotMiss() {
	globalManager.snapshotMisses.Inc()
}

// UpdateSnapshotEntries sets the current snapshot store size.
func UpdateSnapshotEntries(count int) {
	globalManager.snapshotEntries.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
