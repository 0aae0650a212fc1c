// Package metrics provides Prometheus metrics for the skinlens client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Vendor analysis can take tens of seconds.
var defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the skinlens client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Vendor API metrics
	vendorRequests        *prometheus.CounterVec
	vendorRequestDuration *prometheus.HistogramVec
	tokenRefreshes        *prometheus.CounterVec

	// Analysis pipeline metrics
	pollAttempts      prometheus.Counter
	pollExhausted     prometheus.Counter
	analysesCompleted prometheus.Counter
	analysesFailed    *prometheus.CounterVec
	analysisLatency   prometheus.Histogram
	mappingMisses     prometheus.Counter
	photosDuplicate   prometheus.Counter
	historySize       prometheus.Gauge

	// Mirror metrics (object storage, document store, stream)
	mirrorOperations *prometheus.CounterVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Local API metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "skinlens",
		subsystem:        "client",
		histogramBuckets: defaultLatencyBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
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
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.vendorRequests = m.counterVec("vendor_requests_total",
		"Total number of vendor API requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.vendorRequestDuration = m.histogramVec("vendor_request_duration_milliseconds",
		"Vendor API request duration in milliseconds", "endpoint", "method")
	m.tokenRefreshes = m.counterVec("token_refreshes_total",
		"Access token refresh attempts by outcome", "outcome")

	m.pollAttempts = m.counter("poll_attempts_total", "Total number of result polling attempts")
	m.pollExhausted = m.counter("poll_exhausted_total", "Polls that hit the attempt or time limit")
	m.analysesCompleted = m.counter("analyses_completed_total", "Photos analyzed and mapped successfully")
	m.analysesFailed = m.counterVec("analyses_failed_total", "Failed photo analyses by error kind", "kind")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "End-to-end analysis latency in milliseconds")
	m.mappingMisses = m.counter("mapping_misses_total", "Analyses whose results mapped to no known metric")
	m.photosDuplicate = m.counter("photos_duplicate_total", "Photos skipped because identical content was already analyzed")
	m.historySize = m.gauge("history_size", "Number of photo records in local history")

	m.mirrorOperations = m.counterVec("mirror_operations_total",
		"Mirror writes by target and outcome", "target", "outcome")

	m.queueSize = m.gauge("queue_size", "Current size of the batch queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the batch queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Batch queue utilization ratio (0.0 to 1.0)")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of photos enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of photos dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue failures")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Time spent in queue operations in milliseconds")

	m.workerCount = m.gauge("worker_count", "Configured number of batch workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently analyzing a photo")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker processing errors")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of local API requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"Local API request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
}

// Vendor API Functions.

// RecordVendorRequest records one vendor call and its latency.
func RecordVendorRequest(endpoint, method, statusCode string, latencyMs float64) {
	globalManager.vendorRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.vendorRequestDuration.WithLabelValues(endpoint, method).Observe(latencyMs)
}

// RecordTokenRefresh records a refresh attempt; outcome is "success", "failure" or "shared".
func RecordTokenRefresh(outcome string) {
	globalManager.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// Analysis Functions.

// RecordPollAttempt increments the polling attempts counter.
func RecordPollAttempt() {
	globalManager.pollAttempts.Inc()
}

// RecordPollExhausted increments the exhausted polls counter.
func RecordPollExhausted() {
	globalManager.pollExhausted.Inc()
}

// RecordAnalysisCompleted records a successful analysis and its latency.
func RecordAnalysisCompleted(latencyMs float64) {
	globalManager.analysesCompleted.Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordAnalysisFailed records a failed analysis by error kind.
func RecordAnalysisFailed(kind string) {
	globalManager.analysesFailed.WithLabelValues(kind).Inc()
}

// RecordMappingMiss increments the mapping misses counter.
func RecordMappingMiss() {
	globalManager.mappingMisses.Inc()
}

// RecordPhotoDuplicate increments the duplicate photos counter.
func RecordPhotoDuplicate() {
	globalManager.photosDuplicate.Inc()
}

// UpdateHistorySize sets the number of records in local history.
func UpdateHistorySize(count int) {
	globalManager.historySize.Set(float64(count))
}

// RecordMirror records a mirror write; target is "storage", "docstore" or "stream".
func RecordMirror(target, outcome string) {
	globalManager.mirrorOperations.WithLabelValues(target, outcome).Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Functions.

// RecordHTTPRequest records a local API request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records local API request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Init rebuilds the global collectors on a fresh registry with opts. Call it
// once at startup before anything records a metric.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
