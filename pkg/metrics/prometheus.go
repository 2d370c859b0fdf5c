// Package metrics provides Prometheus metrics for the pet emotion analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider attempt outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeNoSignal  = "no_signal"
	OutcomeSkipped   = "skipped"
	OutcomeTimeout   = "timeout"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline metrics
	providerAttempts *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	fallbacks        prometheus.Counter
	invalidImages    prometheus.Counter

	// Persistence metrics
	storageLatency    *prometheus.HistogramVec
	storageErrors     *prometheus.CounterVec
	idempotentReplays prometheus.Counter
	historyRecords    prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Event queue and worker metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	eventsPublished         prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "petemotion",
		subsystem:        "analyzer",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		}, labels)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	histogramVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
			Buckets: m.histogramBuckets, ConstLabels: constLabels,
		}, labels)
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
			Buckets: m.histogramBuckets, ConstLabels: constLabels,
		})
	}

	m.providerAttempts = counterVec("provider_attempts_total", "Provider attempts by provider and outcome", "provider", "outcome")
	m.providerLatency = histogramVec("provider_latency_milliseconds", "Latency of provider attempts in milliseconds", "provider", "outcome")
	m.analyses = counterVec("analyses_total", "Completed emotion analyses by the provider that produced the scores", "provider")
	m.fallbacks = counter("fallback_total", "Number of analyses resolved by the local fallback generator")
	m.invalidImages = counter("invalid_images_total", "Requests rejected because the image payload could not be decoded")

	m.storageLatency = histogramVec("storage_latency_milliseconds", "Latency of storage and database operations", "operation")
	m.storageErrors = counterVec("storage_errors_total", "Storage and database failures", "operation")
	m.idempotentReplays = counter("idempotent_replays_total", "Requests answered from the idempotency store")
	m.historyRecords = gauge("history_records", "Number of emotion history records known to the repository")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = gauge("event_queue_size", "Current number of analysis events waiting for delivery")
	m.queueCapacity = gauge("event_queue_capacity", "Maximum capacity of the analysis event queue")
	m.queueEnqueued = counter("event_queue_enqueued_total", "Analysis events accepted by the queue")
	m.queueDequeued = counter("event_queue_dequeued_total", "Analysis events handed to workers")
	m.queueEnqueueErrors = counter("event_queue_enqueue_errors_total", "Analysis events dropped on enqueue")
	m.workerCount = gauge("event_worker_count", "Number of event delivery workers")
	m.workerProcessingLatency = histogram("event_worker_latency_milliseconds", "Event delivery latency in milliseconds")
	m.workerErrors = counter("event_worker_errors_total", "Event delivery failures")
	m.eventsPublished = counter("events_published_total", "Analysis events delivered to the publisher")

	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = gauge("system_memory_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")
}

// Pipeline Metrics Functions.

// RecordProviderAttempt records the outcome and latency of one provider attempt.
func RecordProviderAttempt(provider, outcome string, latencyMs float64) {
	globalManager.providerAttempts.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		globalManager.providerLatency.WithLabelValues(provider, outcome).Observe(latencyMs)
	}
}

// RecordAnalysis increments the completed analyses counter for a provider.
func RecordAnalysis(provider string) {
	globalManager.analyses.WithLabelValues(provider).Inc()
}

// RecordFallback increments the fallback counter.
func RecordFallback() {
	globalManager.fallbacks.Inc()
}

// RecordInvalidImage increments the invalid image counter.
func RecordInvalidImage() {
	globalManager.invalidImages.Inc()
}

// Persistence Metrics Functions.

// RecordStorageLatency records the latency of a storage operation (upload, insert, get).
func RecordStorageLatency(operation string, latencyMs float64) {
	globalManager.storageLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStorageError increments the storage error counter for an operation.
func RecordStorageError(operation string) {
	globalManager.storageErrors.WithLabelValues(operation).Inc()
}

// RecordIdempotentReplay increments the idempotent replay counter.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// UpdateHistoryRecords sets the number of history records.
func UpdateHistoryRecords(count int) {
	globalManager.historyRecords.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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

// Worker Metrics Functions.

// UpdateWorkerCount sets the number of event workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordEventPublished increments the published events counter.
func RecordEventPublished() {
	globalManager.eventsPublished.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
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
