// Package metrics provides Prometheus metrics for the drainwatch batch and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeDropped  = "dropped"
)

// Manager manages all Prometheus metrics for drainwatch.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline metrics
	ingestRecords     *prometheus.CounterVec
	eventsDetected    prometheus.Counter
	eventsSignificant prometheus.Counter
	ticketStatus      *prometheus.CounterVec
	vesselTaskLatency prometheus.Histogram
	vesselsProcessed  prometheus.Counter
	vesselsSkipped    prometheus.Counter
	runsTotal         prometheus.Counter
	runDuration       prometheus.Histogram

	// Queue and worker metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerActiveCount  prometheus.Gauge
	workerErrorRate    prometheus.Counter

	// Fleet KPIs from the latest run
	kpiUnaccounted    prometheus.Gauge
	kpiSuspiciousDays prometheus.Gauge
	kpiTotalDays      prometheus.Gauge
	kpiSuspiciousRate prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
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
		namespace:        "drainwatch",
		subsystem:        "batch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.ingestRecords = auto.NewCounterVec(
		m.counterOpts("ingest_records_total", "Input records by source and outcome"),
		[]string{"source", "outcome"},
	)
	m.eventsDetected = auto.NewCounter(m.counterOpts("drain_events_total", "Drain events detected"))
	m.eventsSignificant = auto.NewCounter(m.counterOpts("drain_events_significant_total", "Drain events at or above the significance threshold"))
	m.ticketStatus = auto.NewCounterVec(
		m.counterOpts("ticket_status_total", "Reconciled tickets by status"),
		[]string{"status"},
	)
	m.vesselTaskLatency = auto.NewHistogram(m.histogramOpts("vessel_task_latency_milliseconds", "Per-vessel detect and reconcile latency in milliseconds"))
	m.vesselsProcessed = auto.NewCounter(m.counterOpts("vessels_processed_total", "Vessels whose task completed"))
	m.vesselsSkipped = auto.NewCounter(m.counterOpts("vessels_skipped_total", "Vessels not processed because the run was cancelled"))
	m.runsTotal = auto.NewCounter(m.counterOpts("runs_total", "Batch runs completed"))
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds", "Batch run duration in milliseconds"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued vessel tasks"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of tasks enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of tasks dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently running a task"))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker task errors"))

	m.kpiUnaccounted = auto.NewGauge(m.gaugeOpts("kpi_total_unaccounted", "Sum of absolute daily mismatch in the latest run"))
	m.kpiSuspiciousDays = auto.NewGauge(m.gaugeOpts("kpi_suspicious_days", "Vessel-days with a non-zero mismatch in the latest run"))
	m.kpiTotalDays = auto.NewGauge(m.gaugeOpts("kpi_total_days", "Vessel-days in the latest run"))
	m.kpiSuspiciousRate = auto.NewGauge(m.gaugeOpts("kpi_suspicious_day_rate", "Share of suspicious vessel-days in the latest run"))

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   "http",
			Name:        "request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			ConstLabels: m.constLabels,
			Buckets:     m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
}

// RecordIngest adds accepted and dropped record counts for a source.
func RecordIngest(source string, accepted, dropped int) {
	globalManager.ingestRecords.WithLabelValues(source, OutcomeAccepted).Add(float64(accepted))
	globalManager.ingestRecords.WithLabelValues(source, OutcomeDropped).Add(float64(dropped))
}

// RecordDrainEvents adds detected and significant event counts.
func RecordDrainEvents(detected, significant int) {
	globalManager.eventsDetected.Add(float64(detected))
	globalManager.eventsSignificant.Add(float64(significant))
}

// RecordTicketStatus increments the counter for a ticket status.
func RecordTicketStatus(status string) {
	globalManager.ticketStatus.WithLabelValues(status).Inc()
}

// RecordVesselTaskLatency records per-vessel task latency in milliseconds.
func RecordVesselTaskLatency(latencyMs float64) {
	globalManager.vesselTaskLatency.Observe(latencyMs)
}

// RecordVesselProcessed increments the processed vessel counter.
func RecordVesselProcessed() {
	globalManager.vesselsProcessed.Inc()
}

// RecordVesselsSkipped adds to the skipped vessel counter.
func RecordVesselsSkipped(n int) {
	globalManager.vesselsSkipped.Add(float64(n))
}

// RecordRun records a completed batch run and its duration in milliseconds.
func RecordRun(durationMs float64) {
	globalManager.runsTotal.Inc()
	globalManager.runDuration.Observe(durationMs)
}

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
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// IncWorkerActive marks a worker as busy.
func IncWorkerActive() {
	globalManager.workerActiveCount.Inc()
}

// DecWorkerActive marks a worker as idle.
func DecWorkerActive() {
	globalManager.workerActiveCount.Dec()
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// UpdateKPIs publishes the fleet KPIs of the latest run.
func UpdateKPIs(totalUnaccounted float64, suspiciousDays, totalDays int, suspiciousRate float64) {
	globalManager.kpiUnaccounted.Set(totalUnaccounted)
	globalManager.kpiSuspiciousDays.Set(float64(suspiciousDays))
	globalManager.kpiTotalDays.Set(float64(totalDays))
	globalManager.kpiSuspiciousRate.Set(suspiciousRate)
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
