// Package metrics provides Prometheus metrics for the startrack jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the startrack service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets []float64
	runBuckets     []float64
	registry       prometheus.Registerer

	// Job Metrics
	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	lastRunUnix     *prometheus.GaugeVec
	rankedEntities  prometheus.Gauge
	integrityAborts prometheus.Counter

	// Ranking source
	fetchLatency    prometheus.Histogram
	fetchPages      prometheus.Counter
	sourceRateLimit prometheus.Counter

	// Persistence
	chunksCommitted   prometheus.Counter
	chunksFailed      prometheus.Counter
	opsCommitted      *prometheus.CounterVec
	historyLookups    *prometheus.CounterVec
	staleAggregates   prometheus.Counter
	snapshotsArchived prometheus.Counter

	// Events and publishing
	eventsDetected  *prometheus.CounterVec
	postsPublished  prometheus.Counter
	postsFailed     prometheus.Counter
	postsDeleted    prometheus.Counter
	rateLimitHits   prometheus.Counter
	retriesPlanned  prometheus.Counter
	retriesDeduped  prometheus.Counter
	publishLatency  prometheus.Histogram
	cleanupScanned  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "startrack",
		subsystem:      "tracker",
		latencyBuckets: prometheus.DefBuckets,
		runBuckets:     []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of job runs by job and result",
	}, []string{"job", "result"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Duration of job runs in seconds",
		Buckets:   m.runBuckets,
	}, []string{"job"})

	m.lastRunUnix = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last finished run by job",
	}, []string{"job"})

	m.rankedEntities = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranked_entities",
		Help:      "Number of entities in the last accepted ranking",
	})

	m.integrityAborts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "integrity_aborts_total",
		Help:      "Runs aborted because the fetched ranking failed validation",
	})

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_fetch_duration_milliseconds",
		Help:      "Latency of a full ranking fetch in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.fetchPages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_pages_fetched_total",
		Help:      "Pages fetched from the ranking source",
	})

	m.sourceRateLimit = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_rate_limited_total",
		Help:      "Ranking source responses rejected by rate limiting",
	})

	m.chunksCommitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_chunks_committed_total",
		Help:      "Mutation chunks committed successfully",
	})

	m.chunksFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_chunks_failed_total",
		Help:      "Mutation chunks whose commit failed",
	})

	m.opsCommitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_ops_committed_total",
		Help:      "Committed mutations by kind",
	}, []string{"kind"})

	m.historyLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_lookups_total",
		Help:      "Historical point lookups by window and outcome",
	}, []string{"days", "outcome"})

	m.staleAggregates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_aggregates_deleted_total",
		Help:      "Aggregate records removed because their entity left the ranking",
	})

	m.snapshotsArchived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_archived_total",
		Help:      "Snapshots written to cold storage and removed from the store",
	})

	m.eventsDetected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_detected_total",
		Help:      "Events detected by kind",
	}, []string{"kind"})

	m.postsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posts_published_total",
		Help:      "Posts accepted by the publisher",
	})

	m.postsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posts_failed_total",
		Help:      "Posts rejected by the publisher",
	})

	m.postsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posts_deleted_total",
		Help:      "Low engagement posts deleted by the cleanup job",
	})

	m.rateLimitHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "social_rate_limited_total",
		Help:      "Social API calls rejected by rate limiting",
	})

	m.retriesPlanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retries_scheduled_total",
		Help:      "Delayed retry tasks accepted by the scheduler",
	})

	m.retriesDeduped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retries_deduplicated_total",
		Help:      "Delayed retry tasks dropped because an identical task exists",
	})

	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_duration_milliseconds",
		Help:      "Latency of publishing a post in milliseconds",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	m.cleanupScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cleanup_posts_scanned_total",
		Help:      "Posts inspected by the cleanup job",
	})

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
			Buckets:   m.latencyBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and error type",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_milliseconds",
		Help:      "Latency of operations that ended in an error",
		Buckets:   m.latencyBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Job Metrics Functions.

// RecordRun records a finished job run with its result label.
func RecordRun(job, result string, duration time.Duration) {
	globalManager.runsTotal.WithLabelValues(job, result).Inc()
	globalManager.runDuration.WithLabelValues(job).Observe(duration.Seconds())
	globalManager.lastRunUnix.WithLabelValues(job).Set(float64(time.Now().Unix()))
}

// UpdateRankedEntities sets the size of the last accepted ranking.
func UpdateRankedEntities(count int) {
	globalManager.rankedEntities.Set(float64(count))
}

// RecordIntegrityAbort increments the integrity abort counter.
func RecordIntegrityAbort() {
	globalManager.integrityAborts.Inc()
}

// Ranking Source Functions.

// RecordFetchLatency records the latency of a full ranking fetch.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchPage increments the fetched page counter.
func RecordFetchPage() {
	globalManager.fetchPages.Inc()
}

// RecordSourceRateLimited increments the ranking source rate limit counter.
func RecordSourceRateLimited() {
	globalManager.sourceRateLimit.Inc()
}

// Persistence Functions.

// RecordChunkCommitted records a committed chunk and its ops by kind.
func RecordChunkCommitted(opsByKind map[string]int) {
	globalManager.chunksCommitted.Inc()
	for kind, n := range opsByKind {
		globalManager.opsCommitted.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordChunkFailed increments the failed chunk counter.
func RecordChunkFailed() {
	globalManager.chunksFailed.Inc()
}

// RecordHistoryLookup records a historical point lookup outcome (hit, miss, error).
func RecordHistoryLookup(days, outcome string) {
	globalManager.historyLookups.WithLabelValues(days, outcome).Inc()
}

// RecordStaleAggregates adds to the stale aggregate deletion counter.
func RecordStaleAggregates(count int) {
	globalManager.staleAggregates.Add(float64(count))
}

// RecordSnapshotsArchived adds to the archived snapshot counter.
func RecordSnapshotsArchived(count int) {
	globalManager.snapshotsArchived.Add(float64(count))
}

// Event and Publishing Functions.

// RecordEventDetected increments the detected events counter for kind.
func RecordEventDetected(kind string) {
	globalManager.eventsDetected.WithLabelValues(kind).Inc()
}

// RecordPostPublished records a successful publish.
func RecordPostPublished(latencyMs float64) {
	globalManager.postsPublished.Inc()
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPostFailed increments the failed post counter.
func RecordPostFailed() {
	globalManager.postsFailed.Inc()
}

// RecordPostDeleted increments the deleted post counter.
func RecordPostDeleted() {
	globalManager.postsDeleted.Inc()
}

// RecordCleanupScanned adds to the scanned post counter.
func RecordCleanupScanned(count int) {
	globalManager.cleanupScanned.Add(float64(count))
}

// RecordRateLimitHit increments the social rate limit counter.
func RecordRateLimitHit() {
	globalManager.rateLimitHits.Inc()
}

// RecordRetryScheduled increments the scheduled retry counter.
func RecordRetryScheduled() {
	globalManager.retriesPlanned.Inc()
}

// RecordRetryDeduplicated increments the deduplicated retry counter.
func RecordRetryDeduplicated() {
	globalManager.retriesDeduped.Inc()
}

// HTTP Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
