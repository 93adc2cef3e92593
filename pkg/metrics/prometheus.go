// Package metrics provides Prometheus metrics for the rPPG pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Frame ingestion
	framesProcessed prometheus.Counter
	framesDropped   prometheus.Counter
	ingestQueueSize prometheus.Gauge

	// Detection and tracking
	detectionHits   prometheus.Counter
	detectionMisses prometheus.Counter
	rescans         prometheus.Counter
	trackingState   prometheus.Gauge
	trackLost       prometheus.Counter

	// Signal
	samplesAppended prometheus.Counter
	samplesSkipped  prometheus.Counter
	bufferLength    prometheus.Gauge
	discontinuities prometheus.Counter

	// Estimation
	estimatesEmitted  prometheus.Counter
	estimatesSkipped  *prometheus.CounterVec
	rawBpm            prometheus.Gauge
	meanBpm           prometheus.Gauge
	stageLatency      *prometheus.HistogramVec
	estimationLatency prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rppg",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of frames run through the pipeline",
	})

	m.framesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_dropped_total",
		Help:      "Total number of frames dropped at the ingestion boundary",
	})

	m.ingestQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_size",
		Help:      "Current number of frames waiting in the ingestion queue",
	})

	m.detectionHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detection_hits_total",
		Help:      "Total number of detector calls that returned candidates",
	})

	m.detectionMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detection_misses_total",
		Help:      "Total number of detector calls that returned no candidates",
	})

	m.rescans = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescans_total",
		Help:      "Total number of forced full-frame rescans",
	})

	m.trackingState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracking_state",
		Help:      "Current tracker state (0=searching, 1=tracking, 2=lost)",
	})

	m.trackLost = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "track_lost_total",
		Help:      "Total number of transitions into the lost state",
	})

	m.samplesAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_appended_total",
		Help:      "Total number of signal samples appended to the buffer",
	})

	m.samplesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_skipped_total",
		Help:      "Total number of frames that produced no signal sample",
	})

	m.bufferLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signal_buffer_length",
		Help:      "Current number of raw samples held in the signal buffer",
	})

	m.discontinuities = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "discontinuities_total",
		Help:      "Total number of discontinuity markers inserted",
	})

	m.estimatesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "estimates_emitted_total",
		Help:      "Total number of heart-rate estimates emitted to observers",
	})

	m.estimatesSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "estimates_skipped_total",
			Help:      "Total number of estimation ticks skipped by reason",
		},
		[]string{"reason"},
	)

	m.rawBpm = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "raw_bpm",
		Help:      "Most recent raw spectral heart-rate estimate",
	})

	m.meanBpm = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mean_bpm",
		Help:      "Most recent aggregated mean heart-rate estimate",
	})

	m.stageLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_latency_milliseconds",
			Help:      "Per-stage processing latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"stage"},
	)

	m.estimationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "estimation_latency_milliseconds",
		Help:      "Filter plus spectral estimation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

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
}

// RecordFrameProcessed increments the processed frame counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordFrameDropped increments the dropped frame counter.
func RecordFrameDropped() {
	globalManager.framesDropped.Inc()
}

// UpdateIngestQueueSize sets the current ingestion queue size.
func UpdateIngestQueueSize(size int) {
	globalManager.ingestQueueSize.Set(float64(size))
}

// RecordDetectionHit increments the detection hit counter.
func RecordDetectionHit() {
	globalManager.detectionHits.Inc()
}

// RecordDetectionMiss increments the detection miss counter.
func RecordDetectionMiss() {
	globalManager.detectionMisses.Inc()
}

// RecordRescan increments the rescan counter.
func RecordRescan() {
	globalManager.rescans.Inc()
}

// UpdateTrackingState sets the tracker state gauge.
func UpdateTrackingState(state int) {
	globalManager.trackingState.Set(float64(state))
}

// RecordTrackLost increments the lost-track counter.
func RecordTrackLost() {
	globalManager.trackLost.Inc()
}

// RecordSampleAppended increments the appended sample counter.
func RecordSampleAppended() {
	globalManager.samplesAppended.Inc()
}

// RecordSampleSkipped increments the skipped sample counter.
func RecordSampleSkipped() {
	globalManager.samplesSkipped.Inc()
}

// UpdateBufferLength sets the signal buffer length gauge.
func UpdateBufferLength(n int) {
	globalManager.bufferLength.Set(float64(n))
}

// RecordDiscontinuity increments the discontinuity marker counter.
func RecordDiscontinuity() {
	globalManager.discontinuities.Inc()
}

// RecordEstimateEmitted increments the emitted estimate counter.
func RecordEstimateEmitted() {
	globalManager.estimatesEmitted.Inc()
}

// RecordEstimateSkipped increments the skipped estimate counter for a reason.
func RecordEstimateSkipped(reason string) {
	globalManager.estimatesSkipped.WithLabelValues(reason).Inc()
}

// UpdateRawBpm sets the raw bpm gauge.
func UpdateRawBpm(bpm float64) {
	globalManager.rawBpm.Set(bpm)
}

// UpdateMeanBpm sets the aggregated mean bpm gauge.
func UpdateMeanBpm(bpm float64) {
	globalManager.meanBpm.Set(bpm)
}

// RecordStageLatency records per-stage latency in milliseconds.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordEstimationLatency records estimation latency in milliseconds.
func RecordEstimationLatency(latencyMs float64) {
	globalManager.estimationLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(latencyMs)
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
