// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Collector metrics
	RecordsWritten  *prometheus.CounterVec
	FeedReconnects  *prometheus.CounterVec
	FeedMessages    *prometheus.CounterVec
	CollectorErrors *prometheus.CounterVec

	// Window building metrics
	WindowsBuilt     prometheus.Counter
	WindowsDiscarded prometheus.Counter
	ScanWarnings     *prometheus.CounterVec

	// Pattern metrics
	WindowsEvaluated prometheus.Counter
	PatternHits      *prometheus.CounterVec

	// Cache metrics
	DayCacheHits    prometheus.Counter
	DayCacheMisses  prometheus.Counter
	StoreRecordsHit prometheus.Counter
	StoreWrites     prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "updown_lab"
	}

	return &Metrics{
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "records_written_total",
			Help:      "Total number of log records appended by kind",
		}, []string{"kind"}),
		FeedReconnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "feed_reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}, []string{"feed"}),
		FeedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "feed_messages_total",
			Help:      "Total number of feed messages received",
		}, []string{"feed"}),
		CollectorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "errors_total",
			Help:      "Total number of collector errors by type",
		}, []string{"error_type"}),

		WindowsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "windows",
			Name:      "built_total",
			Help:      "Total number of windows reconstructed from logs",
		}),
		WindowsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "windows",
			Name:      "discarded_total",
			Help:      "Total number of candidate windows discarded for lack of data",
		}),
		ScanWarnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "windows",
			Name:      "scan_warnings_total",
			Help:      "Total number of scan warnings by code",
		}, []string{"code"}),

		WindowsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patterns",
			Name:      "windows_evaluated_total",
			Help:      "Total number of windows run through the pattern evaluator",
		}),
		PatternHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patterns",
			Name:      "hits_total",
			Help:      "Total number of pattern hits by pattern and side",
		}, []string{"pattern", "side"}),

		DayCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "day_hits_total",
			Help:      "Total number of in-memory day cache hits",
		}),
		DayCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "day_misses_total",
			Help:      "Total number of in-memory day cache misses",
		}),
		StoreRecordsHit: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "store_records_reused_total",
			Help:      "Total number of persisted pattern records reused without recomputation",
		}),
		StoreWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "store_writes_total",
			Help:      "Total number of pattern store documents written",
		}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWindowBuilt increments the windows built counter.
func RecordWindowBuilt() {
	DefaultMetrics.WindowsBuilt.Inc()
}

// RecordWindowDiscarded increments the discarded windows counter.
func RecordWindowDiscarded() {
	DefaultMetrics.WindowsDiscarded.Inc()
}

// RecordScanWarnings adds accumulated warning counts by code.
func RecordScanWarnings(counts map[string]int) {
	for code, n := range counts {
		DefaultMetrics.ScanWarnings.WithLabelValues(code).Add(float64(n))
	}
}

// RecordPatternHit increments the pattern hit counter.
func RecordPatternHit(pattern, side string) {
	DefaultMetrics.PatternHits.WithLabelValues(pattern, side).Inc()
}

// RecordWindowEvaluated increments the windows evaluated counter.
func RecordWindowEvaluated() {
	DefaultMetrics.WindowsEvaluated.Inc()
}

// RecordDayCache records a day cache lookup result.
func RecordDayCache(hit bool) {
	if hit {
		DefaultMetrics.DayCacheHits.Inc()
	} else {
		DefaultMetrics.DayCacheMisses.Inc()
	}
}

// RecordStoreReuse increments the persisted-record reuse counter.
func RecordStoreReuse() {
	DefaultMetrics.StoreRecordsHit.Inc()
}

// RecordStoreWrite increments the store write counter.
func RecordStoreWrite() {
	DefaultMetrics.StoreWrites.Inc()
}

// RecordFeedMessage increments the feed message counter.
func RecordFeedMessage(feed string) {
	DefaultMetrics.FeedMessages.WithLabelValues(feed).Inc()
}

// RecordFeedReconnect increments the feed reconnect counter.
func RecordFeedReconnect(feed string) {
	DefaultMetrics.FeedReconnects.WithLabelValues(feed).Inc()
}

// RecordRecordWritten increments the records written counter.
func RecordRecordWritten(kind string) {
	DefaultMetrics.RecordsWritten.WithLabelValues(kind).Inc()
}

// RecordCollectorError records a collector error by type.
func RecordCollectorError(errorType string) {
	DefaultMetrics.CollectorErrors.WithLabelValues(errorType).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(endpoint, status string, seconds float64) {
	DefaultMetrics.RequestDuration.WithLabelValues(endpoint, status).Observe(seconds)
}
