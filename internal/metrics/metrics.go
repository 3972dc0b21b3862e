package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes used as the "outcome" label of ReportsIngested.
const (
	OutcomeOK              = "ok"
	OutcomeParseError      = "parse_error"
	OutcomeFormatError     = "format_error"
	OutcomeProcessingError = "processing_error"
	OutcomeStoreError      = "store_error"
)

var (
	ReportsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_reports_ingested_total",
			Help: "Total number of uploaded reports by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_report_extraction_duration_seconds",
			Help:    "Time spent parsing and normalizing a report",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	AccountsPerReport = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_report_accounts",
			Help:    "Number of credit accounts per normalized report",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	HTTPResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_responses_total",
			Help: "Total number of HTTP responses by status class",
		},
		[]string{"class"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Report cache hits by entry kind",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Report cache misses by entry kind",
		},
		[]string{"kind"},
	)

	LogWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "log_warnings_total",
			Help: "Warnings reported through the logger, counted before sampling",
		},
	)

	LogErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "log_errors_total",
			Help: "Errors reported through the logger, counted before sampling",
		},
	)
)

// StatusClass maps an HTTP status code to its "2xx".."5xx" label.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
