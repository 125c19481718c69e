// Package metrics provides Prometheus metrics for vectord.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all vectord metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Record store operations
	RecordOperationsTotal   *prometheus.CounterVec
	RecordOperationDuration *prometheus.HistogramVec
	RecordsStored           prometheus.Gauge

	// Search operations
	SearchOperationsTotal   *prometheus.CounterVec
	SearchOperationDuration *prometheus.HistogramVec
	SearchResultsCount      *prometheus.HistogramVec

	// Embedding operations
	EmbeddingOperationsTotal   *prometheus.CounterVec
	EmbeddingOperationDuration *prometheus.HistogramVec

	// Index metrics
	IndexSizeVectors  *prometheus.GaugeVec
	IndexRebuildTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "vectord"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		RecordOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_operations_total",
				Help:      "Total number of record store operations",
			},
			[]string{"operation", "status"},
		),
		RecordOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "record_operation_duration_seconds",
				Help:      "Record store operation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"operation"},
		),
		RecordsStored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records_stored_total",
				Help:      "Total number of records stored",
			},
		),

		SearchOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_operations_total",
				Help:      "Total number of search operations",
			},
			[]string{"index_type", "status"},
		),
		SearchOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_operation_duration_seconds",
				Help:      "Search operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"index_type"},
		),
		SearchResultsCount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results_count",
				Help:      "Number of results returned by search operations",
			},
			[]string{"index_type"},
		),

		EmbeddingOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_operations_total",
				Help:      "Total number of embedding operations",
			},
			[]string{"provider", "status"},
		),
		EmbeddingOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_operation_duration_seconds",
				Help:      "Embedding operation duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),

		IndexSizeVectors: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_size_vectors",
				Help:      "Number of vectors held by an attached index",
			},
			[]string{"collection", "index_type"},
		),
		IndexRebuildTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_rebuild_total",
				Help:      "Total number of full index rebuilds",
			},
			[]string{"index_type", "status"},
		),
	}
}

var defaultMetrics *Metrics

// Default returns the default metrics instance, creating it if needed.
func Default() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = New("vectord")
	}
	return defaultMetrics
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordRecordOperation records a record store operation.
func (m *Metrics) RecordRecordOperation(operation string, success bool, duration float64) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RecordOperationsTotal.WithLabelValues(operation, status).Inc()
	m.RecordOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordSearchOperation records a search operation against an attached index.
func (m *Metrics) RecordSearchOperation(indexType string, success bool, duration float64, resultCount int) {
	status := "success"
	if !success {
		status = "error"
	}
	m.SearchOperationsTotal.WithLabelValues(indexType, status).Inc()
	m.SearchOperationDuration.WithLabelValues(indexType).Observe(duration)
	m.SearchResultsCount.WithLabelValues(indexType).Observe(float64(resultCount))
}

// RecordEmbeddingOperation records an embedding operation.
func (m *Metrics) RecordEmbeddingOperation(provider string, success bool, duration float64) {
	status := "success"
	if !success {
		status = "error"
	}
	m.EmbeddingOperationsTotal.WithLabelValues(provider, status).Inc()
	m.EmbeddingOperationDuration.WithLabelValues(provider).Observe(duration)
}

// SetRecordsStored sets the total number of records stored.
func (m *Metrics) SetRecordsStored(count int64) {
	m.RecordsStored.Set(float64(count))
}

// SetIndexSize sets the vector count for an attached index.
func (m *Metrics) SetIndexSize(collection, indexType string, count int64) {
	m.IndexSizeVectors.WithLabelValues(collection, indexType).Set(float64(count))
}

// RecordIndexRebuild records a full index rebuild.
func (m *Metrics) RecordIndexRebuild(indexType string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.IndexRebuildTotal.WithLabelValues(indexType, status).Inc()
}

func statusToString(status int) string {
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
