// Package metrics exposes Prometheus collectors for the tracker. All helpers are
// no-ops until Init has been called, so packages can record unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "instrument_tracker_"

	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	registerOnce sync.Once
	registry     *prometheus.Registry

	storageOperations *prometheus.CounterVec
	storageFallbacks  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	instrumentsByStatus *prometheus.GaugeVec

	exportTotal *prometheus.CounterVec
)

// Init creates and registers the collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()

		storageOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "storage_operations_total",
				Help: "Storage operations by backend, operation and result",
			},
			[]string{"backend", "operation", "result"},
		)
		storageFallbacks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "storage_fallbacks_total",
				Help: "Operations served by the local store after the remote store failed",
			},
			[]string{"operation"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)

		instrumentsByStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "instruments",
				Help: "Instruments per calibration status as of the last evaluation",
			},
			[]string{"status"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Generated exports by format",
			},
			[]string{"format"},
		)

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			storageOperations,
			storageFallbacks,
			httpRequests,
			httpLatency,
			instrumentsByStatus,
			exportTotal,
		)
	})
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// IncStorageOperation counts one call to a storage backend. Result is one of
// ResultSuccess, ResultNotFound or ResultError.
func IncStorageOperation(backend, operation, result string) {
	if storageOperations != nil {
		storageOperations.WithLabelValues(backend, operation, result).Inc()
	}
}

func IncStorageFallback(operation string) {
	if storageFallbacks != nil {
		storageFallbacks.WithLabelValues(operation).Inc()
	}
}

// ObserveHTTPRequest records one handled request. Route is the matched route
// template, not the raw path.
func ObserveHTTPRequest(route, method string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
	}
}

// SetStatusCounts replaces the per-status gauges.
func SetStatusCounts(counts map[string]int) {
	if instrumentsByStatus == nil {
		return
	}
	for status, n := range counts {
		instrumentsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

func IncExport(format string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format).Inc()
	}
}
