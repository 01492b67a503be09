package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"carcat/internal/cache"
)

// Metrics holds all Prometheus metrics for the catalog server
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge
	ImportedRecords *prometheus.CounterVec
	CacheClears     prometheus.Counter
}

// NewMetrics registers the server collectors on reg. Cache gauges read
// svc.Stats() at scrape time.
func NewMetrics(reg prometheus.Registerer, namespace string, svc cache.Service) *Metrics {
	if namespace == "" {
		namespace = "carcat"
	}
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_requests",
				Help:      "Number of requests currently being processed",
			},
		),
		ImportedRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_records_total",
				Help:      "Records processed by imports, by result",
			},
			[]string{"result"}, // success, failed, rejected
		),
		CacheClears: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_clears_total",
				Help:      "Total number of full response cache clears",
			},
		),
	}

	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		},
		func() float64 { return float64(svc.Stats().Hits) },
	)
	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		},
		func() float64 { return float64(svc.Stats().Misses) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_items",
			Help:      "Entries currently held by the response cache",
		},
		func() float64 { return float64(svc.Stats().TotalItems) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_size_bytes",
			Help:      "Approximate size of cached values",
		},
		func() float64 { return float64(svc.Stats().TotalSize) },
	)

	return m
}
