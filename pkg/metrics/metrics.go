package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MaterialWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_material_writes_total",
			Help: "Material write operations by operation, kind and outcome.",
		},
		[]string{"operation", "kind", "outcome"},
	)

	MetadataLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_metadata_lookups_total",
			Help: "External ISBN metadata lookups by outcome (hit, miss, cached, error).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, MaterialWrites, MetadataLookups)
}

// RecordMaterialWrite increments the material write counter.
func RecordMaterialWrite(operation, kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	MaterialWrites.WithLabelValues(operation, kind, outcome).Inc()
}
