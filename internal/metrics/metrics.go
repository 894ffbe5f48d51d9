package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docnodes_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docnodes_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// NodeRunsTotal counts node executions; status is "ok" or "error".
	NodeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docnodes_node_runs_total",
			Help: "Total number of node executions",
		},
		[]string{"node", "status"},
	)

	// Rasterizing at high DPI dominates; buckets reach into minutes.
	NodeRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docnodes_node_run_duration_seconds",
			Help:    "Duration of node executions in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 180},
		},
		[]string{"node"},
	)

	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docnodes_uploaded_bytes_total",
			Help: "Bytes written to the input directory by uploads",
		},
	)
)
