// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	RadiusExpansionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_radius_expansions_total",
			Help: "Total number of search-radius expansions",
		},
	)

	BusinessesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_businesses_discovered_total",
			Help: "Total number of unique businesses discovered",
		},
	)

	BusinessesVerified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_businesses_verified_total",
			Help: "Total number of businesses with a confirmed product match",
		},
	)

	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_upstream_failures_total",
			Help: "Total number of swallowed upstream failures by adapter",
		},
		[]string{"adapter"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path", "status"},
	)
)
