// Package metrics provides Prometheus metrics for the HTTP server and the
// cross-section pipeline:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - hitran_fetch_total, hitran_fetch_duration_seconds, hitran_lines_fetched_total
//   - xsec_compute_duration_seconds
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs being tracked)",
		},
	)

	HITRANFetchTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitran_fetch_total",
			Help: "Line-list fetches by outcome",
		},
		[]string{"status"},
	)

	HITRANFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hitran_fetch_duration_seconds",
			Help:    "Line-list fetch latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	HITRANLinesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hitran_lines_fetched_total",
			Help: "Total line records fetched",
		},
	)

	ComputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xsec_compute_duration_seconds",
			Help:    "Absorption coefficient computation time",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(HITRANFetchTotals)
	prometheus.MustRegister(HITRANFetchDuration)
	prometheus.MustRegister(HITRANLinesFetched)
	prometheus.MustRegister(ComputeDuration)
}

// ObserveFetch records one fetch outcome.
func ObserveFetch(seconds float64, lines int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	HITRANFetchTotals.WithLabelValues(status).Inc()
	HITRANFetchDuration.Observe(seconds)
	if err == nil {
		HITRANLinesFetched.Add(float64(lines))
	}
}
