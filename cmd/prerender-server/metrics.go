package main

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arun0009/prerender-server/prerender"
)

// Prometheus metrics
var (
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prerender_gateway_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "status", "prerendered"},
	)
	requestLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prerender_gateway_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // ~10ms to ~163s
		},
	)
	fetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prerender_fetch_duration_seconds",
			Help:    "Latency of calls to the rendering service",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
	fetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prerender_fetch_errors_total",
			Help: "Failed calls to the rendering service by cause",
		},
		[]string{"cause"},
	)
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prerender_gateway_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// registerPrometheusMetrics registers the collectors with the default registry.
func registerPrometheusMetrics() {
	prometheus.MustRegister(requestTotal, requestLatency, fetchLatency, fetchErrors, rateLimited)
}

// instrumentedFetcher records latency and failures of the wrapped fetcher.
type instrumentedFetcher struct {
	next prerender.Fetcher
}

func (f instrumentedFetcher) Fetch(ctx context.Context, req *prerender.FetchRequest) ([]byte, error) {
	start := time.Now()
	body, err := f.next.Fetch(ctx, req)
	fetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		fetchErrors.WithLabelValues(fetchErrorCause(err)).Inc()
	}
	return body, err
}

func fetchErrorCause(err error) string {
	var se *prerender.StatusError
	var ne net.Error
	switch {
	case errors.As(err, &se):
		return strconv.Itoa(se.StatusCode)
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
