// Package metrics exposes Prometheus collectors for the insights service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pipelineRunsTotal          *prometheus.CounterVec
	pipelineDurationSeconds    *prometheus.HistogramVec
	activePipelines            prometheus.Gauge
	fetchesTotal               *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_pipeline_runs_total",
				Help: "Total pipeline runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pipelineDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_pipeline_duration_seconds",
				Help:    "Histogram of end-to-end pipeline latencies, labeled by outcome.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 45},
			},
			[]string{"outcome"},
		)

		activePipelines = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "insights_active_pipelines",
				Help: "Number of pipeline runs currently in flight.",
			},
		)

		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_fetches_total",
				Help: "Total page fetches, labeled by site and failure class.",
			},
			[]string{"site", "failure"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_fetch_bytes_total",
				Help: "Total bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 45},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch increments the fetch metrics. An empty failure string counts
// as a successful fetch.
func ObserveFetch(site string, failure string, bytesFetched int) {
	if fetchesTotal == nil {
		return
	}
	if failure == "" {
		failure = "none"
	}
	sanitizedSite := SanitizeSite(site)
	fetchesTotal.WithLabelValues(sanitizedSite, failure).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// ObservePipeline records one finished pipeline run.
func ObservePipeline(outcome string, duration time.Duration) {
	if pipelineRunsTotal == nil {
		return
	}
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
	pipelineDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncActivePipelines increments the in-flight pipelines gauge.
func IncActivePipelines() {
	if activePipelines != nil {
		activePipelines.Inc()
	}
}

// DecActivePipelines decrements the in-flight pipelines gauge.
func DecActivePipelines() {
	if activePipelines != nil {
		activePipelines.Dec()
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
