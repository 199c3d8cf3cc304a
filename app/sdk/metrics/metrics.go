// Package metrics constructs the metrics the application will track.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry holds every collector the service exposes on /metrics.
var registry = prometheus.NewRegistry()

var sampler atomic.Int64

var (
	goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Name:      "goroutines",
		Help:      "Number of goroutines at the last sampled request.",
	})

	requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "status"})

	duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	failures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "errors_total",
		Help:      "Total number of requests that ended in an error.",
	})

	panics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "panics_total",
		Help:      "Total number of recovered panics.",
	})

	decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "access_decisions_total",
		Help:      "Access decisions made at the edge by resource and outcome.",
	}, []string{"resource", "action", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		goroutines,
		requests,
		duration,
		failures,
		panics,
		decisions,
	)
}

// Handler returns the handler serving the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// AddRequests records a finished request. Every 1000th request samples the
// goroutine count.
func AddRequests(ctx context.Context, method string, status int, took time.Duration) {
	requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	duration.WithLabelValues(method).Observe(took.Seconds())

	if sampler.Add(1)%1000 == 0 {
		goroutines.Set(float64(runtime.NumGoroutine()))
	}
}

// AddErrors increments the errors metric.
func AddErrors(ctx context.Context) {
	failures.Inc()
}

// AddPanics increments the panics metric.
func AddPanics(ctx context.Context) {
	panics.Inc()
}

// AddDecision records an access decision.
func AddDecision(ctx context.Context, resource string, action string, outcome string) {
	decisions.WithLabelValues(resource, action, outcome).Inc()
}
