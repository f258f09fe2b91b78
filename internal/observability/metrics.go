package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	gradingRequestsTotal  *prometheus.CounterVec
	gradingLatencySeconds *prometheus.HistogramVec
	runnerFailuresTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for grading observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_requests_total",
			Help: "Total number of grading requests served.",
		}, []string{"method", "route", "status"})

		gradingLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_latency_seconds",
			Help:    "Latency distribution for grading API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"})

		runnerFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_failures_total",
			Help: "Total number of failed calls to the sandbox runner.",
		}, []string{"code"})

		prometheus.MustRegister(gradingRequestsTotal, gradingLatencySeconds, runnerFailuresTotal)
	})
}

// GradingRequests exposes the counter for grading API requests.
func GradingRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRequestsTotal
}

// GradingLatency exposes the latency histogram for grading API requests.
func GradingLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingLatencySeconds
}

// RunnerFailures exposes the counter for runner transport failures.
func RunnerFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return runnerFailuresTotal
}
