package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travel_atlas"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "LLM completion calls by provider and outcome (ok, error, rejected).",
	}, []string{"provider", "outcome"})
	llmDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "call_duration_seconds",
		Help:      "LLM completion latency by provider.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
	}, []string{"provider"})
	llmBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "breaker_open",
		Help:      "1 while the provider circuit breaker is open, 0.5 half-open, 0 closed.",
	}, []string{"provider"})

	generationInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "jobs_in_flight",
		Help:      "Itinerary generation jobs currently running.",
	})
	generationResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "jobs_total",
		Help:      "Finished itinerary generation jobs by outcome (ready, failed, rejected).",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		httpRequests, httpDuration,
		llmCalls, llmDuration, llmBreakerState,
		generationInFlight, generationResults,
	)
}

// RecordHTTPRequest observes one finished request. route is the gin route
// template so ids do not explode label cardinality.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordLLMCall observes one completion attempt.
func RecordLLMCall(provider, outcome string, elapsed time.Duration) {
	llmCalls.WithLabelValues(provider, outcome).Inc()
	if outcome != "rejected" {
		llmDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// SetBreakerState publishes the breaker state as 0 (closed), 0.5 (half-open) or 1 (open).
func SetBreakerState(provider, state string) {
	v := 0.0
	switch state {
	case "open":
		v = 1
	case "half-open":
		v = 0.5
	}
	llmBreakerState.WithLabelValues(provider).Set(v)
}

// GenerationStarted and GenerationFinished bracket one generation job.
func GenerationStarted() { generationInFlight.Inc() }

func GenerationFinished(outcome string) {
	generationInFlight.Dec()
	generationResults.WithLabelValues(outcome).Inc()
}

// GenerationRejected counts jobs that never ran (queue full, shutdown).
func GenerationRejected() {
	generationResults.WithLabelValues("rejected").Inc()
}
