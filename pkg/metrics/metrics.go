package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_rewards",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coffee_rewards",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	chainCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_rewards",
			Subsystem: "chain",
			Name:      "calls_total",
			Help:      "Token contract calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	pointsMinted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coffee_rewards",
			Subsystem: "points",
			Name:      "minted_total",
			Help:      "CoffeeCoin units minted by confirmed earn-points requests.",
		},
	)

	redemptionsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_rewards",
			Subsystem: "points",
			Name:      "redemptions_recorded_total",
			Help:      "Redemption acknowledgements by reward id.",
		},
		[]string{"reward_id"},
	)

	authOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_rewards",
			Subsystem: "auth",
			Name:      "verifications_total",
			Help:      "Identity verification outcomes by error category.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		chainCalls,
		pointsMinted,
		redemptionsRecorded,
		authOutcomes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordChainCall records a token contract call outcome.
func RecordChainCall(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	chainCalls.WithLabelValues(method, outcome).Inc()
}

// RecordPointsMinted adds confirmed minted units.
func RecordPointsMinted(amount float64) {
	if amount > 0 {
		pointsMinted.Add(amount)
	}
}

// RecordRedemption counts an acknowledged redemption.
func RecordRedemption(rewardID string) {
	redemptionsRecorded.WithLabelValues(rewardID).Inc()
}

// RecordAuthOutcome counts an identity verification result.
func RecordAuthOutcome(outcome string) {
	authOutcomes.WithLabelValues(outcome).Inc()
}
