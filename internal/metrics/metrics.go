// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charge_optimizer_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "charge_optimizer_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "charge_optimizer_solve_duration_seconds",
		Help:    "Duration of MILP solves by outcome.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"status"})

	solvesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "charge_optimizer_solves_in_flight",
		Help: "Number of optimization runs currently executing.",
	})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveSolve records one optimization run. status is the MILP status, or
// "error" when the run failed before producing one.
func ObserveSolve(status string, elapsed time.Duration) {
	solveDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// TrackSolve marks a run as in flight until the returned func is called.
func TrackSolve() func() {
	solvesInFlight.Inc()
	return solvesInFlight.Dec
}

func Handler() http.Handler {
	return promhttp.Handler()
}
