package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "effects_http_response_seconds",
			Help:    "http response time by route.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 30},
		},
		[]string{"route"},
	)

	requestsFromRole = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "effects_http_requests_from_role_total", Help: "http requests by caller role"},
		[]string{"role"},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "effects_http_requests_total", Help: "http requests by code, method and route"},
		[]string{"code", "method", "route"},
	)
)

func init() {
	prometheus.MustRegister(responseTime, requestsFromRole, requests)
}
