// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the ausweis gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// AuthBuckets defines histogram buckets suited for in-process authentication
// decisions, ranging from 1ms to 5s (the upper buckets cover user stores
// backed by a database).
var AuthBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausweis_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ausweis_request_duration_seconds",
			Help:    "Request duration",
			Buckets: AuthBuckets,
		},
		[]string{"method"},
	)

	// AuthAttemptsTotal counts authentication attempts by credential kind
	// and outcome ("success", "rejected", "error").
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausweis_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"credential", "outcome"},
	)

	// AuthFailuresTotal counts rejected authentications by reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausweis_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// TokensIssuedTotal counts tokens minted by successful logins.
	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ausweis_tokens_issued_total",
			Help: "Tokens issued",
		},
	)

	// TokensRevokedTotal counts logout revocations.
	TokensRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ausweis_tokens_revoked_total",
			Help: "Tokens revoked",
		},
	)

)

// RegisterActiveTokens registers a gauge reporting the number of live tokens
// via fn. Called once at startup with the token store's Len.
func RegisterActiveTokens(fn func() float64) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ausweis_active_tokens",
			Help: "Live tokens in the store",
		},
		fn,
	))
}

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttemptsTotal,
		AuthFailuresTotal,
		TokensIssuedTotal,
		TokensRevokedTotal,
	)
}
