package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelpartner",
			Name:      "api_requests_total",
			Help:      "Count of partner API requests by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelpartner",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of partner API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelpartner",
			Name:      "api_cache_hits_total",
			Help:      "Count of GET responses served from the Redis cache.",
		},
		[]string{"endpoint"},
	)

	workflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelpartner",
			Name:      "booking_workflow_transitions_total",
			Help:      "Count of booking workflow transitions by target state.",
		},
		[]string{"state"},
	)

	otpResends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelpartner",
			Name:      "otp_resend_total",
			Help:      "Count of OTP resend requests by flow.",
		},
		[]string{"flow"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiLatency, cacheHits, workflowTransitions, otpResends)
	})
}

// ObserveRequest records one API call. status 0 means a transport error.
func ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequests.WithLabelValues(endpoint, label).Inc()
	apiLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func IncCacheHit(endpoint string) {
	cacheHits.WithLabelValues(endpoint).Inc()
}

func IncTransition(state string) {
	workflowTransitions.WithLabelValues(state).Inc()
}

func IncOTPResend(flow string) {
	otpResends.WithLabelValues(flow).Inc()
}
