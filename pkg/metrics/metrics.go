// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shortlink"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Requests currently being served",
		},
	)

	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Short links created, by kind (generated or custom)",
		},
		[]string{"kind"},
	)

	Redirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect lookups by result (found, not_found, error)",
		},
		[]string{"result"},
	)

	ClickTrackFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_track_failures_total",
			Help:      "Redirects served whose click increment failed",
		},
	)

	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated short codes rejected by the unique constraint",
		},
	)

	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_breaker_state",
			Help:      "Store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

const (
	KindGenerated = "generated"
	KindCustom    = "custom"

	RedirectFound    = "found"
	RedirectNotFound = "not_found"
	RedirectError    = "error"
)

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments the gauge and returns the matching decrement.
//
//	defer metrics.TrackActiveRequest()()
func TrackActiveRequest() func() {
	HTTPActiveRequests.Inc()
	return HTTPActiveRequests.Dec
}

func RecordLinkCreated(custom bool) {
	kind := KindGenerated
	if custom {
		kind = KindCustom
	}
	LinksCreated.WithLabelValues(kind).Inc()
}

func RecordRedirect(result string) {
	Redirects.WithLabelValues(result).Inc()
}

func RecordClickTrackFailure() {
	ClickTrackFailures.Inc()
}

func RecordCodeCollision() {
	CodeCollisions.Inc()
}

func SetBreakerState(state int) {
	StoreBreakerState.Set(float64(state))
}
