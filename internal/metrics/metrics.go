package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	rentalOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_operations_total",
		Help: "Rent and return attempts by outcome",
	}, []string{"op", "result"})

	activityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_activity_events_total",
		Help: "Rental events handled by the activity consumer",
	}, []string{"event_type", "result"})
)

func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveRental records one rent/return attempt. op is "create" or "return".
func ObserveRental(op, result string) {
	rentalOperations.WithLabelValues(op, result).Inc()
}

func ObserveActivityEvent(eventType, result string) {
	activityEvents.WithLabelValues(eventType, result).Inc()
}
