package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayline",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayline",
			Name:      "tool_calls_total",
			Help:      "Conversational tool invocations by tool name and outcome.",
		},
		[]string{"tool", "status"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayline",
			Name:      "bookings_total",
			Help:      "Booking attempts by terminal status.",
		},
		[]string{"status"},
	)

	catalogFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bayline",
			Name:      "catalog_fallback_total",
			Help:      "Bookings that hit the default duration for an unknown service name.",
		},
	)

	calendarRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayline",
			Name:      "calendar_requests_total",
			Help:      "Calendar store round-trips by operation and outcome.",
		},
		[]string{"operation", "status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, toolCalls, bookings, catalogFallbacks, calendarRequests)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncToolCall counts one tool invocation with its outcome ("ok" or "error").
func IncToolCall(tool, status string) {
	toolCalls.WithLabelValues(tool, status).Inc()
}

// IncBooking counts one booking attempt by terminal status.
func IncBooking(status string) {
	bookings.WithLabelValues(status).Inc()
}

// IncCatalogFallback counts a booking made with the default duration.
func IncCatalogFallback() {
	catalogFallbacks.Inc()
}

// IncCalendarRequest counts one calendar store round-trip.
func IncCalendarRequest(operation, status string) {
	calendarRequests.WithLabelValues(operation, status).Inc()
}
