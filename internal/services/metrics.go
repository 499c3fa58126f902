package services

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for bookingRequests.
const (
	outcomeAccepted       = "accepted"
	outcomeInvalid        = "invalid"
	outcomeUnconfigured   = "unconfigured"
	outcomeDispatchFailed = "dispatch_failed"
	outcomeError          = "error"
)

var (
	// bookingRequests counts booking submissions by outcome.
	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_requests_total",
			Help: "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// emailDispatch counts outbound notifications by kind
	// (business|confirmation|sms) and result (ok|error).
	emailDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_email_dispatch_total",
			Help: "Outbound booking notifications by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(bookingRequests, emailDispatch)
}

func recordDispatch(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	emailDispatch.WithLabelValues(kind, result).Inc()
}
