package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ashinemobile/booking-backend/internal/ratelimit"
)

// RateLimitedMessage is the body of every 429.
const RateLimitedMessage = "Too many requests. Please try again in a few minutes."

var (
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_rate_limited_total",
		Help: "Requests rejected by the fixed-window rate limit.",
	})
	rateLimitErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_rate_limit_store_errors_total",
		Help: "Rate-limit store failures; the request was let through.",
	})
)

func init() {
	prometheus.MustRegister(rateLimited, rateLimitErrors)
}

// KeyFunc maps a request to a rate-limit key.
type KeyFunc func(*gin.Context) string

// BookingKey keys the limiter by "booking:" plus the client address taken
// from the proxy headers.
func BookingKey(c *gin.Context) string {
	return "booking:" + ratelimit.ClientIP(c.Request.Header)
}

// FixedWindow rejects a request with 429 once its key has exceeded the
// limiter's quota. It runs before anything reads the body, so malformed and
// invalid requests count against the quota too.
//
// A failing store lets the request through and logs the failure: losing the
// shared counter must not take bookings down.
func FixedWindow(l *ratelimit.Limiter, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = BookingKey
	}
	return func(c *gin.Context) {
		k := key(c)
		limited, err := l.IsRateLimited(c.Request.Context(), k)
		if err != nil {
			rateLimitErrors.Inc()
			LoggerFrom(c).Warn().Err(err).Msg("rate limit store unavailable; allowing request")
			c.Next()
			return
		}
		if limited {
			rateLimited.Inc()
			AbortError(c, http.StatusTooManyRequests, RateLimitedMessage)
			return
		}
		c.Next()
	}
}
