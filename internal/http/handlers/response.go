// Package handlers implements the HTTP endpoints of the booking API.
//
// Every error leaves the API in the same envelope, {"error": "<message>"},
// whose message is safe to show in the booking form. Server-side failures
// (5xx) are also logged through the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashinemobile/booking-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required fields: date, message"`
}

// fail aborts the request with the error envelope.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("error", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// Fail is the exported variant of fail for router fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
