package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashinemobile/booking-backend/internal/booking"
	"github.com/ashinemobile/booking-backend/internal/http/middleware"
	"github.com/ashinemobile/booking-backend/internal/services"
)

// Booker submits a booking. *services.BookingService satisfies it.
type Booker interface {
	Submit(ctx context.Context, req booking.Request, loc booking.Locale) (services.Receipt, error)
}

// ReplayStore remembers the provider id of a keyed submission so a retry
// with the same Idempotency-Key is answered without sending email again.
type ReplayStore interface {
	Save(ctx context.Context, scope, key, requestHash, messageID string) error
}

// BookingResponse is returned for an accepted booking.
type BookingResponse struct {
	Success bool `json:"success" example:"true"`
	// ID is the email provider's message id; omitted when the provider sent none.
	ID string `json:"id,omitempty" example:"mBq0bR7ZQ8yN3p3x0mC1Vg"`
}

// BookingHandler serves POST /api/booking.
type BookingHandler struct {
	svc     Booker
	replays ReplayStore
}

// NewBookingHandler wires the handler. replays may be nil, which disables
// storing keyed submissions.
func NewBookingHandler(svc Booker, replays ReplayStore) *BookingHandler {
	return &BookingHandler{svc: svc, replays: replays}
}

// CreateBooking godoc
// @ID          createBooking
// @Summary     Submit a booking request
// @Description Validates the booking, emails it to the business inbox with reply-to set to the customer,
// @Description then sends the customer a confirmation. A failed confirmation does not fail the request.
// @Description Limited to 5 requests per client address per 15 minutes.
// @Tags        Booking
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string           false  "Key for safe retries; a repeat with the same body returns the first result"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       Accept-Language  header  string           false  "Language of the confirmation email (en, sl)"  example(sl-SI,en;q=0.8)
// @Param       body             body    booking.Request  true   "Booking form payload"
//
// @Success     200  {object}  handlers.BookingResponse  "Booking accepted"
// @Failure     400  {object}  handlers.ErrorResponse    "Missing fields or invalid email"
// @Failure     422  {object}  handlers.ErrorResponse    "Idempotency-Key reused with a different body"
// @Failure     429  {object}  handlers.ErrorResponse    "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse    "Not configured, provider failure or malformed body"
// @Router      /booking [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	if id, replay := middleware.ReplayID(c); replay {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, BookingResponse{Success: true, ID: id})
		return
	}

	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusInternalServerError, messageOr(err, msgSendFailed))
		return
	}

	loc := booking.MatchLocale(req.Locale, c.GetHeader("Accept-Language"))
	ctx := c.Request.Context()

	rcpt, err := h.svc.Submit(ctx, req, loc)
	if err != nil {
		status, msg := statusFor(err)
		fail(c, status, msg)
		return
	}

	if key, scope, ok := middleware.GetIdempotencyKey(c); ok && h.replays != nil {
		if err := h.replays.Save(ctx, scope, key, middleware.RequestHash(c), rcpt.ID); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not saved")
		}
	}

	middleware.LoggerFrom(c).Info().
		Str("message_id", rcpt.ID).
		Bool("confirmation_sent", rcpt.ConfirmationSent).
		Str("locale", string(loc)).
		Msg("booking accepted")

	ok(c, http.StatusOK, BookingResponse{Success: true, ID: rcpt.ID})
}
