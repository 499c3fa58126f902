package handlers

import (
	"errors"
	"net/http"

	"github.com/ashinemobile/booking-backend/internal/services"
)

// msgSendFailed is the 500 message when the cause has no text of its own.
const msgSendFailed = "Failed to send booking email"

// Router fallback messages.
const (
	MsgNotFound   = "Not found"
	MsgNotAllowed = "Method not allowed"
)

// statusFor maps a booking error to its HTTP status and message.
//
//	*MissingFieldsError, ErrInvalidEmail  400 with the error text
//	ErrEmailNotConfigured                 500 with the configuration message
//	*DispatchError                        500 with the provider's message
//	anything else                         500 with its message, or msgSendFailed
func statusFor(err error) (int, string) {
	var mf *services.MissingFieldsError
	switch {
	case errors.As(err, &mf), errors.Is(err, services.ErrInvalidEmail):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrEmailNotConfigured):
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusInternalServerError, messageOr(err, msgSendFailed)
}

// messageOr returns err's text, or fallback when it is empty.
func messageOr(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
