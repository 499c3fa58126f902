package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashinemobile/booking-backend/internal/booking"
	"github.com/ashinemobile/booking-backend/internal/mail"
	"github.com/ashinemobile/booking-backend/internal/notify"
)

var tracer = otel.Tracer("github.com/ashinemobile/booking-backend/internal/services")

// Receipt describes an accepted booking.
type Receipt struct {
	// ID is the provider's message id for the business notification.
	ID string
	// ConfirmationSent reports whether the customer confirmation went out.
	ConfirmationSent bool
}

// BookingService validates a booking and dispatches the business
// notification followed by the customer confirmation.
//
// The business notification is the operation's primary effect: its failure
// fails the booking. The confirmation and the optional SMS alert are best
// effort and only logged when they fail.
type BookingService struct {
	// Mailer delivers email. Nil means no provider credential is configured.
	Mailer   mail.Sender
	Renderer *mail.Renderer
	// From is the sender identity; mail.DefaultFrom when empty.
	From string
	// Inbox receives notifications; booking.BusinessInbox when empty.
	Inbox string
	// SMS is an optional lead alert.
	SMS notify.Notifier
	// SMSTimeout bounds the SMS alert. Zero leaves it to the caller's context.
	SMSTimeout time.Duration
}

// Submit processes one booking. Steps run strictly in order: validation,
// configuration check, business notification, confirmation, SMS alert.
func (s *BookingService) Submit(ctx context.Context, req booking.Request, loc booking.Locale) (Receipt, error) {
	ctx, span := tracer.Start(ctx, "booking.submit", trace.WithAttributes(
		attribute.String("booking.locale", string(loc)),
		attribute.Bool("booking.mobile", req.IsMobile()),
	))
	defer span.End()

	if missing := req.MissingFields(); len(missing) > 0 {
		bookingRequests.WithLabelValues(outcomeInvalid).Inc()
		return Receipt{}, spanError(span, &MissingFieldsError{Fields: missing})
	}
	req = req.Trimmed()
	if !booking.ValidEmail(req.Email) {
		bookingRequests.WithLabelValues(outcomeInvalid).Inc()
		return Receipt{}, spanError(span, ErrInvalidEmail)
	}
	if s.Mailer == nil {
		bookingRequests.WithLabelValues(outcomeUnconfigured).Inc()
		zerolog.Ctx(ctx).Error().Msg("booking: email provider credential is not set")
		return Receipt{}, spanError(span, ErrEmailNotConfigured)
	}

	subject, body, err := s.Renderer.Business(req)
	if err != nil {
		bookingRequests.WithLabelValues(outcomeError).Inc()
		return Receipt{}, spanError(span, err)
	}
	id, err := s.Mailer.Send(ctx, mail.Message{
		From:    s.from(),
		To:      []string{s.inbox()},
		ReplyTo: req.Email,
		Subject: subject,
		HTML:    body,
	})
	recordDispatch("business", err)
	if err != nil {
		bookingRequests.WithLabelValues(outcomeDispatchFailed).Inc()
		return Receipt{}, spanError(span, &DispatchError{Err: err})
	}
	span.SetAttributes(attribute.String("booking.message_id", id))

	rcpt := Receipt{ID: id}
	if err := s.confirm(ctx, req, loc); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("message_id", id).Msg("booking: confirmation email failed")
		span.AddEvent("confirmation failed", trace.WithAttributes(attribute.String("error", err.Error())))
	} else {
		rcpt.ConfirmationSent = true
	}

	if s.SMS != nil {
		if err := s.alert(ctx, req); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("message_id", id).Msg("booking: sms alert failed")
		}
	}

	bookingRequests.WithLabelValues(outcomeAccepted).Inc()
	return rcpt, nil
}

func (s *BookingService) alert(ctx context.Context, req booking.Request) error {
	if s.SMSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SMSTimeout)
		defer cancel()
	}
	err := s.SMS.Notify(ctx, notify.LeadText(req))
	recordDispatch("sms", err)
	return err
}

func (s *BookingService) confirm(ctx context.Context, req booking.Request, loc booking.Locale) error {
	subject, body, err := s.Renderer.Confirmation(req, loc)
	if err == nil {
		_, err = s.Mailer.Send(ctx, mail.Message{
			From:    s.from(),
			To:      []string{req.Email},
			Subject: subject,
			HTML:    body,
		})
	}
	recordDispatch("confirmation", err)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	return nil
}

func (s *BookingService) from() string {
	if f := strings.TrimSpace(s.From); f != "" {
		return f
	}
	return mail.DefaultFrom
}

func (s *BookingService) inbox() string {
	if s.Inbox != "" {
		return s.Inbox
	}
	return booking.BusinessInbox
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	msg := err.Error()
	var mf *MissingFieldsError
	if errors.As(err, &mf) || errors.Is(err, ErrInvalidEmail) {
		msg = "invalid booking"
	}
	span.SetStatus(codes.Error, msg)
	return err
}
