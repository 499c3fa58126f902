// Package notify sends the optional SMS lead alert to the business phone.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

// maxSMSRunes keeps alerts within two concatenated SMS segments.
const maxSMSRunes = 300

// Notifier delivers a short text alert.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioNotifier texts alerts from a Twilio number to a fixed recipient.
type TwilioNotifier struct {
	api  messageCreator
	from string
	to   string
}

// NewTwilioNotifier authenticates with the account SID and auth token.
func NewTwilioNotifier(accountSID, authToken, from, to string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{api: client.Api, from: from, to: to}
}

// Notify implements Notifier. The Twilio client has no context support, so
// the call runs in the background and Notify returns when ctx ends first.
func (n *TwilioNotifier) Notify(ctx context.Context, text string) error {
	if n.from == "" || n.to == "" {
		return errors.New("notify: sms sender or recipient not configured")
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(text)

	done := make(chan error, 1)
	go func() {
		_, err := n.api.CreateMessage(params)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify: twilio: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: twilio: %w", ctx.Err())
	}
}

// LeadText is the alert body for a booking.
func LeadText(r booking.Request) string {
	r = r.Trimmed()
	var b strings.Builder
	b.WriteString("New booking: ")
	b.WriteString(r.Name)
	b.WriteString(" – ")
	b.WriteString(r.Service)
	b.WriteString(", ")
	b.WriteString(r.Date)
	if r.Phone != "" {
		b.WriteString(", tel ")
		b.WriteString(r.Phone)
	}
	b.WriteString(", ")
	b.WriteString(r.Email)

	out := []rune(b.String())
	if len(out) > maxSMSRunes {
		return string(out[:maxSMSRunes-1]) + "…"
	}
	return string(out)
}
