package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ProviderError is a non-2xx answer from the email provider. Its message is
// the provider's own and is safe to show to the caller.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string { return e.Message }

// SendGridSender sends through the SendGrid v3 mail API.
type SendGridSender struct {
	send func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error)
}

// NewSendGridSender returns a sender authenticated with apiKey.
func NewSendGridSender(apiKey string) *SendGridSender {
	client := sendgrid.NewSendClient(apiKey)
	return &SendGridSender{send: client.SendWithContext}
}

// Send implements Sender. The returned id is SendGrid's X-Message-Id.
func (s *SendGridSender) Send(ctx context.Context, m Message) (string, error) {
	v3, err := toSendGrid(m)
	if err != nil {
		return "", err
	}

	resp, err := s.send(ctx, v3)
	if err != nil {
		return "", fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: providerMessage(resp)}
	}
	return http.Header(resp.Headers).Get("X-Message-Id"), nil
}

func toSendGrid(m Message) (*sgmail.SGMailV3, error) {
	if len(m.To) == 0 {
		return nil, errors.New("mail: no recipients")
	}
	from, err := parseAddress(m.From)
	if err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}

	p := sgmail.NewPersonalization()
	for _, to := range m.To {
		addr, err := recipientAddress(to)
		if err != nil {
			return nil, fmt.Errorf("mail: to: %w", err)
		}
		p.AddTos(addr)
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(from)
	v3.Subject = m.Subject
	v3.AddPersonalizations(p)
	if m.ReplyTo != "" {
		rt, err := recipientAddress(m.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("mail: reply-to: %w", err)
		}
		v3.SetReplyTo(rt)
	}
	v3.AddContent(sgmail.NewContent("text/html", m.HTML))
	return v3, nil
}

func parseAddress(s string) (*sgmail.Email, error) {
	a, err := netmail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return sgmail.NewEmail(a.Name, a.Address), nil
}

// recipientAddress accepts anything the booking form accepted. Customer
// addresses such as "jo..x@x.com" are not RFC 5322 addr-specs, so they are
// passed to the provider verbatim when they do not parse.
func recipientAddress(s string) (*sgmail.Email, error) {
	if e, err := parseAddress(s); err == nil {
		return e, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty address")
	}
	return sgmail.NewEmail("", s), nil
}

// providerMessage extracts the error text from a SendGrid error body
// ({"errors":[{"message":"..."}]}).
func providerMessage(resp *rest.Response) string {
	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fmt.Sprintf("email provider returned status %d", resp.StatusCode)
}
