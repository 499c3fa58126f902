// Package mail builds and dispatches the booking emails.
//
// Message is provider-neutral. Sender is the one capability the booking flow
// depends on: hand over a message, get back the provider's message id or an
// error. SendGridSender is the production implementation; Throttled and
// WithTimeout decorate any Sender.
package mail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFrom is the sender identity used when MAIL_FROM is not set.
const DefaultFrom = "Car Detailing Website <bookings@example.com>"

// Message is an outbound email. Addresses may carry a display name
// ("Name <addr@host>").
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender dispatches a message and returns the provider's message id. The id
// may be empty when the provider does not report one.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, m Message) (string, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, m Message) (string, error) { return f(ctx, m) }

// Throttled caps the rate of outbound sends across all requests so a burst of
// bookings cannot exhaust the provider quota. Callers block until a token is
// available or ctx ends.
type Throttled struct {
	next Sender
	lim  *rate.Limiter
}

// NewThrottled wraps next with a token bucket of rps tokens per second and the
// given burst. rps <= 0 disables throttling.
func NewThrottled(next Sender, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Throttled{next: next, lim: rate.NewLimiter(limit, burst)}
}

// Send implements Sender.
func (t *Throttled) Send(ctx context.Context, m Message) (string, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return "", fmt.Errorf("mail: throttled: %w", err)
	}
	return t.next.Send(ctx, m)
}

// WithTimeout bounds every send through next to d. d <= 0 returns next.
func WithTimeout(next Sender, d time.Duration) Sender {
	if d <= 0 {
		return next
	}
	return SenderFunc(func(ctx context.Context, m Message) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Send(ctx, m)
	})
}
