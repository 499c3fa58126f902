package form

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

// Submitter sends a booking and returns the provider message id.
// *client.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req booking.Request) (string, error)
}

// Controller owns one form's State and performs the single network call a
// submit triggers. It is safe for concurrent use; a second Submit while one
// is in flight is ignored because the form is Sending.
type Controller struct {
	mu      sync.Mutex
	state   State
	machine *Machine
	sub     Submitter
	log     zerolog.Logger
}

// NewController returns a Controller in the Idle state.
func NewController(m *Machine, sub Submitter, log zerolog.Logger) *Controller {
	return &Controller{state: NewState(), machine: m, sub: sub, log: log}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Change sets f to v and applies the fields derived from it.
func (c *Controller) Change(f booking.Field, v string) State {
	s, _ := c.apply(Changed{Field: f, Value: v})
	return s
}

// Blur marks f touched and validates it.
func (c *Controller) Blur(f booking.Field) State {
	s, _ := c.apply(Blurred{Field: f})
	return s
}

// Submit validates the whole form and, when it is clean, sends it. The
// returned state is Idle with errors, Submitted, or Failed.
func (c *Controller) Submit(ctx context.Context) State {
	s, req := c.apply(SubmitRequested{})
	if req == nil {
		if len(s.Errors) > 0 {
			c.log.Debug().Int("fields", len(s.Errors)).Msg("booking form has errors")
		}
		return s
	}

	id, err := c.sub.Submit(ctx, *req)
	if err != nil {
		c.log.Warn().Err(err).Msg("booking submit failed")
		s, _ = c.apply(SubmitFailed{Reason: err.Error()})
		return s
	}
	c.log.Info().Str("message_id", id).Msg("booking submitted")
	s, _ = c.apply(SubmitSucceeded{MessageID: id})
	return s
}

func (c *Controller) apply(e Event) (State, *booking.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, req := c.machine.Transition(c.state, e)
	c.state = next
	return next.clone(), req
}
