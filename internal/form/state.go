// Package form drives the booking form: field values, per-field errors,
// touched tracking and the submission lifecycle, as one explicit state and
// a single transition function.
package form

import (
	"strings"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

// Status is where the form is in its submission lifecycle.
type Status int

const (
	// Idle accepts input. Validation errors are shown from here.
	Idle Status = iota
	// Sending has one request in flight; input and submits are ignored.
	Sending
	// Submitted shows the thank-you view; the fields are gone.
	Submitted
	// Failed shows the server or network error above the form. Values are
	// kept and the user may submit again.
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// GenericFailure is shown when a failed submission carries no message.
const GenericFailure = "Something went wrong. Please try again."

// State is a snapshot of the form. Transition never mutates a State it is
// given; the maps of the returned State are fresh copies.
type State struct {
	Values  booking.Values
	Errors  booking.Errors
	Touched map[booking.Field]bool
	Status  Status
	// Failure is the banner text; set only while Status is Failed.
	Failure string
	// MessageID is the provider id returned for a Submitted form.
	MessageID string
}

// NewState returns an empty Idle form.
func NewState() State {
	return State{
		Values:  booking.Values{},
		Errors:  booking.Errors{},
		Touched: map[booking.Field]bool{},
	}
}

// Enabled reports whether f accepts input: the package needs a category and
// the distance needs the mobile location type.
func (s State) Enabled(f booking.Field) bool {
	switch f {
	case booking.FieldService:
		return strings.TrimSpace(s.Values[booking.FieldServiceCategory]) != ""
	case booking.FieldDistance:
		return strings.TrimSpace(s.Values[booking.FieldLocationType]) == booking.LocationMobile
	}
	return true
}

// VisibleError is the message to render next to f. Errors stay hidden until
// the field has been touched.
func (s State) VisibleError(f booking.Field) string {
	if !s.Touched[f] {
		return ""
	}
	return s.Errors[f]
}

// Editable reports whether the form takes input in its current status.
func (s State) Editable() bool {
	return s.Status == Idle || s.Status == Failed
}

func (s State) clone() State {
	out := s
	out.Values = s.Values.Clone()
	out.Errors = make(booking.Errors, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	out.Touched = make(map[booking.Field]bool, len(s.Touched))
	for k, v := range s.Touched {
		out.Touched[k] = v
	}
	return out
}

// Event is an input to Transition.
type Event interface{ event() }

// Changed is a new value typed or selected for Field.
type Changed struct {
	Field booking.Field
	Value string
}

// Blurred is Field losing focus.
type Blurred struct {
	Field booking.Field
}

// SubmitRequested is the submit button.
type SubmitRequested struct{}

// SubmitSucceeded is a 2xx answer to the request in flight.
type SubmitSucceeded struct {
	MessageID string
}

// SubmitFailed is a non-2xx answer or a network failure.
type SubmitFailed struct {
	Reason string
}

func (Changed) event()         {}
func (Blurred) event()         {}
func (SubmitRequested) event() {}
func (SubmitSucceeded) event() {}
func (SubmitFailed) event()    {}
