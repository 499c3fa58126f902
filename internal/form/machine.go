package form

import (
	"strings"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

// Machine holds what Transition needs besides the state: the field rules,
// the catalog used for derived fields and the payload, and the locale sent
// with the request.
type Machine struct {
	validator *booking.Validator
	catalog   *booking.Catalog
	locale    booking.Locale
}

// NewMachine returns a Machine. A nil cat uses booking.DefaultCatalog.
func NewMachine(v *booking.Validator, cat *booking.Catalog, loc booking.Locale) *Machine {
	if cat == nil {
		cat = booking.DefaultCatalog()
	}
	if v == nil {
		v = booking.NewValidator(cat, nil)
	}
	return &Machine{validator: v, catalog: cat, locale: loc}
}

// Transition applies e to s. When the result has just entered Sending, the
// returned request is the payload to POST; otherwise it is nil. Events that
// make no sense in the current status leave the state unchanged.
func (m *Machine) Transition(s State, e Event) (State, *booking.Request) {
	next := s.clone()

	switch ev := e.(type) {
	case Changed:
		if !s.Editable() || !s.Enabled(ev.Field) {
			return s, nil
		}
		next.Values[ev.Field] = ev.Value
		m.applyDerived(&next, ev.Field, s.Values[ev.Field])
		m.revalidate(&next, ev.Field)

	case Blurred:
		if !s.Editable() {
			return s, nil
		}
		next.Touched[ev.Field] = true
		m.setError(&next, ev.Field)

	case SubmitRequested:
		if !s.Editable() {
			return s, nil
		}
		for _, f := range booking.FormFields {
			next.Touched[f] = true
		}
		next.Errors = m.validator.ValidateAll(next.Values)
		next.Failure = ""
		if len(next.Errors) > 0 {
			next.Status = Idle
			return next, nil
		}
		next.Status = Sending
		req := m.payload(next.Values)
		return next, &req

	case SubmitSucceeded:
		if s.Status != Sending {
			return s, nil
		}
		next.Status = Submitted
		next.MessageID = ev.MessageID

	case SubmitFailed:
		if s.Status != Sending {
			return s, nil
		}
		next.Status = Failed
		next.Failure = strings.TrimSpace(ev.Reason)
		if next.Failure == "" {
			next.Failure = GenericFailure
		}

	default:
		return s, nil
	}
	return next, nil
}

// applyDerived resets the fields that depend on f after f changed from prev.
func (m *Machine) applyDerived(s *State, f booking.Field, prev string) {
	switch f {
	case booking.FieldServiceCategory:
		if s.Values[f] == prev {
			return
		}
		s.Values[booking.FieldService] = m.catalog.DefaultPackage(strings.TrimSpace(s.Values[f]))
		m.revalidate(s, booking.FieldService)
	case booking.FieldLocationType:
		if strings.TrimSpace(s.Values[f]) != booking.LocationMobile {
			delete(s.Values, booking.FieldDistance)
			delete(s.Errors, booking.FieldDistance)
		}
	}
}

// revalidate refreshes f's error once the user has seen it: after a blur or
// while an error is already displayed.
func (m *Machine) revalidate(s *State, f booking.Field) {
	if _, shown := s.Errors[f]; shown || s.Touched[f] {
		m.setError(s, f)
	}
}

func (m *Machine) setError(s *State, f booking.Field) {
	if msg := m.validator.ValidateField(f, s.Values[f], s.Values); msg != "" {
		s.Errors[f] = msg
		return
	}
	delete(s.Errors, f)
}

// payload turns the selected ids into the labels the API and emails show.
func (m *Machine) payload(v booking.Values) booking.Request {
	category := strings.TrimSpace(v[booking.FieldServiceCategory])
	location := strings.TrimSpace(v[booking.FieldLocationType])

	req := booking.Request{
		Name:            v[booking.FieldName],
		Email:           v[booking.FieldEmail],
		Phone:           v[booking.FieldPhone],
		Service:         m.catalog.ServiceLabel(category, strings.TrimSpace(v[booking.FieldService])),
		ServiceCategory: m.catalog.CategoryTitle(category),
		LocationType:    location,
		Date:            v[booking.FieldDate],
		Message:         v[booking.FieldMessage],
		Locale:          string(m.locale),
	}
	if location == booking.LocationMobile {
		req.Distance = m.catalog.DistanceLabel(strings.TrimSpace(v[booking.FieldDistance]))
	}
	return req.Trimmed()
}
