package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

var testToday = time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)

func newTestMachine() *Machine {
	cat := booking.DefaultCatalog()
	return NewMachine(booking.NewValidator(cat, func() time.Time { return testToday }), cat, booking.LocaleSL)
}

// fill applies Changed events in order.
func fill(t *testing.T, m *Machine, s State, kv ...string) State {
	t.Helper()
	require.Zero(t, len(kv)%2)
	for i := 0; i < len(kv); i += 2 {
		s, _ = m.Transition(s, Changed{Field: booking.Field(kv[i]), Value: kv[i+1]})
	}
	return s
}

func validState(t *testing.T, m *Machine) State {
	return fill(t, m, NewState(),
		"name", "Jo",
		"email", "jo@x.com",
		"serviceCategory", "valeting",
		"service", "full-valet",
		"locationType", booking.LocationMobile,
		"distance", "0-10",
		"date", "25/03/2025",
		"message", "please call ahead",
	)
}

func TestSubmit_BlankFormFlagsEveryRequiredField(t *testing.T) {
	m := newTestMachine()

	s, req := m.Transition(NewState(), SubmitRequested{})

	assert.Nil(t, req, "no request for an invalid form")
	assert.Equal(t, Idle, s.Status)
	assert.Equal(t, booking.Errors{
		booking.FieldName:            booking.MsgName,
		booking.FieldEmail:           booking.MsgEmail,
		booking.FieldServiceCategory: booking.MsgCategory,
		booking.FieldService:         booking.MsgPackage,
		booking.FieldDate:            booking.MsgDateRequired,
		booking.FieldMessage:         booking.MsgMessage,
	}, s.Errors)
	for _, f := range booking.FormFields {
		assert.Truef(t, s.Touched[f], "%s touched", f)
	}
}

func TestSubmit_ValidFormEntersSendingWithPayload(t *testing.T) {
	m := newTestMachine()

	s, req := m.Transition(validState(t, m), SubmitRequested{})

	require.NotNil(t, req)
	assert.Equal(t, Sending, s.Status)
	assert.Empty(t, s.Errors)
	assert.Equal(t, booking.Request{
		Name:            "Jo",
		Email:           "jo@x.com",
		Service:         "Valeting – Full valet (From £120)",
		ServiceCategory: "Valeting",
		LocationType:    booking.LocationMobile,
		Distance:        "Up to 10 km",
		Date:            "25/03/2025",
		Message:         "please call ahead",
		Locale:          "sl",
	}, *req)
}

func TestSubmit_PayloadTrimsAndUsesCategoryTitleForCustom(t *testing.T) {
	m := newTestMachine()
	s := fill(t, m, NewState(),
		"name", "  Jo ",
		"email", "jo@x.com ",
		"serviceCategory", "other",
		"date", "2025-04-01",
		"message", "  ceramic coating quote please  ",
	)

	_, req := m.Transition(s, SubmitRequested{})

	require.NotNil(t, req)
	assert.Equal(t, "Jo", req.Name)
	assert.Equal(t, "jo@x.com", req.Email)
	assert.Equal(t, "Other / Enquiry", req.Service)
	assert.Empty(t, req.Distance)
	assert.Equal(t, "ceramic coating quote please", req.Message)
}

func TestChanged_CategoryResetsPackage(t *testing.T) {
	m := newTestMachine()
	s := fill(t, m, NewState(), "serviceCategory", "valeting", "service", "full-valet")
	require.Equal(t, "full-valet", s.Values[booking.FieldService])

	s = fill(t, m, s, "serviceCategory", "detailing")
	assert.Empty(t, s.Values[booking.FieldService])

	s = fill(t, m, s, "serviceCategory", "other")
	assert.Equal(t, booking.CustomPackage, s.Values[booking.FieldService])

	s = fill(t, m, s, "serviceCategory", "other")
	assert.Equal(t, booking.CustomPackage, s.Values[booking.FieldService], "same category keeps the package")
}

func TestChanged_PackageDisabledWithoutCategory(t *testing.T) {
	m := newTestMachine()

	s := fill(t, m, NewState(), "service", "full-valet")

	assert.False(t, s.Enabled(booking.FieldService))
	assert.Empty(t, s.Values[booking.FieldService])
}

func TestChanged_LeavingMobileClearsDistance(t *testing.T) {
	m := newTestMachine()
	s := fill(t, m, NewState(), "locationType", booking.LocationMobile)
	s, _ = m.Transition(s, Blurred{Field: booking.FieldDistance})
	require.Equal(t, booking.MsgDistance, s.Errors[booking.FieldDistance])

	s = fill(t, m, s, "distance", "10-20", "locationType", booking.LocationOurs)

	_, set := s.Values[booking.FieldDistance]
	assert.False(t, set)
	assert.NotContains(t, s.Errors, booking.FieldDistance)
	assert.False(t, s.Enabled(booking.FieldDistance))

	s = fill(t, m, s, "distance", "30+")
	assert.Empty(t, s.Values[booking.FieldDistance], "distance ignored unless mobile")
}

func TestBlurredThenChanged_RevalidatesShownError(t *testing.T) {
	m := newTestMachine()

	s := fill(t, m, NewState(), "name", "A")
	assert.Empty(t, s.Errors, "no error before the field is visited")
	assert.Empty(t, s.VisibleError(booking.FieldName))

	s, _ = m.Transition(s, Blurred{Field: booking.FieldName})
	assert.Equal(t, booking.MsgName, s.VisibleError(booking.FieldName))

	s = fill(t, m, s, "name", "Al")
	assert.Empty(t, s.VisibleError(booking.FieldName))

	s = fill(t, m, s, "email", "a@b")
	s, _ = m.Transition(s, Blurred{Field: booking.FieldEmail})
	assert.Equal(t, booking.MsgEmail, s.Errors[booking.FieldEmail])
	s = fill(t, m, s, "email", "a@b.com")
	assert.NotContains(t, s.Errors, booking.FieldEmail)
}

func TestSending_IgnoresInputAndSecondSubmit(t *testing.T) {
	m := newTestMachine()
	sending, req := m.Transition(validState(t, m), SubmitRequested{})
	require.NotNil(t, req)

	s := fill(t, m, sending, "name", "Somebody Else")
	assert.Equal(t, "Jo", s.Values[booking.FieldName])

	s, req = m.Transition(s, SubmitRequested{})
	assert.Nil(t, req)
	assert.Equal(t, Sending, s.Status)
}

func TestSubmitSucceeded_OnlyFromSending(t *testing.T) {
	m := newTestMachine()

	idle, _ := m.Transition(NewState(), SubmitSucceeded{MessageID: "x"})
	assert.Equal(t, Idle, idle.Status)

	sending, _ := m.Transition(validState(t, m), SubmitRequested{})
	done, _ := m.Transition(sending, SubmitSucceeded{MessageID: "sg-1"})
	assert.Equal(t, Submitted, done.Status)
	assert.Equal(t, "sg-1", done.MessageID)
	assert.False(t, done.Editable())

	after, req := m.Transition(done, SubmitRequested{})
	assert.Nil(t, req)
	assert.Equal(t, Submitted, after.Status)
}

func TestSubmitFailed_KeepsValuesAndAllowsRetry(t *testing.T) {
	m := newTestMachine()
	sending, _ := m.Transition(validState(t, m), SubmitRequested{})

	failed, _ := m.Transition(sending, SubmitFailed{Reason: "Too many requests. Please try again in a few minutes."})
	assert.Equal(t, Failed, failed.Status)
	assert.Equal(t, "Too many requests. Please try again in a few minutes.", failed.Failure)
	assert.Equal(t, "Jo", failed.Values[booking.FieldName])

	retry, req := m.Transition(failed, SubmitRequested{})
	require.NotNil(t, req)
	assert.Equal(t, Sending, retry.Status)
	assert.Empty(t, retry.Failure)
}

func TestSubmitFailed_BlankReasonUsesGeneric(t *testing.T) {
	m := newTestMachine()
	sending, _ := m.Transition(validState(t, m), SubmitRequested{})

	failed, _ := m.Transition(sending, SubmitFailed{Reason: "  "})

	assert.Equal(t, GenericFailure, failed.Failure)
}

func TestFailed_InvalidResubmitReturnsToIdle(t *testing.T) {
	m := newTestMachine()
	sending, _ := m.Transition(validState(t, m), SubmitRequested{})
	failed, _ := m.Transition(sending, SubmitFailed{Reason: "boom"})

	s := fill(t, m, failed, "email", "nope")
	s, req := m.Transition(s, SubmitRequested{})

	assert.Nil(t, req)
	assert.Equal(t, Idle, s.Status)
	assert.Empty(t, s.Failure)
	assert.Equal(t, booking.MsgEmail, s.Errors[booking.FieldEmail])
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	m := newTestMachine()
	before := validState(t, m)
	snapshot := before.clone()

	_, _ = m.Transition(before, Changed{Field: booking.FieldServiceCategory, Value: "detailing"})
	_, _ = m.Transition(before, SubmitRequested{})

	assert.Equal(t, snapshot, before)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "sending", Sending.String())
	assert.Equal(t, "submitted", Submitted.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
