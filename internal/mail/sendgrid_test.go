package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubSendGrid(resp *rest.Response, err error) (*SendGridSender, *[]*sgmail.SGMailV3) {
	var sent []*sgmail.SGMailV3
	s := &SendGridSender{send: func(_ context.Context, m *sgmail.SGMailV3) (*rest.Response, error) {
		sent = append(sent, m)
		return resp, err
	}}
	return s, &sent
}

func TestSendGrid_Success(t *testing.T) {
	s, sent := newStubSendGrid(&rest.Response{
		StatusCode: 202,
		Headers:    map[string][]string{"X-Message-Id": {"msg-123"}},
	}, nil)

	id, err := s.Send(context.Background(), Message{
		From:    "Car Detailing Website <bookings@example.com>",
		To:      []string{"bookings@ashinemobile.si"},
		ReplyTo: "jo@x.com",
		Subject: "Booking request from Jo – Full Detail",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)

	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, "Car Detailing Website", m.From.Name)
	assert.Equal(t, "bookings@example.com", m.From.Address)
	assert.Equal(t, "jo@x.com", m.ReplyTo.Address)
	assert.Equal(t, "Booking request from Jo – Full Detail", m.Subject)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "bookings@ashinemobile.si", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/html", m.Content[0].Type)
}

func TestSendGrid_ProviderError(t *testing.T) {
	s, _ := newStubSendGrid(&rest.Response{
		StatusCode: 401,
		Body:       `{"errors":[{"message":"The provided authorization grant is invalid, expired, or revoked","field":null}]}`,
	}, nil)

	_, err := s.Send(context.Background(), Message{From: DefaultFrom, To: []string{"a@b.com"}})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 401, pe.StatusCode)
	assert.Equal(t, "The provided authorization grant is invalid, expired, or revoked", err.Error())
}

func TestSendGrid_ProviderErrorWithoutBody(t *testing.T) {
	s, _ := newStubSendGrid(&rest.Response{StatusCode: 500, Body: "oops"}, nil)
	_, err := s.Send(context.Background(), Message{From: DefaultFrom, To: []string{"a@b.com"}})
	assert.EqualError(t, err, "email provider returned status 500")
}

func TestSendGrid_TransportError(t *testing.T) {
	s, _ := newStubSendGrid(nil, errors.New("dial tcp: timeout"))
	_, err := s.Send(context.Background(), Message{From: DefaultFrom, To: []string{"a@b.com"}})
	assert.EqualError(t, err, "sendgrid: dial tcp: timeout")
}

func TestSendGrid_InvalidAddresses(t *testing.T) {
	s, sent := newStubSendGrid(&rest.Response{StatusCode: 202}, nil)
	ctx := context.Background()

	_, err := s.Send(ctx, Message{From: DefaultFrom})
	assert.EqualError(t, err, "mail: no recipients")

	_, err = s.Send(ctx, Message{From: "not an address", To: []string{"a@b.com"}})
	assert.ErrorContains(t, err, "mail: from:")

	_, err = s.Send(ctx, Message{From: DefaultFrom, To: []string{"a@b.com"}, ReplyTo: "  "})
	assert.EqualError(t, err, "mail: reply-to: empty address")

	_, err = s.Send(ctx, Message{From: DefaultFrom, To: []string{" "}})
	assert.EqualError(t, err, "mail: to: empty address")

	assert.Empty(t, *sent)
}

// The booking form only checks local@domain.tld shape, so the provider must
// accept addresses that a strict RFC 5322 parser rejects.
func TestSendGrid_LenientCustomerAddresses(t *testing.T) {
	for _, addr := range []string{"jo..x@x.com", "jo,x@x.com", "jo.@x.com", `a"b@x.com`, "jo@x..com"} {
		t.Run(addr, func(t *testing.T) {
			s, sent := newStubSendGrid(&rest.Response{StatusCode: 202}, nil)

			_, err := s.Send(context.Background(), Message{
				From:    DefaultFrom,
				To:      []string{addr},
				ReplyTo: " " + addr + " ",
				HTML:    "<p>hi</p>",
			})
			require.NoError(t, err)

			require.Len(t, *sent, 1)
			m := (*sent)[0]
			assert.Equal(t, addr, m.ReplyTo.Address)
			assert.Empty(t, m.ReplyTo.Name)
			assert.Equal(t, addr, m.Personalizations[0].To[0].Address)
		})
	}
}

func TestSendGrid_RecipientDisplayNameIsParsed(t *testing.T) {
	s, sent := newStubSendGrid(&rest.Response{StatusCode: 202}, nil)

	_, err := s.Send(context.Background(), Message{
		From: DefaultFrom,
		To:   []string{"Bookings <bookings@ashinemobile.si>"},
	})
	require.NoError(t, err)

	to := (*sent)[0].Personalizations[0].To[0]
	assert.Equal(t, "Bookings", to.Name)
	assert.Equal(t, "bookings@ashinemobile.si", to.Address)
}

func TestNewSendGridSender(t *testing.T) {
	assert.NotNil(t, NewSendGridSender("SG.test").send)
}
