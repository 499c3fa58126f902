package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("AShineMobile", booking.DefaultCatalog())
	require.NoError(t, err)
	return r
}

func sampleRequest() booking.Request {
	return booking.Request{
		Name:    "Jo",
		Email:   "jo@x.com",
		Service: "Full Detail",
		Date:    "25/03/2025",
		Message: "please call ahead",
	}
}

func TestBusiness_EscapesUserInput(t *testing.T) {
	r := newTestRenderer(t)
	req := sampleRequest()
	req.Name = `<script>alert("x")</script>`
	req.Message = "Tom & Jerry's <b>car</b>"

	subject, body, err := r.Business(req)
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<b>car</b>")
	assert.Contains(t, body, "Tom &amp; Jerry&#39;s &lt;b&gt;car&lt;/b&gt;")
	assert.NotContains(t, body, `"x"`)

	// The subject is plain text, not HTML.
	assert.Equal(t, `Booking request from <script>alert("x")</script> – Full Detail`, subject)
}

func TestBusiness_MessageLineBreaks(t *testing.T) {
	r := newTestRenderer(t)
	req := sampleRequest()
	req.Message = "line one\nline two\r\nline three"

	_, body, err := r.Business(req)
	require.NoError(t, err)
	assert.Contains(t, body, "<p>line one<br>line two<br>line three</p>")
}

func TestBusiness_OptionalLines(t *testing.T) {
	r := newTestRenderer(t)

	_, body, err := r.Business(sampleRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body, "<h2>New booking request</h2>"))
	assert.Contains(t, body, "<p><strong>Name:</strong> Jo</p>")
	assert.Contains(t, body, "<p><strong>Service:</strong> Full Detail</p>")
	assert.Contains(t, body, "<p><strong>Preferred date:</strong> 25/03/2025</p>")
	assert.NotContains(t, body, "Phone:")
	assert.NotContains(t, body, "Location:")
	assert.NotContains(t, body, "Service category:")

	req := sampleRequest()
	req.Phone = "040 123 456"
	req.ServiceCategory = "Valeting"
	req.LocationType = booking.LocationMobile
	req.Distance = "Up to 10 km"
	_, body, err = r.Business(req)
	require.NoError(t, err)
	assert.Contains(t, body, "<p><strong>Phone:</strong> 040 123 456</p>")
	assert.Contains(t, body, "<p><strong>Service category:</strong> Valeting</p>")
	assert.Contains(t, body, "<p><strong>Location:</strong> Mobile service (Up to 10 km)</p>")
}

func TestBusiness_TrimsSubject(t *testing.T) {
	req := sampleRequest()
	req.Name = "  Jo "
	req.Service = " Full Detail\n"
	assert.Equal(t, "Booking request from Jo – Full Detail", BusinessSubject(req))
}

func TestConfirmation_Localized(t *testing.T) {
	r := newTestRenderer(t)

	subject, body, err := r.Confirmation(sampleRequest(), booking.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "We received your booking request – AShineMobile", subject)
	assert.Contains(t, body, "Thanks, Jo!")
	assert.Contains(t, body, "Kind regards,<br>AShineMobile")

	subject, body, err = r.Confirmation(sampleRequest(), booking.LocaleSL)
	require.NoError(t, err)
	assert.Equal(t, "Prejeli smo vaše povpraševanje – AShineMobile", subject)
	assert.Contains(t, body, "Hvala, Jo!")

	// Unknown locales fall back to English.
	subject, _, err = r.Confirmation(sampleRequest(), booking.Locale("de"))
	require.NoError(t, err)
	assert.Equal(t, "We received your booking request – AShineMobile", subject)
}

func TestLocation_UnknownTypeUsesRawValue(t *testing.T) {
	r, err := NewRenderer("", nil)
	require.NoError(t, err)
	req := sampleRequest()
	req.LocationType = "garage"
	assert.Equal(t, "garage", r.location(req))
}
