package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationSubjects = map[booking.Locale]string{
	booking.LocaleEN: "We received your booking request",
	booking.LocaleSL: "Prejeli smo vaše povpraševanje",
}

// Renderer turns a booking into the business notification and the customer
// confirmation. Every interpolated value is HTML-escaped; the free-text
// message additionally has its line breaks preserved.
type Renderer struct {
	brand   string
	catalog *booking.Catalog
	tpl     *template.Template
}

// NewRenderer parses the embedded templates. cat resolves location ids to
// labels and may be nil.
func NewRenderer(brand string, cat *booking.Catalog) (*Renderer, error) {
	tpl, err := template.New("mail").
		Funcs(template.FuncMap{"nl2br": nl2br}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parse templates: %w", err)
	}
	return &Renderer{brand: brand, catalog: cat, tpl: tpl}, nil
}

type emailData struct {
	booking.Request
	Brand    string
	Location string
}

// BusinessSubject is the subject line of the notification sent to the inbox.
func BusinessSubject(r booking.Request) string {
	return "Booking request from " + strings.TrimSpace(r.Name) + " – " + strings.TrimSpace(r.Service)
}

// Business renders the notification for the business inbox.
func (r *Renderer) Business(req booking.Request) (subject, body string, err error) {
	req = req.Trimmed()
	body, err = r.execute("business", req)
	return BusinessSubject(req), body, err
}

// Confirmation renders the acknowledgement sent to the customer in loc.
func (r *Renderer) Confirmation(req booking.Request, loc booking.Locale) (subject, body string, err error) {
	req = req.Trimmed()
	name := "confirmation_" + string(loc)
	if r.tpl.Lookup(name) == nil {
		loc = booking.LocaleEN
		name = "confirmation_en"
	}
	subject = confirmationSubjects[loc]
	if r.brand != "" {
		subject += " – " + r.brand
	}
	body, err = r.execute(name, req)
	return subject, body, err
}

func (r *Renderer) execute(name string, req booking.Request) (string, error) {
	var buf bytes.Buffer
	data := emailData{Request: req, Brand: r.brand, Location: r.location(req)}
	if err := r.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// location describes where the service happens, e.g.
// "Mobile service (Up to 10 km)". Empty when no location was chosen.
func (r *Renderer) location(req booking.Request) string {
	if req.LocationType == "" {
		return ""
	}
	label := req.LocationType
	if r.catalog != nil {
		if l := r.catalog.LocationLabel(req.LocationType); l != "" {
			label = l
		}
	}
	if req.IsMobile() && req.Distance != "" {
		label += " (" + req.Distance + ")"
	}
	return label
}

// nl2br escapes s and turns line breaks into <br>.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
}
