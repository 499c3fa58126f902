// Package booking holds the booking payload, the field rules shared by the
// form and the API, and the service catalog the form offers.
package booking

import (
	"regexp"
	"strings"
)

// BusinessInbox receives every booking notification.
const BusinessInbox = "bookings@ashinemobile.si"

// emailRE accepts local@domain.tld: non-space, non-@ runs around an @ and a dot.
var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has a local part, a domain and a TLD segment.
// It is a shape check, not RFC 5322 validation.
func ValidEmail(s string) bool {
	return emailRE.MatchString(s)
}

// Request is the JSON payload POSTed by the booking form.
//
// Service is the human-readable label composed by the form from the chosen
// category and package; ServiceCategory and Distance carry display labels too.
type Request struct {
	Name            string `json:"name" example:"Jo"`
	Email           string `json:"email" example:"jo@example.com"`
	Phone           string `json:"phone,omitempty" example:"+386 40 123 456"`
	CarType         string `json:"carType,omitempty" example:"VW Golf"`
	Service         string `json:"service" example:"Valeting – Full valet (From £120)"`
	ServiceCategory string `json:"serviceCategory,omitempty" example:"Valeting"`
	LocationType    string `json:"locationType,omitempty" example:"mobile"`
	Distance        string `json:"distance,omitempty" example:"Up to 10 km"`
	Date            string `json:"date" example:"2025-03-25"`
	Message         string `json:"message" example:"Please call ahead, parking is tight."`
	Locale          string `json:"locale,omitempty" example:"sl"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r Request) Trimmed() Request {
	return Request{
		Name:            strings.TrimSpace(r.Name),
		Email:           strings.TrimSpace(r.Email),
		Phone:           strings.TrimSpace(r.Phone),
		CarType:         strings.TrimSpace(r.CarType),
		Service:         strings.TrimSpace(r.Service),
		ServiceCategory: strings.TrimSpace(r.ServiceCategory),
		LocationType:    strings.TrimSpace(r.LocationType),
		Distance:        strings.TrimSpace(r.Distance),
		Date:            strings.TrimSpace(r.Date),
		Message:         strings.TrimSpace(r.Message),
		Locale:          strings.TrimSpace(r.Locale),
	}
}

// IsMobile reports whether the customer asked for the mobile service.
func (r Request) IsMobile() bool {
	return strings.TrimSpace(r.LocationType) == LocationMobile
}

// MissingFields lists the required fields that are blank after trimming, in
// the order name, email, service, date, message, then distance for mobile
// bookings.
func (r Request) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check(string(FieldName), r.Name)
	check(string(FieldEmail), r.Email)
	check(string(FieldService), r.Service)
	check(string(FieldDate), r.Date)
	check(string(FieldMessage), r.Message)
	if r.IsMobile() {
		check(string(FieldDistance), r.Distance)
	}
	return missing
}
