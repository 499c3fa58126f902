package booking

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation messages shown next to form fields.
const (
	MsgName         = "Please enter your name"
	MsgEmail        = "Please enter a valid email address"
	MsgCategory     = "Please select a service category"
	MsgPackage      = "Please select a package"
	MsgLocation     = "Please choose a valid location"
	MsgDistance     = "Please select a distance"
	MsgDateRequired = "Please choose a preferred date"
	MsgDateInvalid  = "Please enter a valid date"
	MsgDatePast     = "Please choose a date from today onwards"
	MsgMessage      = "Please add a few more details (min 10 characters)"
)

const (
	minNameLen    = 2
	minMessageLen = 10
	minYear       = 2020
	maxYear       = 2040
)

// ErrInvalidDate is returned by ParseDate for input that is not a date.
var ErrInvalidDate = errors.New("invalid date")

var dmyRE = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// ParseDate accepts the ISO form a native date picker submits (2025-03-25)
// and the typed DD/MM/YYYY form (25/03/2025). The year must be within
// 2020..2040 and the day must exist in the month.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}

	var d, m, y int
	if mm := dmyRE.FindStringSubmatch(s); mm != nil {
		d, _ = strconv.Atoi(mm[1])
		m, _ = strconv.Atoi(mm[2])
		y, _ = strconv.Atoi(mm[3])
	} else if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		d, m, y = t.Day(), int(t.Month()), t.Year()
	} else {
		return time.Time{}, ErrInvalidDate
	}

	if y < minYear || y > maxYear || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, ErrInvalidDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		// 31/02 normalizes into March.
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Validator applies the per-field rules of the booking form.
type Validator struct {
	catalog *Catalog
	now     func() time.Time
}

// NewValidator returns a Validator that checks selections against cat and
// compares dates with now. A nil cat skips membership checks; a nil now uses
// time.Now.
func NewValidator(cat *Catalog, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{catalog: cat, now: now}
}

// ValidateField returns the message for raw as the value of f, or "" when the
// value is acceptable. form supplies the other fields for rules that depend on
// them (distance on locationType, package on category).
func (v *Validator) ValidateField(f Field, raw string, form Values) string {
	val := strings.TrimSpace(raw)

	switch f {
	case FieldName:
		if utf8.RuneCountInString(val) < minNameLen {
			return MsgName
		}
	case FieldEmail:
		if val == "" || !ValidEmail(val) {
			return MsgEmail
		}
	case FieldPhone:
		// Optional, free format.
	case FieldServiceCategory:
		if val == "" {
			return MsgCategory
		}
		if v.catalog != nil {
			if _, ok := v.catalog.Category(val); !ok {
				return MsgCategory
			}
		}
	case FieldService:
		if val == "" {
			return MsgPackage
		}
		if v.catalog != nil {
			if _, ok := v.catalog.Package(strings.TrimSpace(form[FieldServiceCategory]), val); !ok {
				return MsgPackage
			}
		}
	case FieldLocationType:
		if val != "" && v.catalog != nil {
			if _, ok := findOption(v.catalog.LocationTypes, val); !ok {
				return MsgLocation
			}
		}
	case FieldDistance:
		if strings.TrimSpace(form[FieldLocationType]) != LocationMobile {
			return ""
		}
		if val == "" {
			return MsgDistance
		}
		if v.catalog != nil {
			if _, ok := findOption(v.catalog.Distances, val); !ok {
				return MsgDistance
			}
		}
	case FieldDate:
		return v.validateDate(val)
	case FieldMessage:
		if utf8.RuneCountInString(val) < minMessageLen {
			return MsgMessage
		}
	}
	return ""
}

func (v *Validator) validateDate(val string) string {
	if val == "" {
		return MsgDateRequired
	}
	now := v.now()
	t, err := ParseDate(val, now.Location())
	if err != nil {
		return MsgDateInvalid
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		return MsgDatePast
	}
	return ""
}

// ValidateAll runs every field rule against form and returns the messages of
// the failing fields. An empty result means the form can be submitted.
func (v *Validator) ValidateAll(form Values) Errors {
	errs := Errors{}
	for _, f := range FormFields {
		if msg := v.ValidateField(f, form[f], form); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}
