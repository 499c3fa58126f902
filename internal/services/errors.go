// Package services defines the booking intake logic.
// This file centralizes the service-level errors so handlers can translate
// them into HTTP results with errors.Is / errors.As.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidEmail is returned when the customer email is not local@domain.tld.
	ErrInvalidEmail = errors.New("Invalid email address")

	// ErrEmailNotConfigured is returned when no email provider credential is
	// configured. It is an operator problem, not a caller problem.
	ErrEmailNotConfigured = errors.New("Email is not configured. Please set SENDGRID_API_KEY.")
)

// MissingFieldsError lists required booking fields that were blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// DispatchError wraps a failure to deliver the business notification. Its
// message is the provider's.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string { return e.Err.Error() }

func (e *DispatchError) Unwrap() error { return e.Err }
