package valueobject

import (
	"errors"
	"net/mail"
	"strings"
)

// errInvalidEmail is mapped to the INVALID_EMAIL domain error by callers
var errInvalidEmail = errors.New("a syntactically valid email address is required")

// Address is a value object representing a shipping or billing address.
// Email is mandatory: every captured order must be reachable by email.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Validate checks the address for the fields the engine depends on.
// Only the email is strictly mandatory; shipping quotes additionally
// need a complete destination (see IsComplete).
func (a Address) Validate() error {
	if !IsValidEmail(a.Email) {
		return errInvalidEmail
	}
	return nil
}

// IsComplete reports whether the address carries enough of a destination
// to compute shipping rates
func (a Address) IsComplete() bool {
	return a.PostalCode != "" && a.Country != "" && a.City != "" && a.State != ""
}

// IsDomestic reports whether the address is a US destination
func (a Address) IsDomestic() bool {
	return strings.EqualFold(strings.TrimSpace(a.Country), "US")
}

// NormalizedEmail returns the email lowercased and trimmed for comparisons
func (a Address) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(a.Email))
}

// IsValidEmail reports whether s parses as a bare RFC 5322 address
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Bob <bob@example.com>"
	return addr.Address == s
}
