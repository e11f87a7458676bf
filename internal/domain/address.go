package domain

import (
	"strings"
	"time"

	"github.com/utafrali/ghstore/pkg/phone"
)

// Address is a shipping or billing address owned by a user. For Ghana
// addresses Phone holds the E.164 form; other countries keep the number as
// entered, trimmed.
type Address struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Label          string    `json:"label,omitempty"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	AddressLine1   string    `json:"address_line1"`
	AddressLine2   string    `json:"address_line2,omitempty"`
	City           string    `json:"city"`
	Region         string    `json:"region,omitempty"`
	DigitalAddress string    `json:"digital_address,omitempty"`
	CountryCode    string    `json:"country_code"`
	Phone          string    `json:"phone,omitempty"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsGhana reports whether the address is in Ghana. An empty country code
// counts as Ghana.
func (a *Address) IsGhana() bool {
	cc := strings.ToUpper(strings.TrimSpace(a.CountryCode))
	return cc == "" || cc == phone.CountryGhana
}

// DisplayPhone returns the phone in "0XX XXX XXXX" form when it is a Ghana
// number, or as stored otherwise.
func (a *Address) DisplayPhone() string {
	return phone.PrettyFormat(a.Phone)
}
