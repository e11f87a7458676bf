// Package phone parses free-form phone number text and normalizes Ghanaian
// numbers to their canonical E.164 (+233XXXXXXXXX) and national (0XXXXXXXXX)
// forms. Every function is total: malformed input never panics or errors, it
// produces a Result describing why the input was not accepted.
//
// Only the Ghana numbering plan is validated. Numbers from other countries are
// reported as unsupported rather than checked against their own plans.
package phone

import "encoding/json"

// CountryGhana is the ISO 3166-1 alpha-2 code of the Ghana numbering plan.
const CountryGhana = "GH"

const (
	ghanaCountryCode = "233"
	subscriberDigits = 9
)

// Human-readable reasons attached to results that are not valid.
const (
	ReasonEmpty              = "Empty input"
	ReasonMissingLeadingZero = "Missing leading 0 (e.g. 024...)"
	ReasonUnknownFormat      = "Unsupported or unknown country format"
	ReasonInvalidGhanaLength = "Invalid Ghana phone number length"
	ReasonRequired           = "Phone number is required."
)

// Outcome is the classification of a parsed number. It is one of Valid,
// Possible or Invalid; consumers switch on the concrete type so a canonical
// value can only be read from a Valid outcome.
type Outcome interface {
	isOutcome()
}

// Valid is a number that fully conforms to the Ghana numbering plan.
type Valid struct {
	E164     string
	National string
}

// Possible is a number that plausibly matches a known pattern but is not
// accepted under the active policy.
type Possible struct {
	Reason string
}

// Invalid is input that matches no accepted pattern.
type Invalid struct {
	Reason string
}

func (Valid) isOutcome()    {}
func (Possible) isOutcome() {}
func (Invalid) isOutcome()  {}

// Result is the immutable outcome of parsing one input string.
type Result struct {
	Raw     string
	Digits  string
	Country string
	Shape   Shape
	Outcome Outcome
}

// IsValid reports whether the input conforms to the Ghana numbering plan.
func (r Result) IsValid() bool {
	_, ok := r.Outcome.(Valid)
	return ok
}

// IsPossible reports whether the input plausibly matches a known pattern.
// A valid result is always possible.
func (r Result) IsPossible() bool {
	switch r.Outcome.(type) {
	case Valid, Possible:
		return true
	default:
		return false
	}
}

// Canonical returns the canonical forms when the result is valid.
func (r Result) Canonical() (Valid, bool) {
	v, ok := r.Outcome.(Valid)
	return v, ok
}

// Reason returns the explanation for a result that is not valid, or "".
func (r Result) Reason() string {
	switch o := r.Outcome.(type) {
	case Possible:
		return o.Reason
	case Invalid:
		return o.Reason
	default:
		return ""
	}
}

type resultJSON struct {
	Raw        string `json:"raw"`
	Digits     string `json:"digits"`
	Country    string `json:"country,omitempty"`
	Shape      Shape  `json:"shape,omitempty"`
	IsPossible bool   `json:"is_possible"`
	IsValid    bool   `json:"is_valid"`
	E164       string `json:"e164,omitempty"`
	National   string `json:"national,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// MarshalJSON flattens the outcome into the wire shape used by API clients.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Raw:        r.Raw,
		Digits:     r.Digits,
		Country:    r.Country,
		Shape:      r.Shape,
		IsPossible: r.IsPossible(),
		IsValid:    r.IsValid(),
		Reason:     r.Reason(),
	}
	if v, ok := r.Canonical(); ok {
		out.E164 = v.E164
		out.National = v.National
	}
	return json.Marshal(out)
}

// Record is the persistence-friendly projection of a parse, stored alongside
// user and address rows. Canonical is empty unless Valid is true.
type Record struct {
	Raw       string `json:"raw"`
	Canonical string `json:"canonical,omitempty"`
	Valid     bool   `json:"valid"`
	Country   string `json:"country,omitempty"`
}

// Options controls the parsing policy.
type Options struct {
	// AllowMissingLeadingZero accepts a bare 9-digit subscriber number such as
	// "241234567" as if it had been written "0241234567".
	AllowMissingLeadingZero bool

	// Strict reports unrecognised input as impossible. When false, any
	// non-empty input that matches no shape is reported as Possible.
	Strict bool
}

// DefaultOptions is the policy used by the package-level functions: bare
// 9-digit numbers are accepted and unrecognised input is impossible.
func DefaultOptions() Options {
	return Options{
		AllowMissingLeadingZero: true,
		Strict:                  true,
	}
}
