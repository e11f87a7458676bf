package phone

import "strings"

const (
	maskToken     = "****"
	minMaskDigits = 7
)

// ValidateOptions controls ValidationError.
type ValidateOptions struct {
	Required bool
	// Country is an ISO 3166-1 alpha-2 code; empty means Ghana.
	Country string
}

// ValidationError returns "" when input is acceptable, or a message suitable
// for display next to a form field. Countries other than Ghana are not
// validated and always pass.
func (n *Normalizer) ValidationError(input string, opts ValidateOptions) string {
	if strings.TrimSpace(input) == "" {
		if opts.Required {
			return ReasonRequired
		}
		return ""
	}

	country := strings.ToUpper(strings.TrimSpace(opts.Country))
	if country != "" && country != CountryGhana {
		return ""
	}

	res := n.Parse(input)
	if res.IsValid() {
		return ""
	}
	return res.Reason()
}

// PrettyFormat renders a valid number as "0XX XXX XXXX". Anything else is
// returned unchanged.
func (n *Normalizer) PrettyFormat(input string) string {
	v, ok := n.Parse(input).Canonical()
	if !ok || len(v.National) != subscriberDigits+1 {
		return input
	}
	return v.National[:3] + " " + v.National[3:6] + " " + v.National[6:]
}

// DeriveCanonical projects a parse into the form stored with user and
// address records.
func (n *Normalizer) DeriveCanonical(input string) Record {
	res := n.Parse(input)
	rec := Record{
		Raw:     input,
		Valid:   res.IsValid(),
		Country: res.Country,
	}
	if v, ok := res.Canonical(); ok {
		rec.Canonical = v.E164
	}
	return rec
}

// NormalizeMany returns the E.164 form of every valid input. Invalid entries
// are dropped, so the result may be shorter than the input.
func (n *Normalizer) NormalizeMany(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if e164, ok := n.Normalize(in); ok {
			out = append(out, e164)
		}
	}
	return out
}

// ParseMany parses every input, one result per entry.
func (n *Normalizer) ParseMany(inputs []string) []Result {
	out := make([]Result, len(inputs))
	for i, in := range inputs {
		out[i] = n.Parse(in)
	}
	return out
}

// Mask hides the middle of a number for display: the first three digits, a
// fixed mask, then the last three digits ("024****567"). Inputs with fewer
// than seven digits are returned unchanged.
func Mask(input string) string {
	_, digits := clean(input)
	if len(digits) < minMaskDigits {
		return input
	}
	return digits[:3] + maskToken + digits[len(digits)-3:]
}

var defaultNormalizer = NewNormalizer(DefaultOptions())

// Parse classifies input using DefaultOptions.
func Parse(input string) Result { return defaultNormalizer.Parse(input) }

// ParseWithOptions classifies input using an explicit policy.
func ParseWithOptions(input string, opts Options) Result {
	return NewNormalizer(opts).Parse(input)
}

// Normalize returns the E.164 form of input using DefaultOptions.
func Normalize(input string) (string, bool) { return defaultNormalizer.Normalize(input) }

// IsValidGhanaPhone reports whether input is a Ghana number under DefaultOptions.
func IsValidGhanaPhone(input string) bool { return defaultNormalizer.IsValidGhanaPhone(input) }

// ValidationError validates input using DefaultOptions.
func ValidationError(input string, opts ValidateOptions) string {
	return defaultNormalizer.ValidationError(input, opts)
}

// PrettyFormat formats input using DefaultOptions.
func PrettyFormat(input string) string { return defaultNormalizer.PrettyFormat(input) }

// DeriveCanonical projects input using DefaultOptions.
func DeriveCanonical(input string) Record { return defaultNormalizer.DeriveCanonical(input) }

// NormalizeMany normalizes inputs using DefaultOptions.
func NormalizeMany(inputs []string) []string { return defaultNormalizer.NormalizeMany(inputs) }

// ParseMany parses inputs using DefaultOptions.
func ParseMany(inputs []string) []Result { return defaultNormalizer.ParseMany(inputs) }
