package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Shape names the Ghana number layout an input matched.
type Shape string

const (
	ShapeInternational       Shape = "international"
	ShapeInternationalNoPlus Shape = "international_no_plus"
	ShapeNational            Shape = "national"
	ShapeMissingLeadingZero  Shape = "missing_leading_zero"
)

// shapeCase pairs a layout pattern with the rule that turns its captured
// 9-digit subscriber number into an outcome.
type shapeCase struct {
	shape   Shape
	pattern *regexp.Regexp
	accept  func(core string, opts Options) Outcome
}

// ghanaShapes is evaluated in order; the first match wins.
var ghanaShapes = []shapeCase{
	{
		shape:   ShapeInternational,
		pattern: regexp.MustCompile(`^\+233(\d{9})$`),
		accept:  acceptCore,
	},
	{
		shape:   ShapeInternationalNoPlus,
		pattern: regexp.MustCompile(`^233(\d{9})$`),
		accept:  acceptCore,
	},
	{
		shape:   ShapeNational,
		pattern: regexp.MustCompile(`^0(\d{9})$`),
		accept:  acceptCore,
	},
	{
		shape:   ShapeMissingLeadingZero,
		pattern: regexp.MustCompile(`^([1-9]\d{8})$`),
		accept: func(core string, opts Options) Outcome {
			if !opts.AllowMissingLeadingZero {
				return Possible{Reason: ReasonMissingLeadingZero}
			}
			return acceptCore(core, opts)
		},
	},
}

var ghanaLookalike = regexp.MustCompile(`^(\+?233|0)?\d{9}$`)

func acceptCore(core string, _ Options) Outcome {
	return Valid{
		E164:     "+" + ghanaCountryCode + core,
		National: "0" + core,
	}
}

// Normalizer applies one parsing policy. The zero value is not usable; build
// one with NewNormalizer.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer with the given policy.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Options returns the policy the normalizer was built with.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Parse classifies input against the Ghana numbering plan.
func (n *Normalizer) Parse(input string) Result {
	cleaned, digits := clean(input)
	res := Result{Raw: input, Digits: digits}

	if digits == "" {
		res.Outcome = Invalid{Reason: ReasonEmpty}
		return res
	}

	for _, sc := range ghanaShapes {
		m := sc.pattern.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		res.Country = CountryGhana
		res.Shape = sc.shape
		res.Outcome = sc.accept(m[1], n.opts)
		return res
	}

	reason := unmatchedReason(cleaned)
	if strings.HasPrefix(cleaned, "+"+ghanaCountryCode) {
		res.Country = CountryGhana
	}
	if n.opts.Strict {
		res.Outcome = Invalid{Reason: reason}
	} else {
		res.Outcome = Possible{Reason: reason}
	}
	return res
}

// Normalize returns the E.164 form of a valid number. It never guesses for
// invalid input.
func (n *Normalizer) Normalize(input string) (string, bool) {
	v, ok := n.Parse(input).Canonical()
	if !ok {
		return "", false
	}
	return v.E164, true
}

// IsValidGhanaPhone reports whether input looks like a Ghana number and
// normalizes under the normalizer's policy.
func (n *Normalizer) IsValidGhanaPhone(input string) bool {
	cleaned, _ := clean(input)
	if !ghanaLookalike.MatchString(cleaned) {
		return false
	}
	_, ok := n.Normalize(input)
	return ok
}

// clean keeps ASCII digits plus a '+' that appears before the first digit.
func clean(input string) (cleaned, digits string) {
	var b strings.Builder
	b.Grow(len(input))
	plus := false
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			plus = true
		}
	}
	digits = b.String()
	if plus {
		return "+" + digits, digits
	}
	return digits, digits
}

func unmatchedReason(cleaned string) string {
	if strings.HasPrefix(cleaned, "+"+ghanaCountryCode) {
		return ReasonInvalidGhanaLength
	}
	if region := regionOf(cleaned); region != "" && region != CountryGhana {
		return fmt.Sprintf("Unsupported country (%s)", region)
	}
	return ReasonUnknownFormat
}

// regionOf attributes an international number to a region using the
// libphonenumber metadata. It is only used to explain a rejection.
func regionOf(cleaned string) string {
	if !strings.HasPrefix(cleaned, "+") {
		return ""
	}
	num, err := phonenumbers.Parse(cleaned, "")
	if err != nil {
		return ""
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return region
}
