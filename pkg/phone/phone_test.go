package phone

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Parse
// ============================================================================

func TestParse_NationalWithSpaces(t *testing.T) {
	res := Parse("024 123 4567")

	require.True(t, res.IsValid())
	assert.True(t, res.IsPossible())
	assert.Equal(t, CountryGhana, res.Country)
	assert.Equal(t, ShapeNational, res.Shape)
	assert.Equal(t, "0241234567", res.Digits)

	v, ok := res.Canonical()
	require.True(t, ok)
	assert.Equal(t, "+233241234567", v.E164)
	assert.Equal(t, "0241234567", v.National)
	assert.Empty(t, res.Reason())
}

func TestParse_AcceptedShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		shape Shape
	}{
		{"e164", "+233241234567", ShapeInternational},
		{"e164 with punctuation", "+233 (24) 123-4567", ShapeInternational},
		{"country code without plus", "233241234567", ShapeInternationalNoPlus},
		{"national", "0241234567", ShapeNational},
		{"national with hyphens", "024-123-4567", ShapeNational},
		{"missing leading zero", "241234567", ShapeMissingLeadingZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			require.True(t, res.IsValid(), "reason: %s", res.Reason())
			assert.Equal(t, tt.shape, res.Shape)

			v, _ := res.Canonical()
			assert.Equal(t, "+233241234567", v.E164)
			assert.Equal(t, "0241234567", v.National)
		})
	}
}

func TestParse_MissingLeadingZero_Rejected(t *testing.T) {
	res := ParseWithOptions("241234567", Options{AllowMissingLeadingZero: false, Strict: true})

	assert.False(t, res.IsValid())
	assert.True(t, res.IsPossible())
	assert.Equal(t, ReasonMissingLeadingZero, res.Reason())
	assert.Equal(t, ShapeMissingLeadingZero, res.Shape)

	_, ok := res.Canonical()
	assert.False(t, ok)
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "()- ", "+"} {
		res := Parse(input)
		assert.False(t, res.IsValid(), input)
		assert.False(t, res.IsPossible(), input)
		assert.Equal(t, ReasonEmpty, res.Reason(), input)
		assert.Equal(t, input, res.Raw)
	}
}

func TestParse_TooShort(t *testing.T) {
	res := Parse("12345")

	assert.False(t, res.IsValid())
	assert.False(t, res.IsPossible())
	assert.Equal(t, ReasonUnknownFormat, res.Reason())
	assert.Empty(t, res.Country)
}

func TestParse_TooLong(t *testing.T) {
	res := Parse("02412345678901234567890")

	assert.False(t, res.IsValid())
	assert.False(t, res.IsPossible())
	assert.NotEmpty(t, res.Reason())
}

func TestParse_GhanaPrefixWrongLength(t *testing.T) {
	res := Parse("+233 24 123 456")

	assert.False(t, res.IsValid())
	assert.Equal(t, ReasonInvalidGhanaLength, res.Reason())
	assert.Equal(t, CountryGhana, res.Country)
}

func TestParse_ForeignNumberNamesCountry(t *testing.T) {
	res := Parse("+33 1 23 45 67 89")

	assert.False(t, res.IsValid())
	assert.False(t, res.IsPossible())
	assert.Contains(t, res.Reason(), "Unsupported country")
	assert.Contains(t, res.Reason(), "FR")
	assert.Empty(t, res.Country)
}

func TestParse_NonStrictUnknownIsPossible(t *testing.T) {
	res := ParseWithOptions("12345", Options{AllowMissingLeadingZero: true, Strict: false})

	assert.False(t, res.IsValid())
	assert.True(t, res.IsPossible())
	assert.Equal(t, ReasonUnknownFormat, res.Reason())
}

func TestParse_PlusOnlyCountsBeforeDigits(t *testing.T) {
	// A '+' after the first digit is formatting noise, not a country marker.
	res := Parse("0+241234567")

	require.True(t, res.IsValid())
	assert.Equal(t, ShapeNational, res.Shape)
}

func TestParse_NineDigitsWithLeadingZeroIsInvalid(t *testing.T) {
	res := Parse("024123456")

	assert.False(t, res.IsValid())
	assert.False(t, res.IsPossible())
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Parse("0241234567"))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, true, out["is_valid"])
	assert.Equal(t, true, out["is_possible"])
	assert.Equal(t, "+233241234567", out["e164"])
	assert.Equal(t, "0241234567", out["national"])
	assert.NotContains(t, out, "reason")

	data, err = json.Marshal(Parse("12345"))
	require.NoError(t, err)
	out = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, false, out["is_valid"])
	assert.NotContains(t, out, "e164")
	assert.NotContains(t, out, "national")
	assert.Equal(t, ReasonUnknownFormat, out["reason"])
}

// ============================================================================
// Normalize / IsValidGhanaPhone
// ============================================================================

func TestNormalize(t *testing.T) {
	e164, ok := Normalize("024 123 4567")
	assert.True(t, ok)
	assert.Equal(t, "+233241234567", e164)

	e164, ok = Normalize("12345")
	assert.False(t, ok)
	assert.Empty(t, e164)
}

func TestNormalize_StrictPolicy(t *testing.T) {
	n := NewNormalizer(Options{AllowMissingLeadingZero: false, Strict: true})

	_, ok := n.Normalize("241234567")
	assert.False(t, ok)

	e164, ok := n.Normalize("0241234567")
	assert.True(t, ok)
	assert.Equal(t, "+233241234567", e164)
}

func TestIsValidGhanaPhone(t *testing.T) {
	assert.True(t, IsValidGhanaPhone("0241234567"))
	assert.True(t, IsValidGhanaPhone("+233 24 123 4567"))
	assert.True(t, IsValidGhanaPhone("233241234567"))
	assert.True(t, IsValidGhanaPhone("241234567"))

	assert.False(t, IsValidGhanaPhone(""))
	assert.False(t, IsValidGhanaPhone("12345"))
	assert.False(t, IsValidGhanaPhone("+14155552671"))
	assert.False(t, IsValidGhanaPhone("024123456"))
}

// ============================================================================
// ValidationError
// ============================================================================

func TestValidationError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  ValidateOptions
		want  string
	}{
		{"blank required", "  ", ValidateOptions{Required: true}, ReasonRequired},
		{"blank optional", "", ValidateOptions{}, ""},
		{"valid", "0241234567", ValidateOptions{Required: true}, ""},
		{"valid lower-case country", "0241234567", ValidateOptions{Country: "gh"}, ""},
		{"invalid", "12345", ValidateOptions{Required: true}, ReasonUnknownFormat},
		{"other country passes through", "12345", ValidateOptions{Country: "NG"}, ""},
		{"other country still requires value", "", ValidateOptions{Required: true, Country: "NG"}, ReasonRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidationError(tt.input, tt.opts))
		})
	}
}

func TestValidationError_StrictPolicySurfacesMissingZero(t *testing.T) {
	n := NewNormalizer(Options{AllowMissingLeadingZero: false, Strict: true})
	assert.Equal(t, ReasonMissingLeadingZero, n.ValidationError("241234567", ValidateOptions{Required: true}))
}

// ============================================================================
// Display helpers
// ============================================================================

func TestPrettyFormat(t *testing.T) {
	assert.Equal(t, "024 123 4567", PrettyFormat("0241234567"))
	assert.Equal(t, "024 123 4567", PrettyFormat("+233241234567"))
	assert.Equal(t, "024 123 4567", PrettyFormat("241234567"))

	assert.Equal(t, "12345", PrettyFormat("12345"))
	assert.Equal(t, "+1 415 555 2671", PrettyFormat("+1 415 555 2671"))
	assert.Equal(t, "", PrettyFormat(""))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "024****567", Mask("0241234567"))
	assert.Equal(t, "024****567", Mask("024 123 4567"))
	assert.Equal(t, "233****567", Mask("+233241234567"))
	assert.Equal(t, "123****567", Mask("1234567"))

	assert.Equal(t, "123456", Mask("123456"))
	assert.Equal(t, "", Mask(""))
}

func TestDeriveCanonical(t *testing.T) {
	rec := DeriveCanonical("024 123 4567")
	assert.Equal(t, Record{Raw: "024 123 4567", Canonical: "+233241234567", Valid: true, Country: CountryGhana}, rec)

	rec = DeriveCanonical("12345")
	assert.Equal(t, "12345", rec.Raw)
	assert.False(t, rec.Valid)
	assert.Empty(t, rec.Canonical)
}

// ============================================================================
// Batch helpers
// ============================================================================

func TestNormalizeMany_DropsInvalid(t *testing.T) {
	got := NormalizeMany([]string{"0241234567", "nope", "233201112222", "", "+233501234567"})
	assert.Equal(t, []string{"+233241234567", "+233201112222", "+233501234567"}, got)
}

func TestNormalizeMany_Empty(t *testing.T) {
	assert.Empty(t, NormalizeMany(nil))
}

func TestParseMany_OneToOne(t *testing.T) {
	inputs := []string{"0241234567", "nope", ""}
	got := ParseMany(inputs)

	require.Len(t, got, len(inputs))
	assert.True(t, got[0].IsValid())
	assert.False(t, got[1].IsValid())
	assert.Equal(t, ReasonEmpty, got[2].Reason())
	for i := range inputs {
		assert.Equal(t, inputs[i], got[i].Raw)
	}
}
