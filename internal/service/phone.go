package service

import (
	"fmt"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
	"github.com/utafrali/ghstore/pkg/phone"
)

// MaxPhoneBatch is the largest number of inputs NormalizeBatch accepts.
const MaxPhoneBatch = 100

// PhoneInspection is everything the storefront can say about one input.
type PhoneInspection struct {
	Result phone.Result `json:"result"`
	Pretty string       `json:"pretty"`
	Masked string       `json:"masked"`
	Record phone.Record `json:"record"`
}

// PhoneValidation is the outcome of a form-field check.
type PhoneValidation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// PhoneBatch is the result of normalizing several inputs at once.
// Normalized holds the E.164 form of the valid inputs only; Results has one
// entry per input.
type PhoneBatch struct {
	Normalized []string       `json:"normalized"`
	Results    []phone.Result `json:"results"`
}

// PhoneService exposes the phone normalizer under the configured policy.
type PhoneService struct {
	phones *phone.Normalizer
}

// NewPhoneService creates a phone service.
func NewPhoneService(phones *phone.Normalizer) *PhoneService {
	if phones == nil {
		phones = phone.NewNormalizer(phone.DefaultOptions())
	}
	return &PhoneService{phones: phones}
}

// Inspect parses input and returns its display and storage forms.
func (s *PhoneService) Inspect(input string) PhoneInspection {
	return PhoneInspection{
		Result: s.phones.Parse(input),
		Pretty: s.phones.PrettyFormat(input),
		Masked: phone.Mask(input),
		Record: s.phones.DeriveCanonical(input),
	}
}

// Validate checks input the way an address form does.
func (s *PhoneService) Validate(input string, opts phone.ValidateOptions) PhoneValidation {
	msg := s.phones.ValidationError(input, opts)
	return PhoneValidation{Valid: msg == "", Message: msg}
}

// NormalizeBatch normalizes up to MaxPhoneBatch inputs.
func (s *PhoneService) NormalizeBatch(inputs []string) (*PhoneBatch, error) {
	if len(inputs) > MaxPhoneBatch {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d numbers may be normalized at once", MaxPhoneBatch))
	}
	return &PhoneBatch{
		Normalized: s.phones.NormalizeMany(inputs),
		Results:    s.phones.ParseMany(inputs),
	}, nil
}
