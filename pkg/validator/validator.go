package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/utafrali/ghstore/pkg/phone"
)

const maxBodyBytes = 1 << 20

var (
	validate        = validator.New(validator.WithRequiredStructEnabled())
	phoneNormalizer atomic.Pointer[phone.Normalizer]
)

func init() {
	phoneNormalizer.Store(phone.NewNormalizer(phone.DefaultOptions()))

	// Money fields are compared numerically by gt/gte/lt/lte.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("ghphone", func(fl validator.FieldLevel) bool {
		return phoneNormalizer.Load().IsValidGhanaPhone(fl.Field().String())
	})
}

// SetPhoneNormalizer replaces the policy used by the "ghphone" tag.
func SetPhoneNormalizer(n *phone.Normalizer) {
	if n != nil {
		phoneNormalizer.Store(n)
	}
}

// Validate checks s against its validate tags. Tag failures come back as a
// *ValidationError; anything else (such as a non-struct argument) is
// returned unchanged.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// ValidationError lists the fields that failed their tags.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, "field '"+fe.Field()+"' "+describe(fe))
	}
	return strings.Join(parts, "; ")
}

// Fields maps each failing struct field name to a readable message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

// tagMessages holds message templates per tag. %s is replaced by the tag
// parameter.
var tagMessages = map[string]string{
	"required": "is required",
	"ghphone":  "must be a valid Ghana phone number",
	"uuid":     "must be a valid UUID",
	"alpha":    "must contain only letters",
	"dive":     "contains an invalid entry",
	"min":      "must be at least %s characters",
	"max":      "must be at most %s characters",
	"len":      "must be exactly %s characters",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"oneof":    "must be one of: %s",
}

func describe(fe validator.FieldError) string {
	tmpl, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return tmpl
}

// DecodeAndValidate reads at most 1 MiB of JSON from the request body,
// decodes it into dst, and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
