// Package validation wraps go-playground/validator with the field formats
// used by the partner backend.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	bhPattern    = regexp.MustCompile(`^BH\d{6}$`)
)

type Validator struct {
	v *validator.Validate
}

// New returns a validator with the phone10 and bhid tags registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bhid", func(fl validator.FieldLevel) bool {
		return bhPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// Var checks a single value against tag.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.v.Var(field, tag)
}

// OK is Var reduced to a bool.
func (v *Validator) OK(field interface{}, tag string) bool {
	return v.v.Var(field, tag) == nil
}
