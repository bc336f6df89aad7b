package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to its first validation message
type FieldErrors map[string]string

// Validator checks form inputs against their `validate` tags and renders
// failures as human messages keyed by the `form` tag name
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator for form inputs
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return &Validator{validate: validate}
}

// Validate returns nil when in passes, otherwise one message per failing field
func (v *Validator) Validate(in any) FieldErrors {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	t := reflect.Indirect(reflect.ValueOf(in)).Type()
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe, label(t, fe.StructField()))
	}
	return out
}

func label(t reflect.Type, structField string) string {
	if f, ok := t.FieldByName(structField); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return structField
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}
