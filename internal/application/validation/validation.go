// Package validation checks request DTOs before they reach domain code
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports field names from json tags so validation errors
// match the wire names callers submitted.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates a request struct against its validate tags and
// reports the first failing field as a validation error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return shared.NewValidationError(field, field+" is required")
		default:
			return shared.NewValidationError(field, field+" failed validation rule "+fe.Tag())
		}
	}
	return shared.NewValidationError("request", err.Error())
}
