// Package validation wraps go-playground struct validation and renders its
// failures as domain errors carrying wire-ready field names.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "tutela/pkg/domain-errors"
	s "tutela/pkg/string"
)

var defaultValidator = newValidator()

// newValidator registers the notblank tag. required rejects only the zero
// value; subject and consent identifiers must also carry non-whitespace
// content.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks req against its validate tags and converts the first
// failure into a CodeValidation domain error.
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage renders the first tag failure as a client-facing message.
func ErrorMessage(err error) string {
	var fails validator.ValidationErrors
	if !errors.As(err, &fails) || len(fails) == 0 {
		return "invalid request body"
	}

	first := fails[0]
	name := first.Field()
	if name == "" {
		name = first.StructField()
	}
	field := s.ToSnakeCase(name)
	if field == "" {
		return "invalid request body"
	}

	switch first.ActualTag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, first.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, first.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, first.Param())
	default:
		return field + " is invalid"
	}
}
