package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/propman/backend/internal/interfaces/http/dto"
)

// SetupValidator registers custom validators with gin's binding engine.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine type")
	}

	if err := v.RegisterValidation("condition", validateCondition); err != nil {
		return fmt.Errorf("register condition validator: %w", err)
	}
	return nil
}

// validateCondition accepts the item condition grades.
func validateCondition(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "GOOD", "DAMAGED", "MISSING", "REPAIRED", "REPLACED":
		return true
	}
	return false
}

// FormatValidationErrors converts validator errors into per-field
// detail messages for the error envelope.
func FormatValidationErrors(err error) []dto.ValidationDetail {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []dto.ValidationDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, dto.ValidationDetail{
			Field:   toSnakeCase(fe.Field()),
			Message: validationMessage(fe),
		})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	field := toSnakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "condition":
		return fmt.Sprintf("%s must be one of: GOOD, DAMAGED, MISSING, REPAIRED, REPLACED", field)
	default:
		return fmt.Sprintf("%s failed validation on %s", field, fe.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
