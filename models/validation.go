package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("%s: %s (value: %q)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ves ValidationErrors) Error() string {
	if len(ves) == 0 {
		return ""
	}
	if len(ves) == 1 {
		return ves[0].Error()
	}

	var messages []string
	for _, ve := range ves {
		messages = append(messages, ve.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

// HasField reports whether any error refers to field.
func (ves ValidationErrors) HasField(field string) bool {
	for _, ve := range ves {
		if ve.Field == field {
			return true
		}
	}
	return false
}

var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewValidator creates a new validator with custom validation rules
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validation functions
	v.RegisterValidation("app_id", validateAppID)

	return v
}

// validateAppID allows letters, digits, underscores and hyphens only
func validateAppID(fl validator.FieldLevel) bool {
	return appIDPattern.MatchString(fl.Field().String())
}

// convertValidatorErrors converts go-playground validator errors to our custom format.
// Field names are prefixed with prefix when it is not empty.
func convertValidatorErrors(err error, prefix string) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var errs ValidationErrors
	for _, ve := range validationErrors {
		field := ve.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: getValidationMessage(ve),
			Value:   fmt.Sprintf("%v", ve.Value()),
		})
	}
	return errs
}

// getValidationMessage returns a human-readable message for validation errors
func getValidationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "app_id":
		return "can only contain letters, numbers, underscores and hyphens"
	default:
		return ve.Error()
	}
}
