package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf key so errors read like the
// YAML the operator wrote.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	return v
}

// Validate validates the configuration and returns an error if invalid.
// The service must not start with invalid config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

func formatValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var b strings.Builder

	b.WriteString("config validation failed:")

	for _, fe := range fieldErrs {
		b.WriteString("\n  ")
		b.WriteString(formatFieldError(fe))
	}

	return errors.New(b.String())
}

// fieldMessages are printf formats taking the field path and the tag
// parameter.
var fieldMessages = map[string]string{
	"required":    "%s is required%.0s",
	"required_if": "%s is required when %s",
	"min":         "%s must be at least %s",
	"max":         "%s must be at most %s",
	"oneof":       "%s must be one of: %s",
	"url":         "%s must be a valid URL%.0s",
	"startswith":  "%s must start with %q",
}

func formatFieldError(fe validator.FieldError) string {
	field := formatFieldPath(fe.Namespace())

	if format, ok := fieldMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, field, fe.Param())
	}

	return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
}

// formatFieldPath drops the root struct name: "Config.sync.batch_size"
// becomes "sync.batch_size".
func formatFieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return strings.ToLower(namespace)
	}

	return rest
}
