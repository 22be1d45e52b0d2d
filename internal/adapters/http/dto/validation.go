package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps field errors found on a bound request.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps a body or query that could not be decoded.
	ErrBinding = errors.New("binding failed")
)

// Validator returns the shared validator. Field errors are keyed by the
// json or form name of the field.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(wireName)

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
})

func wireName(fld reflect.StructField) string {
	tag, ok := fld.Tag.Lookup("json")
	if !ok {
		tag = fld.Tag.Get("form")
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}

	return name
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v, then validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bindWith(c.ShouldBindJSON, v)
}

// BindQueryAndValidate decodes the query string into v, then validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindWith(c.ShouldBindQuery, v)
}

func bindWith(bind func(any) error, v any) error {
	if err := bind(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors maps each failing field to a readable message. Errors
// that carry no field errors give an empty map.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}

	for _, fe := range fieldErrs {
		out[fe.Field()] = describe(fe)
	}

	return out
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

func describe(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return "must not be blank"
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	case "oneof":
		return "must be one of: " + p
	case "min":
		return "must be at least " + p + unit(fe)
	case "max":
		return "must be at most " + p + unit(fe)
	default:
		return "failed validation: " + fe.Tag()
	}
}

// unit names what a length bound counts.
func unit(fe validator.FieldError) string {
	if fe.Kind() == reflect.String {
		return " characters"
	}

	return ""
}
