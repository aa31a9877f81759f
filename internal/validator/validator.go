package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator represents a validator instance
type Validator struct {
	validate *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		_ = validate.RegisterValidation("httpurl", validateHTTPURL)

		// Report config keys rather than Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})

	return &Validator{
		validate: validate,
	}
}

// Struct validates a struct
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("invalid validation error: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errMsgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errMsgs = append(errMsgs, formatError(fe))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(errMsgs, "; "))
}

// Var validates a single variable
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// formatError formats a validation error
func formatError(err validator.FieldError) string {
	field := err.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, err.Param())
	case "httpurl":
		return fmt.Sprintf("%s must be an absolute http or https URL", field)
	default:
		return fmt.Sprintf("%s failed on tag %s", field, err.Tag())
	}
}

// IsHTTPURL reports whether raw is an absolute http(s) URL with a host
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	return IsHTTPURL(fl.Field().String())
}
