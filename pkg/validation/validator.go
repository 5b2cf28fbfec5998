// Package validation checks imported documents and configuration before
// anything reaches the simulation engine.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxNodes bounds the size of an imported graph
	MaxNodes = 1_000_000
	// MaxTimesteps bounds a single run
	MaxTimesteps = 100_000
	// MaxSweepRuns bounds a single sweep
	MaxSweepRuns = 10_000
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	validate.RegisterValidation("probability", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return IsProbability(fl.Field().Float())
		default:
			return false
		}
	})
}

// IsProbability reports whether v is a finite value in [0,1].
func IsProbability(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Struct validates v against its `validate` tags and returns the first
// failure in a user-friendly form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func Var(name string, v any, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(name, verrs[0])
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		return describe(fieldPath(e), e)
	}

	return err
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func describe(field string, e validator.FieldError) error {
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s", field, param)
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s", field, param)
	case "gt":
		return fmt.Errorf("%s: must be greater than %s", field, param)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s]", field, param)
	case "probability":
		return fmt.Errorf("%s: value %v is outside [0,1]", field, e.Value())
	case "dive":
		return fmt.Errorf("%s: invalid element in array", field)
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
