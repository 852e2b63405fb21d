package service

import (
	"errors"
	"reflect"
	"strings"

	"backoffice/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names, e.g. items[0].unit_price
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	// compare decimals numerically with gte/lte/gt/lt
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// validateStruct runs the validator tags of req and converts failures into
// a Validation error keyed by json field path.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request", nil)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = validationMessage(fe)
	}
	return apperror.Validation("validation failed", fields)
}

// fieldPath drops the struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "Must contain at least " + fe.Param() + " entries"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "datetime":
		return "Must be a date formatted as " + fe.Param()
	case "url":
		return "Invalid URL format"
	case "alpha":
		return "Must contain only letters"
	default:
		return "Invalid value"
	}
}

// mergeFields folds extra field messages into a Validation error. It
// returns nil when there is nothing to report.
func mergeFields(err error, extra map[string]string) error {
	if len(extra) == 0 {
		return err
	}
	fields := apperror.FieldsOf(err)
	if fields == nil {
		fields = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return apperror.Validation("validation failed", fields)
}
