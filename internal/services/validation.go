package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"invoicedesk/internal/common"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// inputValidator returns the shared validator. Field names in errors use the
// json tag so details match the request body.
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs struct tag validation and returns field details keyed by
// the json path, e.g. "items[0].quantity"
func validateStruct(v any) map[string]string {
	err := inputValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return map[string]string{"non_field_errors": err.Error()}
	}

	details := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = fieldMessage(fe)
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

func mergeDetails(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
	return dst
}

func validationResult(details map[string]string) error {
	if len(details) == 0 {
		return nil
	}
	return common.NewValidationErrors(details)
}
