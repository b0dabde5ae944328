package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	msgRequired = "This field is required."
	msgEmail    = "Please enter a valid email address."
	msgInvalid  = "This value is not valid."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank treats whitespace-only input as empty.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks values against their `validate` tags and returns one
// message per failing field, keyed by the field's form name.
func Validate(values any) map[string]string {
	err := validate.Struct(values)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": msgInvalid}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		switch fe.Tag() {
		case "notblank", "required":
			out[fe.Field()] = msgRequired
		case "email":
			out[fe.Field()] = msgEmail
		default:
			out[fe.Field()] = msgInvalid
		}
	}
	return out
}
