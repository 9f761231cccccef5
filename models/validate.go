package models

import (
	"reflect"
	"strings"

	"natours/errs"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the validate tags of any struct and appends the extra
// rule violations given by the caller.
func ValidateStruct(s interface{}, extra ...string) error {
	messages := []string{}
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			messages = append(messages, errs.FieldMessage(fe))
		}
	}
	for _, msg := range extra {
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return errs.Validation(messages...)
}
