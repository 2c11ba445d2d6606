package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"quotebook/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return snake(f.Name)
		}
		return name
	})
	return v
}

func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// validateStruct runs v over s and converts failures to a ValidationError.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	verr := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "email":
		return "is not a valid email address"
	default:
		return "is invalid"
	}
}
