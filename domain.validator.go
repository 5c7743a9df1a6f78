package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var bookValidator = newBookValidator()

func newBookValidator() *validator.Validate {
	v := validator.New()
	// report fields with their json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// InputError describes the first constraint a submitted book violates.
type InputError struct {
	Field string
	Rule  string
	Param string
}

func (e *InputError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("the %s is required", e.Field)
	case "lt":
		return fmt.Sprintf("the %s must be less than %s", e.Field, e.Param)
	default:
		return fmt.Sprintf("the %s is invalid", e.Field)
	}
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// ValidateBookInput checks the submitted fields in declaration order and
// reports the first violated constraint. It has no side effect.
func ValidateBookInput(in BookInput) error {
	err := bookValidator.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fe := ve[0]
	return &InputError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
}
