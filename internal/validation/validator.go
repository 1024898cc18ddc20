// Package validation provides the argument checks used by semantic node
// constructors and the query parser entry points. Validators are small
// values implementing Validator so that constructors can run several checks
// in one call and fail on the first violation.
package validation

import (
	"reflect"

	"github.com/paveg/odataq/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// NotNilValidator rejects nil arguments, including typed nils stored in an
// interface.
type NotNilValidator struct {
	value    interface{}
	argument string
	op       string
}

// NewNotNilValidator creates a validator for a required argument
func NewNotNilValidator(value interface{}, op, argument string) *NotNilValidator {
	return &NotNilValidator{
		value:    value,
		argument: argument,
		op:       op,
	}
}

// Validate checks that the value is not nil
func (v *NotNilValidator) Validate() error {
	if IsNil(v.value) {
		return errors.NewArgumentNilError(v.op, v.argument)
	}
	return nil
}

// NotEmptyValidator rejects empty strings
type NotEmptyValidator struct {
	value    string
	argument string
	op       string
}

// NewNotEmptyValidator creates a validator for a required string argument
func NewNotEmptyValidator(value, op, argument string) *NotEmptyValidator {
	return &NotEmptyValidator{
		value:    value,
		argument: argument,
		op:       op,
	}
}

// Validate checks that the string is not empty
func (v *NotEmptyValidator) Validate() error {
	if v.value == "" {
		return errors.NewArgumentError(v.op, v.argument, "must not be empty")
	}
	return nil
}

// NonNegativeValidator rejects negative integers
type NonNegativeValidator struct {
	value    int64
	argument string
	op       string
}

// NewNonNegativeValidator creates a validator for a non-negative integer argument
func NewNonNegativeValidator(value int64, op, argument string) *NonNegativeValidator {
	return &NonNegativeValidator{
		value:    value,
		argument: argument,
		op:       op,
	}
}

// Validate checks that the value is zero or greater
func (v *NonNegativeValidator) Validate() error {
	if v.value < 0 {
		return errors.NewArgumentError(v.op, v.argument, "must be non-negative")
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsNil reports whether value is nil or an interface holding a nil pointer,
// map, slice, func, chan or interface.
func IsNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Convenience validation functions

// NotNil is a convenience function for a single required argument
func NotNil(value interface{}, op, argument string) error {
	return NewNotNilValidator(value, op, argument).Validate()
}

// NotEmpty is a convenience function for a required string argument
func NotEmpty(value, op, argument string) error {
	return NewNotEmptyValidator(value, op, argument).Validate()
}

// NonNegative is a convenience function for non-negative integer validation
func NonNegative(value int64, op, argument string) error {
	return NewNonNegativeValidator(value, op, argument).Validate()
}

// ValidateAll runs validators in order and returns the first error
func ValidateAll(validators ...Validator) error {
	return NewCompoundValidator(validators...).Validate()
}
