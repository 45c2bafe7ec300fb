package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrInvalidHierarchy = errors.New("invalid hierarchy")
	ErrCycle            = errors.New("cycle")
	ErrOutOfRange       = errors.New("out of range")
	ErrNotFound         = errors.New("not found")
	ErrPersistence      = errors.New("persistence")
)

// Error is a rejected command. Reason is meant for the person who issued it.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// persistenceError classifies a repository failure. Errors that already
// carry a kind pass through untouched.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: ErrPersistence, Reason: op, Err: err}
}

// Kind returns a short machine-readable name for err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrInvalidHierarchy):
		return "invalid_hierarchy"
	case errors.Is(err, ErrCycle):
		return "cycle"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "persistence"
	}
}

// Reason returns the human-readable part of err.
func Reason(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	return err.Error()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("label"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// validateInput runs struct tag validation and turns the first failure into
// a ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: ErrValidation, Reason: "invalid input", Err: err}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return newError(ErrValidation, "%s is required", fe.Field())
	case "max":
		return newError(ErrValidation, "%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return newError(ErrValidation, "%s is invalid", fe.Field())
	}
}
