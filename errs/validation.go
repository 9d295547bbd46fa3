package errs

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidation = errors.New("validation failed")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failing field of one request instead of
// stopping at the first.
type ValidationError struct {
	Items []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

func (e *ValidationError) HasAny() bool {
	return e != nil && len(e.Items) > 0
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, item := range e.Items {
		if item.Field == field {
			return true
		}
	}
	return false
}

// Merge appends the items of other when it is a ValidationError and reports
// whether it was.
func (e *ValidationError) Merge(other error) bool {
	var verr *ValidationError
	if !errors.As(other, &verr) {
		return false
	}
	e.Items = append(e.Items, verr.Items...)
	return true
}

// OrNil returns e as an error only when something failed, so callers never
// hand back a typed nil.
func (e *ValidationError) OrNil() error {
	if !e.HasAny() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if !e.HasAny() {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, item.Field+": "+item.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
