package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrDatabaseQuery        = errors.New("database query failed")
	ErrForeignKeyConstraint = errors.New("still referenced")
)

func NewAlreadyExists(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%s %w", entity, ErrAlreadyExists),
	}
}

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

func NewForeignKeyConstraintError(entity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%s %w", entity, ErrForeignKeyConstraint),
		Details:    "other records depend on it",
		Cause:      cause,
	}
}

// NewDatabaseError classifies a driver or transport error raised while running
// operation against entity. Errors that already carry a status pass through.
func NewDatabaseError(operation, entity string, cause error) error {
	if cause == nil {
		return nil
	}
	var apiErr *ApiErr
	if errors.As(cause, &apiErr) || errors.Is(cause, ErrValidation) {
		return cause
	}

	details := fmt.Sprintf("Failed to %s %s", operation, entity)
	if isUnavailable(cause) {
		return NewStorageUnavailable(details, cause)
	}

	errStr := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "unique constraint"):
		if strings.Contains(errStr, "slug") {
			return NewDuplicateSlug(entity, "")
		}
		return &ApiErr{
			StatusCode: http.StatusConflict,
			err:        fmt.Errorf("%s %w", entity, ErrAlreadyExists),
			Details:    details,
			Cause:      cause,
		}
	case strings.Contains(errStr, "foreign key constraint"):
		return NewForeignKeyConstraintError(entity, cause)
	case strings.Contains(errStr, "record not found"):
		return NewNotFound(entity)
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrStorageUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"bad connection",
		"database is closed",
		"i/o timeout",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsForeignKeyConstraintError(err error) bool {
	return errors.Is(err, ErrForeignKeyConstraint)
}
