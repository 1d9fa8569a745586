package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
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

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	if cause != nil {
		var apiErr *ApiErr
		if errors.As(cause, &apiErr) {
			return apiErr
		}

		errStr := cause.Error()
		switch {
		case errors.Is(cause, gorm.ErrRecordNotFound):
			e := NewNotFound(entity)
			e.Details, e.Cause = details, cause
			return e
		case errors.Is(cause, gorm.ErrDuplicatedKey),
			strings.Contains(errStr, "duplicate key"),
			strings.Contains(errStr, "UNIQUE constraint failed"):
			e := NewAlreadyExists(entity)
			e.Details, e.Cause = details, cause
			return e
		case errors.Is(cause, gorm.ErrForeignKeyViolated),
			strings.Contains(errStr, "foreign key constraint"),
			strings.Contains(errStr, "FOREIGN KEY constraint failed"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        fmt.Errorf("invalid reference in %s: %w", entity, ErrBadRequest),
				Details:    "The referenced resource does not exist or cannot be linked",
				Cause:      cause,
			}
		case strings.Contains(errStr, "connection refused"),
			strings.Contains(errStr, "failed to connect"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        ErrDatabaseConnection,
				Details:    "Unable to connect to database",
				Cause:      cause,
			}
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
