package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Unauthorized = &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrUnauthorized}
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
)

// Request & input-validation errors
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidField         = errors.New("invalid field")
	ErrMaxBodySizeExceeded  = errors.New("max body size exceeded")
)

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
	}
}

func NewInvalidSessionError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidSession,
		Cause:      cause,
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMissingRequiredField,
		Details:    fmt.Sprintf("Missing required field: %s", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMaxBodySizeExceeded,
		Details:    fmt.Sprintf("Request body size exceeded maximum allowed size of %d bytes", maxSize),
		Field:      "body_size",
	}
}

func IsInvalidCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsInvalidSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSession)
}

func IsMissingRequiredFieldError(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

func IsInvalidFieldError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}
