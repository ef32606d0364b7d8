package app

import (
	"errors"
	"fmt"
)

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// ServiceError is a task-service failure carrying a message fit for display.
type ServiceError struct {
	Message string
	Err     error
}

// Error implements error.
func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewServiceError builds a ServiceError with a formatted message.
func NewServiceError(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorMessage returns the display message for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return err.Error()
}
