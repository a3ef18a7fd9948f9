package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates a concurrent write lost a compare-and-swap or a unique key race.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrDelivery indicates that a statement could not be delivered to its destination.
var ErrDelivery = errors.New("notification delivery failed")

// ErrInvariantViolation indicates stored data broke a rule the system relies on.
// It should never happen under correct operation.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrUnauthorized indicates the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is used for infrastructure failures that have no better classification.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code along with the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the cause, falling back to ErrInternal so errors.Is keeps working.
func (e *AppError) Unwrap() error {
	if e.Err == nil {
		return ErrInternal
	}
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// DeliveryError describes why a statement notification failed.
// It matches ErrDelivery with errors.Is.
type DeliveryError struct {
	Reason string
	Detail string
}

func (e *DeliveryError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (%s)", ErrDelivery.Error(), e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrDelivery.Error(), e.Reason, e.Detail)
}

func (e *DeliveryError) Unwrap() error { return ErrDelivery }
