package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrConflict
	ErrInternal
)

// SlotTimeFormat is how conflicting slots are rendered in messages.
const SlotTimeFormat = "2006-01-02 15:04"

// NewNotFound reports an absent record. Stores return it for update and delete
// on unknown ids; callers treat it as a no-op signal.
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// NewValidation reports a failed pre-condition on a single field.
func NewValidation(field, reason string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Field:   field,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}

// NewConflict reports a physician slot that is already booked.
func NewConflict(physicianID string, at time.Time) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Field:   "date_time",
		Message: fmt.Sprintf("slot already taken at %s for physician %s", at.Format(SlotTimeFormat), physicianID),
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrNotFound
}

func IsValidation(err error) bool {
	return err != nil && CodeOf(err) == ErrValidation
}

func IsConflict(err error) bool {
	return err != nil && CodeOf(err) == ErrConflict
}

func IsUnauthorized(err error) bool {
	return err != nil && CodeOf(err) == ErrUnauthorized
}
