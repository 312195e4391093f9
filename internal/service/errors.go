package service

import (
	"errors"
	"fmt"

	"github.com/Eursukkul/studio-booking/internal/slots"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrSlotConflict     = errors.New("slot already taken")
	ErrResourceNotFound = errors.New("resource not found")
	ErrStoreUnavailable = slots.ErrStoreUnavailable
)

// ValidationError is a user-correctable input problem. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SlotConflictError names the label rejected by the slot uniqueness index. It matches ErrSlotConflict.
type SlotConflictError struct {
	ResourceID uint
	Date       string
	Label      string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s on %s is already taken", e.Label, e.Date)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}
