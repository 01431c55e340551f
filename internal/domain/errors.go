package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched with errors.Is by callers that only care about
// the category of failure.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)

// ValidationError names the entity, field and rule that rejected a write.
// No silent correction: the caller gets the exact reason back.
type ValidationError struct {
	Entidad string
	Campo   string
	Regla   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s.%s: %s", e.Entidad, e.Campo, e.Regla)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a field-level rejection.
func NewValidationError(entidad, campo, regla string) error {
	return &ValidationError{Entidad: entidad, Campo: campo, Regla: regla}
}

// TransitionError reports a rejected state machine transition.
type TransitionError struct {
	Entidad string
	Desde   string
	Hacia   string
	Motivo  string
}

func (e *TransitionError) Error() string {
	if e.Motivo != "" {
		return fmt.Sprintf("invalid transition: %s: %s -> %s: %s", e.Entidad, e.Desde, e.Hacia, e.Motivo)
	}
	return fmt.Sprintf("invalid transition: %s: %s -> %s", e.Entidad, e.Desde, e.Hacia)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotFoundError reports a missing referenced entity.
type NotFoundError struct {
	Entidad string
	ID      int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: id=%d", e.Entidad, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
