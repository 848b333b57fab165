// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
// Every rule violation in the domain reports exactly one of these kinds.
var (
	// ErrValidation - malformed input at construction time.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState - operation not permitted in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict - the value being inserted already exists.
	ErrConflict = errors.New("conflict")

	// ErrIneligible - coach lacks a skill the course requires.
	ErrIneligible = errors.New("coach not eligible")

	// ErrUnavailable - coach has a scheduling conflict.
	ErrUnavailable = errors.New("coach not available")

	// ErrNotFound - store lookup found nothing.
	ErrNotFound = errors.New("entity not found")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "coach", "timeslot"
	Op      string // Operation that failed, e.g., "Confirm", "AssignCoach"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the base kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrInvalidState, ErrConflict, ErrIneligible, ErrUnavailable, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message returns the human-readable part of a domain error, falling back to err.Error().
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsState checks if the error is a lifecycle state error.
func IsState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsConflict checks if the error is a duplicate-value error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsEligibility checks if the error is a missing-skill error.
func IsEligibility(err error) bool {
	return errors.Is(err, ErrIneligible)
}

// IsAvailability checks if the error is a scheduling conflict.
func IsAvailability(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
