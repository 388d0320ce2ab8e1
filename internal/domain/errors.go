package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput matches every *ValidationError via errors.Is.
	ErrInvalidInput = errors.New("invalid site input")

	// ErrStationNotFound is returned by station stores that hold no stations.
	ErrStationNotFound = errors.New("no groundwater station found")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func fieldError(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// ValidationError collects every problem found in a SiteInput.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Details(), "; "))
}

// Details returns one message per problem, in field order.
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Error())
	}
	return out
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}
