package appointment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/salonelite/salon-booking/internal/session"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("appointment not accessible to this actor")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError lists every missing or malformed booking field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: missing or invalid " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type TransitionError struct {
	From Status
	To   Status
	Role session.Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s for role %s", e.From, e.To, e.Role)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
