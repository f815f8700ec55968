package domain

import "errors"

// Domain errors (no external dependencies). Use cases return these wrapped with
// context via fmt.Errorf("...: %w", err); the HTTP layer matches with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoUnitAvailable   = errors.New("no unit available")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrDuplicateSerial   = errors.New("serial number already registered for this item")
	ErrUnauthorized      = errors.New("not authenticated")
	ErrForbidden         = errors.New("actor may not manage this department")
	ErrConflict          = errors.New("conflict with current state")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInfrastructure    = errors.New("infrastructure failure")
)
