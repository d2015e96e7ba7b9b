package domain

import "errors"

// Errors shared across modules. Module packages re-export the ones they
// produce so callers can match on either name.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAdmissionTimeout     = errors.New("admission timed out")
	ErrInvariantViolation   = errors.New("inventory invariant violation")
	ErrConfirmationRequired = errors.New("explicit confirmation required")
)
