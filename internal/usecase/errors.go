package usecase

import "errors"

// Error kinds surfaced to the transport layer. Wrapped with %w so callers
// can pick the user-facing reaction with errors.Is.
var (
	// ErrInvalidInput: bad shape, length or charset. Re-prompt the user.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicate: a uniqueness constraint was hit. Re-prompt with the field.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrNotFound: referenced entity is gone. Redirect to a list view.
	ErrNotFound = errors.New("resource not found")
	// ErrDependencyUnavailable: an external service failed. Recoverable for
	// role grants, fatal to the operation for revocations.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrInvariant: the operation would break a structural rule (deleting a
	// captain, exceeding the roster cap). Rejected before any mutation.
	ErrInvariant = errors.New("operation violates invariant")
)
