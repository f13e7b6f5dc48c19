package configstore

import "errors"

// Domain errors for the configstore package.
// Check with errors.Is().
var (
	// ErrNotConfigured is returned when no user configuration has been
	// stored yet. Callers treat this as "run with no active endpoint",
	// not as a failure.
	ErrNotConfigured = errors.New("configstore: not configured")

	// ErrInvalidConfig is returned when a configuration document fails
	// validation.
	ErrInvalidConfig = errors.New("configstore: invalid configuration")
)
