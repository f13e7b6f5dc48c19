package endpoint

import "errors"

// Domain errors for command endpoint dispatch.
// Check with errors.Is().
var (
	// ErrNotActive is returned by Dispatch when no endpoint adapter is
	// installed. The caller surfaces the fixed speech result instead of
	// failing the connection.
	ErrNotActive = errors.New("endpoint: not active")

	// ErrUnreachable is returned when the configured backend cannot be
	// reached or rejects the command. The underlying cause is wrapped for
	// logging; the device only ever sees the fixed speech result.
	ErrUnreachable = errors.New("endpoint: unreachable")
)
