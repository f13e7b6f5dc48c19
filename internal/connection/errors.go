package connection

import "errors"

// Domain errors for the connection package.
// Check with errors.Is().
var (
	// ErrConnectionGone is returned when the target connection is no longer
	// registered. Callers treat this as benign: the device disconnected
	// between lookup and use.
	ErrConnectionGone = errors.New("connection: gone")
)
