package tsdb

import "errors"

// Domain errors for telemetry operations.
// Check with errors.Is().
var (
	// ErrDisabled indicates telemetry is disabled in configuration.
	ErrDisabled = errors.New("tsdb: telemetry disabled")

	// ErrConnectionFailed indicates the InfluxDB server could not be reached.
	ErrConnectionFailed = errors.New("tsdb: connection failed")
)
