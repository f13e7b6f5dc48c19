// Package config loads and validates WAS Core server configuration.
//
// Configuration is read from a YAML file with hardcoded defaults and
// WASCORE_* environment variable overrides. It intentionally covers only
// process-level settings (listener, WebSocket tuning, database path,
// telemetry, logging). The mutable user configuration — which command
// endpoint is active and its credentials — lives in the database and is
// handled by internal/configstore.
package config
