// Package logging provides structured logging for WAS Core.
//
// It wraps log/slog with configuration-driven level and format selection
// and attaches default service/version fields to every record.
package logging
