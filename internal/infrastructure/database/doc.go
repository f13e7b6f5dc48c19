// Package database provides SQLite connection management and schema
// migrations for WAS Core.
//
// The database holds the persisted user configuration and is deliberately
// small: one writer connection, WAL mode, embedded migrations applied at
// startup. Access patterns live in internal/configstore.
package database
