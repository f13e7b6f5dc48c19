// Package configstore persists the mutable user configuration.
//
// The user configuration selects which command endpoint integration is
// active (Home Assistant, MQTT, openHAB, or REST) and carries that
// endpoint's connection settings. It is stored as one JSON document in
// SQLite, edited at runtime through the admin API, and served to devices
// in reply to get_config.
//
// Get fails with ErrNotConfigured until a configuration has been saved;
// the server treats that as "start with no active endpoint".
package configstore
