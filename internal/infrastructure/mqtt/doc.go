// Package mqtt wraps paho.mqtt.golang with the small publishing surface
// the command endpoint needs: connect with optional TLS and credentials,
// publish with an acknowledgment timeout, disconnect. Reconnection is
// delegated to paho's auto-reconnect with capped backoff.
package mqtt
