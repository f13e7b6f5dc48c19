// Package endpoint routes device voice commands to the configured backend.
//
// A Router holds at most one active Adapter; reconfiguration swaps the
// adapter atomically with respect to in-flight dispatches. Four adapters
// exist: Home Assistant (persistent WebSocket, asynchronous answers),
// MQTT (fire-and-forget publish), openHAB and generic REST (synchronous
// HTTP). Dispatch failures are absorbed into fixed speech results so a
// misconfigured backend degrades the answer, never the device connection.
package endpoint
