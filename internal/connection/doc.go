// Package connection provides the registry of live device connections.
//
// Each voice satellite holds one persistent WebSocket to the server; the
// registry tracks those connections and their mutable identity metadata
// (hostname, platform, MAC address) reported through hello messages.
//
// The registry owns Client records exclusively. Other components hold only
// Handles and reach a device's outbound path through Registry.Write, which
// fails with ErrConnectionGone once the device is unregistered.
package connection
