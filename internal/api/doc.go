// Package api provides the HTTP surface of WAS Core: the device WebSocket
// endpoint and the admin REST API.
//
// Devices connect to the WebSocket path and speak the JSON message
// protocol (hello, wake_start, wake_end, notify_done, cmd, goodbye).
// The admin API exposes connected clients, notification delivery, and the
// user configuration document that selects the command endpoint.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
