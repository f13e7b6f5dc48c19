// Package notify implements the acknowledgment-tracked notification queue.
//
// A notification is written to the target device immediately and recorded
// as pending until the device replies with notify_done carrying the same
// id. Pending entries are purged when their connection disconnects; there
// is deliberately no retry or time-based expiry.
package notify
