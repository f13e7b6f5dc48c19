// Package wake arbitrates simultaneous wake-word detections.
//
// When several devices hear the same utterance, each reports a wake signal
// with the volume it detected. The arbiter aggregates signals arriving
// within one window into a single session, then selects the authoritative
// device — highest volume, earliest arrival on ties — and tells every
// participant whether it won so the losers can mute.
//
// A session ends on an explicit wake_end or after a bounded grace period,
// so stale sessions can never accumulate.
package wake
