package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Router holds the single active command endpoint adapter and dispatches
// device commands through it.
//
// The adapter slot is guarded by a RWMutex: Dispatch holds the read lock
// for the duration of a send so a concurrent SetAdapter waits for every
// in-flight dispatch to drain before the old adapter is stopped. A command
// therefore always runs against exactly one adapter, never a half-swapped
// one.
type Router struct {
	mu      sync.RWMutex
	adapter Adapter

	stopTimeout time.Duration
	logger      Logger
}

// NewRouter creates a router with no active adapter. stopTimeout bounds
// how long SetAdapter waits for an outgoing adapter's Stop.
func NewRouter(stopTimeout time.Duration) *Router {
	return &Router{
		stopTimeout: stopTimeout,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Active reports the name of the installed adapter, if any.
func (r *Router) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.adapter == nil {
		return "", false
	}
	return r.adapter.Name(), true
}

// SetAdapter replaces the active adapter. The outgoing adapter is stopped
// with a bounded wait; a Stop error or timeout is logged and the swap
// proceeds regardless, so a misbehaving backend cannot wedge a
// reconfiguration. Passing nil deactivates dispatch.
func (r *Router) SetAdapter(a Adapter) {
	r.mu.Lock()
	old := r.adapter
	r.adapter = a
	r.mu.Unlock()

	if old != nil {
		r.stopAdapter(old)
	}
	if a != nil {
		r.logger.Info("command endpoint activated", "endpoint", a.Name())
	} else if old != nil {
		r.logger.Info("command endpoint deactivated", "endpoint", old.Name())
	}
}

// Close stops the active adapter, if any. Called once at shutdown.
func (r *Router) Close() {
	r.SetAdapter(nil)
}

func (r *Router) stopAdapter(a Adapter) {
	done := make(chan error, 1)
	go func() { done <- a.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			r.logger.Warn("stopping command endpoint failed",
				"endpoint", a.Name(), "error", err)
		}
	case <-time.After(r.stopTimeout):
		r.logger.Warn("stopping command endpoint timed out",
			"endpoint", a.Name(), "timeout", r.stopTimeout)
	}
}

// Dispatch forwards a device command to the active adapter and returns the
// speech text owed to the device, or "" when no direct reply is owed.
//
// Failures never propagate raw to devices: with no adapter installed it
// returns SpeechNotActive with ErrNotActive, and any backend failure maps
// to SpeechUnreachable with ErrUnreachable wrapping the cause.
func (r *Router) Dispatch(ctx context.Context, data json.RawMessage, resp Responder) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.adapter == nil {
		return SpeechNotActive, ErrNotActive
	}

	raw, err := r.adapter.Send(ctx, data, resp)
	if err != nil {
		if !errors.Is(err, ErrUnreachable) {
			err = fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		r.logger.Warn("command dispatch failed",
			"endpoint", r.adapter.Name(), "error", err)
		return SpeechUnreachable, err
	}

	if raw == nil {
		return "", nil
	}
	if speech, ok := r.adapter.ParseResponse(raw); ok {
		return speech, nil
	}
	return "", nil
}
