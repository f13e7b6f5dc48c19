package wake

import (
	"sync"
	"time"

	"github.com/wakeward/was-core/internal/connection"
)

// Logger defines the logging interface used by the Arbiter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Event is one wake signal recorded inside a session. Immutable.
type Event struct {
	Handle connection.Handle
	Volume float64
	At     time.Time
}

// Session is one arbitration window aggregating near-simultaneous wake
// signals. The first signal opens the session; it closes on an explicit
// wake_end or when the grace timer fires, whichever comes first.
//
// All session state is guarded by the owning Arbiter's mutex, so a slot
// replacement and an event append can never interleave.
type Session struct {
	mu     *sync.Mutex // the owning arbiter's mutex
	events []Event
	done   bool
	timer  *time.Timer
}

// Done reports whether the session has been finalized.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Events returns a copy of the recorded wake events in arrival order.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// Winner returns the session's authoritative event: the one with the
// highest volume, ties broken by earliest arrival. A louder wake signal
// means the speaker is closer to that device.
func (s *Session) Winner() (Event, bool) {
	return Winner(s.Events())
}

// Winner selects the authoritative event from a list: highest volume wins,
// ties broken by earliest arrival time.
func Winner(events []Event) (Event, bool) {
	if len(events) == 0 {
		return Event{}, false
	}
	best := events[0]
	for _, e := range events[1:] {
		if e.Volume > best.Volume || (e.Volume == best.Volume && e.At.Before(best.At)) {
			best = e
		}
	}
	return best, true
}

// Notifier is called once per participating connection when a session
// finalizes, telling each device whether it won arbitration.
type Notifier func(h connection.Handle, won bool)

// Arbiter aggregates concurrent wake signals into one arbitrated trigger
// per utterance window. At most one session is open at any time; the open
// session is an explicit value owned by the arbiter, never ambient state.
//
// All public methods are thread-safe.
type Arbiter struct {
	mu      sync.Mutex
	current *Session

	grace  time.Duration
	notify Notifier
	logger Logger
}

// NewArbiter creates an arbiter whose sessions are finalized after the
// given grace period if no wake_end arrives first.
func NewArbiter(grace time.Duration) *Arbiter {
	return &Arbiter{
		grace:  grace,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the arbiter.
func (a *Arbiter) SetLogger(logger Logger) {
	a.logger = logger
}

// SetNotifier registers the callback used to tell each participating
// device whether it won when a session finalizes.
func (a *Arbiter) SetNotifier(fn Notifier) {
	a.notify = fn
}

// OnWakeStart records a wake signal. It opens a new session when none is
// open (or the previous one is already done) and appends to the open
// session otherwise. A nil volume means the signal carries no usable
// confidence and no event is recorded, but the session is still opened.
func (a *Arbiter) OnWakeStart(h connection.Handle, volume *float64) *Session {
	a.mu.Lock()

	if a.current == nil || a.current.done {
		s := &Session{mu: &a.mu}
		s.timer = time.AfterFunc(a.grace, func() {
			a.finalize(s, "grace period expired")
		})
		a.current = s
		a.logger.Debug("wake session opened", "handle", h)
	}

	s := a.current
	if volume != nil {
		s.events = append(s.events, Event{
			Handle: h,
			Volume: *volume,
			At:     time.Now(),
		})
	}

	a.mu.Unlock()
	return s
}

// OnWakeEnd finalizes the current session if one is open; otherwise it is
// a no-op.
func (a *Arbiter) OnWakeEnd(h connection.Handle) {
	a.mu.Lock()
	s := a.current
	a.mu.Unlock()

	if s != nil {
		a.finalize(s, "wake end received")
	}
}

// Close finalizes any open session. Used at shutdown so no timer goroutine
// outlives the arbiter's owner.
func (a *Arbiter) Close() {
	a.mu.Lock()
	s := a.current
	a.mu.Unlock()

	if s != nil {
		a.finalize(s, "arbiter closed")
	}
}

// finalize transitions a session to done exactly once, selects the winner,
// drops the session, and notifies the participants. Safe to call from both
// the grace timer and the explicit end path; the second call is a no-op.
func (a *Arbiter) finalize(s *Session, reason string) {
	a.mu.Lock()
	if s.done {
		a.mu.Unlock()
		return
	}
	s.done = true
	s.timer.Stop()

	events := make([]Event, len(s.events))
	copy(events, s.events)

	// Drop the session so the next wake signal opens a fresh one.
	if a.current == s {
		a.current = nil
	}
	a.mu.Unlock()

	winner, ok := Winner(events)
	if ok {
		a.logger.Info("wake session finalized",
			"reason", reason,
			"events", len(events),
			"winner", winner.Handle,
			"volume", winner.Volume,
		)
	} else {
		a.logger.Debug("wake session finalized with no events", "reason", reason)
	}

	if a.notify == nil || !ok {
		return
	}

	// Notify each participating connection exactly once.
	seen := make(map[connection.Handle]struct{}, len(events))
	for _, e := range events {
		if _, dup := seen[e.Handle]; dup {
			continue
		}
		seen[e.Handle] = struct{}{}
		a.notify(e.Handle, e.Handle == winner.Handle)
	}
}
