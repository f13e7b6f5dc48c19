package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wakeward/was-core/internal/connection"
)

// Logger defines the logging interface used by the Queue.
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

// Pending is a sent-but-not-yet-acknowledged notification.
type Pending struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// wireNotification is the message shape written to the device.
type wireNotification struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Queue delivers out-of-band notifications to device connections and
// tracks acknowledgment. Entries are keyed by (handle, notification id)
// and live until the device acks with notify_done or disconnects.
//
// Acknowledgment is advisory bookkeeping, not a delivery guarantee: there
// is no retry and no expiry on unacknowledged entries.
//
// All public methods are thread-safe.
type Queue struct {
	registry *connection.Registry

	mu      sync.Mutex
	pending map[connection.Handle]map[string]Pending

	logger Logger
}

// NewQueue creates a notification queue. The registry is consulted for
// connection validity and outbound delivery; the queue does not own
// connections.
func NewQueue(registry *connection.Registry) *Queue {
	return &Queue{
		registry: registry,
		pending:  make(map[connection.Handle]map[string]Pending),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the queue.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// Send writes a notification to the connection immediately and records it
// as pending until acknowledged. It fails with connection.ErrConnectionGone
// when the handle is not registered, in which case nothing is queued.
func (q *Queue) Send(h connection.Handle, payload json.RawMessage) (string, error) {
	id := uuid.NewString()

	msg, err := json.Marshal(map[string]wireNotification{
		"notify": {ID: id, Data: payload},
	})
	if err != nil {
		return "", fmt.Errorf("encoding notification: %w", err)
	}

	// Write first: if the connection is gone no entry must be queued.
	if err := q.registry.Write(h, msg); err != nil {
		return "", err
	}

	q.mu.Lock()
	byID, ok := q.pending[h]
	if !ok {
		byID = make(map[string]Pending)
		q.pending[h] = byID
	}
	byID[id] = Pending{
		ID:      id,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}
	q.mu.Unlock()

	q.logger.Debug("notification sent", "handle", h, "id", id)
	return id, nil
}

// Done removes the matching pending entry. An acknowledgment for an
// unknown (handle, id) pair is a silent no-op: it covers a device acking
// twice or acking after a disconnect already purged its entries.
func (q *Queue) Done(h connection.Handle, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	byID, ok := q.pending[h]
	if !ok {
		return
	}
	if _, ok := byID[id]; !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(q.pending, h)
	}
	q.logger.Debug("notification acknowledged", "handle", h, "id", id)
}

// Purge drops all pending entries for a connection. Called from the
// registry's disconnect hook.
func (q *Queue) Purge(h connection.Handle) {
	q.mu.Lock()
	dropped := len(q.pending[h])
	delete(q.pending, h)
	q.mu.Unlock()

	if dropped > 0 {
		q.logger.Debug("pending notifications purged", "handle", h, "count", dropped)
	}
}

// PendingFor returns copies of the pending entries for a connection,
// for inspection by the admin surface and tests.
func (q *Queue) PendingFor(h connection.Handle) []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	byID, ok := q.pending[h]
	if !ok {
		return nil
	}
	entries := make([]Pending, 0, len(byID))
	for _, p := range byID {
		entries = append(entries, p)
	}
	return entries
}
