package connection

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Registry.
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

// entry pairs a client record with its outbound writer.
type entry struct {
	client Client
	writer Writer
}

// Registry tracks live device connections and their mutable identity
// metadata. It owns the Client records exclusively: callers mutate them
// only through UpdateField, keyed by handle.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]*entry

	onDisconnect func(Handle)
	logger       Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Handle]*entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetOnDisconnect registers a hook invoked after a connection is removed.
// The notification queue uses this to purge the connection's pending entries.
// The hook runs outside the registry lock.
func (r *Registry) SetOnDisconnect(hook func(Handle)) {
	r.onDisconnect = hook
}

// Accept registers a new connection and returns its handle. It never fails.
func (r *Registry) Accept(writer Writer, userAgent string) Handle {
	h := Handle(uuid.NewString())

	r.mu.Lock()
	r.entries[h] = &entry{
		client: Client{
			Handle:      h,
			UserAgent:   userAgent,
			ConnectedAt: time.Now().UTC(),
		},
		writer: writer,
	}
	count := len(r.entries)
	r.mu.Unlock()

	r.logger.Info("client connected", "handle", h, "user_agent", userAgent, "clients", count)
	return h
}

// Disconnect removes a connection from the registry. Disconnecting an
// already-removed handle is a no-op, not an error.
func (r *Registry) Disconnect(h Handle) {
	r.mu.Lock()
	_, existed := r.entries[h]
	delete(r.entries, h)
	count := len(r.entries)
	r.mu.Unlock()

	if !existed {
		return
	}

	r.logger.Info("client disconnected", "handle", h, "clients", count)
	if r.onDisconnect != nil {
		r.onDisconnect(h)
	}
}

// UpdateField updates one mutable identity field of a connection.
// A late update after disconnect is a silent no-op; updates to the same
// connection are applied in receipt order.
func (r *Registry) UpdateField(h Handle, field Field, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return
	}

	switch field {
	case FieldHostname:
		e.client.Hostname = value
	case FieldPlatform:
		e.client.Platform = strings.ToUpper(value)
	case FieldMACAddr:
		e.client.MACAddr = value
	default:
		r.logger.Warn("unknown client field", "field", field)
	}
}

// Get returns a copy of the client record for a handle.
func (r *Registry) Get(h Handle) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok {
		return Client{}, false
	}
	return e.client, true
}

// FindByHostname returns the handle of the first connection whose reported
// hostname matches. Hostname comparison is case-insensitive.
func (r *Registry) FindByHostname(hostname string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for h, e := range r.entries {
		if strings.EqualFold(e.client.Hostname, hostname) {
			return h, true
		}
	}
	return "", false
}

// List returns copies of all client records, oldest connection first.
func (r *Registry) List() []Client {
	r.mu.RLock()
	clients := make([]Client, 0, len(r.entries))
	for _, e := range r.entries {
		clients = append(clients, e.client)
	}
	r.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ConnectedAt.Before(clients[j].ConnectedAt)
	})
	return clients
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Write delivers an encoded message to a connection's outbound path.
// It fails with ErrConnectionGone if the handle is not registered.
func (r *Registry) Write(h Handle, data []byte) error {
	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()

	if !ok {
		return ErrConnectionGone
	}
	return e.writer.Write(data)
}
