package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wakeward/was-core/internal/configstore"
	"github.com/wakeward/was-core/internal/connection"
	"github.com/wakeward/was-core/internal/endpoint"
	"github.com/wakeward/was-core/internal/infrastructure/config"
	"github.com/wakeward/was-core/internal/infrastructure/logging"
	"github.com/wakeward/was-core/internal/infrastructure/tsdb"
	"github.com/wakeward/was-core/internal/notify"
	"github.com/wakeward/was-core/internal/wake"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry *connection.Registry
	Arbiter  *wake.Arbiter
	Queue    *notify.Queue
	Router   *endpoint.Router
	Store    *configstore.Store
	Tsdb     *tsdb.Client // optional; nil disables telemetry
	Version  string
}

// Server is the HTTP server for WAS Core.
//
// It owns the HTTP listener and routes; the domain components it serves
// are injected and shared with the rest of the process.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *connection.Registry
	arbiter  *wake.Arbiter
	queue    *notify.Queue
	router   *endpoint.Router
	store    *configstore.Store
	tsdb     *tsdb.Client
	version  string

	server    *http.Server
	startedAt time.Time
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("connection registry is required")
	}
	if deps.Arbiter == nil {
		return nil, fmt.Errorf("wake arbiter is required")
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("notification queue is required")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("endpoint router is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("config store is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		arbiter:  deps.Arbiter,
		queue:    deps.Queue,
		router:   deps.Router,
		store:    deps.Store,
		tsdb:     deps.Tsdb,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It wires the wake arbiter's result push, builds the router, and launches
// the listener in a background goroutine. Stop with Close().
func (s *Server) Start(_ context.Context) error {
	s.startedAt = time.Now()

	// Arbitration results go back to every participant over its socket.
	s.arbiter.SetNotifier(s.notifyWakeResult)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.Server.TLS.Enabled {
			s.logger.Info("server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.Server.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
		} else {
			s.logger.Info("server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight requests
// up to the shutdown timeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// writeWait bounds individual outbound socket writes.
func (s *Server) writeWait() time.Duration {
	return time.Duration(s.cfg.WebSocket.PongTimeout) * time.Second
}

// notifyWakeResult pushes the arbitration verdict to one wake participant
// and records the outcome.
func (s *Server) notifyWakeResult(h connection.Handle, won bool) {
	if err := s.registry.Write(h, encodeWakeResult(won)); err != nil {
		s.logger.Debug("wake result not delivered", "handle", h, "error", err)
		return
	}
	if s.tsdb != nil {
		if client, ok := s.registry.Get(h); ok {
			s.tsdb.WriteWakeResult(client.Hostname, won)
		}
	}
}
