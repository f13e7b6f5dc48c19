package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wakeward/was-core/internal/configstore"
	"github.com/wakeward/was-core/internal/connection"
	"github.com/wakeward/was-core/internal/endpoint"
)

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns operational details for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	endpointName, active := s.router.Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":         s.version,
		"uptime_seconds":  int(time.Since(s.startedAt).Seconds()),
		"clients":         s.registry.Count(),
		"endpoint_active": active,
		"endpoint":        endpointName,
	})
}

// handleListClients returns the connected devices.
func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// notifyRequest targets a notification at one hostname, or at every
// connected device when hostname is empty.
type notifyRequest struct {
	Hostname string          `json:"hostname,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// notifyReceipt reports one delivered notification.
type notifyReceipt struct {
	Handle connection.Handle `json:"handle"`
	ID     string            `json:"id"`
}

// handleNotifyClients delivers a notification to the targeted devices and
// returns the pending notification ids.
func (s *Server) handleNotifyClients(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Data) == 0 {
		writeBadRequest(w, "data is required")
		return
	}

	var targets []connection.Handle
	if req.Hostname != "" {
		h, ok := s.registry.FindByHostname(req.Hostname)
		if !ok {
			writeNotFound(w, "no connected client with that hostname")
			return
		}
		targets = []connection.Handle{h}
	} else {
		for _, client := range s.registry.List() {
			targets = append(targets, client.Handle)
		}
	}

	receipts := make([]notifyReceipt, 0, len(targets))
	for _, h := range targets {
		id, err := s.queue.Send(h, req.Data)
		if err != nil {
			s.logger.Warn("notification not delivered", "handle", h, "error", err)
			continue
		}
		receipts = append(receipts, notifyReceipt{Handle: h, ID: id})
	}

	writeJSON(w, http.StatusOK, map[string]any{"notified": receipts})
}

// handleGetConfig returns the stored user configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Get(r.Context())
	if err != nil {
		if errors.Is(err, configstore.ErrNotConfigured) {
			writeError(w, http.StatusNotFound, ErrCodeNotConfigured, "no configuration stored yet")
			return
		}
		s.logger.Error("loading user config", "error", err)
		writeInternalError(w, "loading configuration failed")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handlePutConfig validates and stores a new user configuration, then
// swaps the command endpoint to match it.
//
// A backend that cannot be activated does not fail the request: the
// configuration is already durable and the device-visible behavior is the
// fixed not-active speech until the backend recovers.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg configstore.UserConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.store.Save(r.Context(), &cfg); err != nil {
		if errors.Is(err, configstore.ErrInvalidConfig) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("saving user config", "error", err)
		writeInternalError(w, "saving configuration failed")
		return
	}

	resp := map[string]any{"saved": true}

	adapter, err := endpoint.NewAdapter(&cfg, s.cfg.GetEndpointRequestTimeout(), s.logger)
	if err != nil {
		s.logger.Error("activating command endpoint", "error", err)
		s.router.SetAdapter(nil)
		resp["endpoint_active"] = false
		resp["endpoint_error"] = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	s.router.SetAdapter(adapter)
	resp["endpoint_active"] = adapter != nil
	writeJSON(w, http.StatusOK, resp)
}
