package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Home Assistant WebSocket connection constants.
const (
	hassHandshakeTimeout = 10 * time.Second
	hassWriteTimeout     = 5 * time.Second
	hassPingInterval     = 30 * time.Second
	hassPongWait         = 60 * time.Second

	hassReconnectInitial = time.Second
	hassReconnectMax     = 30 * time.Second
)

// HomeAssistant dispatches commands over Home Assistant's WebSocket API.
//
// The connection is long-lived and maintained by a background goroutine
// that reconnects with capped backoff. Commands are correlated to answers
// by the message id Home Assistant echoes back; the answer is delivered to
// the issuing device through its Responder from the read loop, so Send
// itself returns no raw response.
type HomeAssistant struct {
	url    string
	token  string
	logger Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	ready   bool
	nextID  int64
	pending map[int64]Responder

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// hassEnvelope covers every inbound message shape we care about.
type hassEnvelope struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// hassConversationResult is the subset of a conversation/process result
// that carries the spoken answer.
type hassConversationResult struct {
	Response struct {
		Speech struct {
			Plain struct {
				Speech string `json:"speech"`
			} `json:"plain"`
		} `json:"speech"`
	} `json:"response"`
}

// NewHomeAssistant creates the adapter and starts its connection loop.
// An unreachable server is not a construction error; commands fail with
// ErrUnreachable until the background loop establishes the session.
func NewHomeAssistant(host string, port int, useTLS bool, token string, logger Logger) *HomeAssistant {
	scheme := "ws"
	if useTLS {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   host + ":" + strconv.Itoa(port),
		Path:   "/api/websocket",
	}

	if logger == nil {
		logger = noopLogger{}
	}
	h := &HomeAssistant{
		url:     u.String(),
		token:   token,
		logger:  logger,
		nextID:  1,
		pending: make(map[int64]Responder),
		done:    make(chan struct{}),
	}

	h.wg.Add(1)
	go h.run()
	return h
}

// Name returns the adapter name.
func (h *HomeAssistant) Name() string { return "Home Assistant" }

// Send submits the command text as a conversation/process request. The
// answer arrives asynchronously via the Responder; Send never returns a
// raw response.
func (h *HomeAssistant) Send(_ context.Context, data json.RawMessage, r Responder) ([]byte, error) {
	text, ok := commandText(data)
	if !ok {
		return nil, fmt.Errorf("%w: command payload has no text", ErrUnreachable)
	}

	h.mu.Lock()
	if !h.ready || h.conn == nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: not connected to %s", ErrUnreachable, h.url)
	}
	id := h.nextID
	h.nextID++
	h.pending[id] = r
	conn := h.conn

	msg, err := json.Marshal(map[string]any{
		"id":   id,
		"type": "conversation/process",
		"text": text,
	})
	if err != nil {
		delete(h.pending, id)
		h.mu.Unlock()
		return nil, fmt.Errorf("encoding conversation request: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(hassWriteTimeout))
	err = conn.WriteMessage(websocket.TextMessage, msg)
	if err != nil {
		delete(h.pending, id)
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	h.mu.Unlock()

	return nil, nil
}

// ParseResponse extracts the plain speech from a conversation result.
func (h *HomeAssistant) ParseResponse(raw []byte) (string, bool) {
	var result hassConversationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", false
	}
	speech := result.Response.Speech.Plain.Speech
	if speech == "" {
		return "", false
	}
	return speech, true
}

// Stop terminates the connection loop and waits for it to exit.
func (h *HomeAssistant) Stop() error {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		if h.conn != nil {
			h.conn.Close()
		}
		h.mu.Unlock()
	})
	h.wg.Wait()
	return nil
}

// run owns the connection lifecycle: connect, authenticate, read until
// failure, then back off and retry until Stop.
func (h *HomeAssistant) run() {
	defer h.wg.Done()

	delay := hassReconnectInitial
	for {
		select {
		case <-h.done:
			return
		default:
		}

		conn, err := h.connect()
		if err != nil {
			h.logger.Warn("home assistant connection failed",
				"url", h.url, "error", err, "retry_in", delay)
			select {
			case <-h.done:
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, hassReconnectMax)
			continue
		}
		delay = hassReconnectInitial

		h.mu.Lock()
		h.conn = conn
		h.ready = true
		h.mu.Unlock()
		h.logger.Info("home assistant endpoint connected", "url", h.url)

		h.readLoop(conn)

		h.mu.Lock()
		h.ready = false
		h.conn = nil
		dropped := len(h.pending)
		h.pending = make(map[int64]Responder)
		h.mu.Unlock()
		conn.Close()
		if dropped > 0 {
			h.logger.Warn("home assistant connection lost with commands in flight",
				"dropped", dropped)
		}
	}
}

// connect dials the server and completes the auth handshake.
func (h *HomeAssistant) connect() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: hassHandshakeTimeout}
	conn, _, err := dialer.Dial(h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing: %w", err)
	}

	// Server opens with auth_required; answer with the token and expect
	// auth_ok before any command is valid.
	var msg hassEnvelope
	if err := conn.ReadJSON(&msg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading auth challenge: %w", err)
	}
	if msg.Type != "auth_required" {
		conn.Close()
		return nil, fmt.Errorf("unexpected first message type %q", msg.Type)
	}

	conn.SetWriteDeadline(time.Now().Add(hassWriteTimeout))
	if err := conn.WriteJSON(map[string]string{
		"type":         "auth",
		"access_token": h.token,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending auth: %w", err)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading auth result: %w", err)
	}
	if msg.Type != "auth_ok" {
		conn.Close()
		return nil, fmt.Errorf("authentication rejected: %s", msg.Type)
	}
	return conn, nil
}

// readLoop consumes messages until the connection breaks, delivering
// conversation answers to the devices that issued them.
func (h *HomeAssistant) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(hassPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(hassPongWait))
		return nil
	})

	pingStop := make(chan struct{})
	defer close(pingStop)
	go h.pingLoop(conn, pingStop)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-h.done:
			default:
				h.logger.Warn("home assistant read failed", "error", err)
			}
			return
		}

		var msg hassEnvelope
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Debug("discarding unparseable home assistant message", "error", err)
			continue
		}
		if msg.Type != "result" {
			continue
		}

		h.mu.Lock()
		responder, ok := h.pending[msg.ID]
		delete(h.pending, msg.ID)
		h.mu.Unlock()
		if !ok {
			continue
		}

		if !msg.Success {
			h.logger.Warn("home assistant rejected command", "id", msg.ID)
			continue
		}
		speech, ok := h.ParseResponse(msg.Result)
		if !ok {
			continue
		}
		if err := responder.SendSpeech(speech); err != nil {
			h.logger.Debug("delivering speech result failed", "error", err)
		}
	}
}

// pingLoop keeps the connection alive; the read deadline is refreshed by
// the pong handler.
func (h *HomeAssistant) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(hassPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(hassWriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			h.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
