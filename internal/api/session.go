package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wakeward/was-core/internal/configstore"
	"github.com/wakeward/was-core/internal/connection"
	"github.com/wakeward/was-core/internal/endpoint"
)

// upgrader configures the WebSocket upgrader for device connections.
// Devices are headless firmware, not browsers; origin checking is moot.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// errSendBufferFull is returned when a device's outbound buffer is full.
// The registry surfaces it to callers of Write; the connection itself is
// left to the keepalive machinery to reap if it is truly dead.
var errSendBufferFull = errors.New("api: send buffer full")

// deviceSession is one live device WebSocket connection.
//
// It implements connection.Writer for the registry's outbound path and
// endpoint.Responder for asynchronous speech results. A single writePump
// goroutine owns all socket writes; Write only enqueues.
type deviceSession struct {
	server *Server
	conn   *websocket.Conn
	handle connection.Handle
	send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// handleDeviceSocket upgrades the connection and runs the device protocol
// until the socket closes.
func (s *Server) handleDeviceSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess := &deviceSession{
		server: s,
		conn:   conn,
		send:   make(chan []byte, s.cfg.WebSocket.SendBufferSize),
		closed: make(chan struct{}),
	}
	sess.handle = s.registry.Accept(sess, r.Header.Get("User-Agent"))

	if s.tsdb != nil {
		s.tsdb.WriteClientCount(s.registry.Count())
	}

	go sess.writePump()
	sess.readPump()
}

// Write enqueues an outbound message. It never blocks: a full buffer is
// an error, and the message is dropped.
func (d *deviceSession) Write(data []byte) error {
	select {
	case <-d.closed:
		return connection.ErrConnectionGone
	default:
	}

	select {
	case d.send <- data:
		return nil
	default:
		return fmt.Errorf("%w: handle %s", errSendBufferFull, d.handle)
	}
}

// SendSpeech delivers a speech result to the device.
func (d *deviceSession) SendSpeech(text string) error {
	return d.Write(endpoint.EncodeSpeech(text))
}

// close makes the session unusable for writes and closes the socket.
func (d *deviceSession) close() {
	d.closeOnce.Do(func() {
		close(d.closed)
		d.conn.Close()
	})
}

// readPump reads device messages until the socket fails or closes, then
// tears the session down.
func (d *deviceSession) readPump() {
	s := d.server
	defer func() {
		s.registry.Disconnect(d.handle)
		d.close()
		if s.tsdb != nil {
			s.tsdb.WriteClientCount(s.registry.Count())
		}
	}()

	cfg := s.cfg.WebSocket
	readWait := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second

	d.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	d.conn.SetReadDeadline(time.Now().Add(readWait))
	d.conn.SetPongHandler(func(string) error {
		return d.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, message, err := d.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("device socket read error", "handle", d.handle, "error", err)
			} else {
				s.logger.Debug("device socket closed", "handle", d.handle)
			}
			return
		}
		// Any device message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		d.conn.SetReadDeadline(time.Now().Add(readWait))
		d.handleMessage(message)
	}
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with pings.
func (d *deviceSession) writePump() {
	s := d.server
	pingInterval := time.Duration(s.cfg.WebSocket.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		d.close()
	}()

	for {
		select {
		case <-d.closed:
			return
		case message := <-d.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			d.conn.SetWriteDeadline(time.Now().Add(s.writeWait()))
			if err := d.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			d.conn.SetWriteDeadline(time.Now().Add(s.writeWait()))
			if err := d.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one device message and applies it. A malformed
// message is logged and dropped; it never fails the connection.
func (d *deviceSession) handleMessage(data []byte) {
	s := d.server

	var msg deviceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("malformed device message", "handle", d.handle, "error", err)
		return
	}

	// Wake messages are latency sensitive, so they are checked first.
	switch {
	case msg.WakeStart != nil:
		s.arbiter.OnWakeStart(d.handle, msg.WakeStart.WakeVolume)
		if s.tsdb != nil && msg.WakeStart.WakeVolume != nil {
			if client, ok := s.registry.Get(d.handle); ok {
				s.tsdb.WriteWakeVolume(client.Hostname, *msg.WakeStart.WakeVolume)
			}
		}

	case msg.WakeEnd != nil:
		s.arbiter.OnWakeEnd(d.handle)

	case msg.NotifyDone != nil:
		s.queue.Done(d.handle, *msg.NotifyDone)

	case msg.Cmd == cmdEndpoint:
		// Dispatch off the read loop so a slow backend does not delay
		// wake traffic from this device.
		go d.dispatchCommand(msg.Data)

	case msg.Cmd == cmdGetConfig:
		d.sendConfig()

	case msg.Goodbye != nil:
		s.registry.Disconnect(d.handle)
		d.close()

	case msg.Hello != nil:
		d.applyHello(msg.Hello)

	default:
		s.logger.Debug("unrecognized device message ignored", "handle", d.handle)
	}
}

// applyHello records the identity fields the device reported.
func (d *deviceSession) applyHello(hello *helloPayload) {
	s := d.server
	if hello.Hostname != "" {
		s.registry.UpdateField(d.handle, connection.FieldHostname, hello.Hostname)
	}
	if hello.HWType != "" {
		s.registry.UpdateField(d.handle, connection.FieldPlatform, hello.HWType)
	}
	if hello.MACAddr != nil {
		s.registry.UpdateField(d.handle, connection.FieldMACAddr, hello.MACAddr.String())
	}
}

// dispatchCommand forwards a voice command to the endpoint router and
// writes back whatever speech it owes the device.
func (d *deviceSession) dispatchCommand(data json.RawMessage) {
	s := d.server

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetEndpointRequestTimeout())
	defer cancel()

	name, _ := s.router.Active()
	start := time.Now()
	speech, err := s.router.Dispatch(ctx, data, d)
	if s.tsdb != nil && name != "" {
		s.tsdb.WriteCommandDispatch(name, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("command dispatch failed", "handle", d.handle, "error", err)
	}

	if speech == "" {
		return
	}
	if werr := d.SendSpeech(speech); werr != nil {
		s.logger.Debug("speech result not delivered", "handle", d.handle, "error", werr)
	}
}

// sendConfig replies with the current user configuration document.
func (d *deviceSession) sendConfig() {
	s := d.server

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := s.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, configstore.ErrNotConfigured) {
			s.logger.Error("loading user config for device", "handle", d.handle, "error", err)
			return
		}
		// An unconfigured server still answers, with an empty document.
		cfg = &configstore.UserConfig{}
	}

	if werr := d.Write(encodeConfigMsg(cfg)); werr != nil {
		s.logger.Debug("config reply not delivered", "handle", d.handle, "error", werr)
	}
}
