package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// speechRecorder captures asynchronous speech deliveries.
type speechRecorder struct {
	ch chan string
}

func newSpeechRecorder() *speechRecorder {
	return &speechRecorder{ch: make(chan string, 1)}
}

func (r *speechRecorder) SendSpeech(text string) error {
	r.ch <- text
	return nil
}

// fakeHass runs a minimal Home Assistant WebSocket endpoint: auth
// handshake, then answers every conversation/process with a canned speech.
func fakeHass(t *testing.T, token, speech string) (*httptest.Server, string, int) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/websocket" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(map[string]string{"type": "auth_required"}) //nolint:errcheck
		var auth struct {
			Type        string `json:"type"`
			AccessToken string `json:"access_token"`
		}
		if err := conn.ReadJSON(&auth); err != nil || auth.AccessToken != token {
			conn.WriteJSON(map[string]string{"type": "auth_invalid"}) //nolint:errcheck
			return
		}
		conn.WriteJSON(map[string]string{"type": "auth_ok"}) //nolint:errcheck

		for {
			var req struct {
				ID   int64  `json:"id"`
				Type string `json:"type"`
				Text string `json:"text"`
			}
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Type != "conversation/process" {
				continue
			}
			conn.WriteJSON(map[string]any{ //nolint:errcheck
				"id":      req.ID,
				"type":    "result",
				"success": true,
				"result": map[string]any{
					"response": map[string]any{
						"speech": map[string]any{
							"plain": map[string]any{"speech": speech},
						},
					},
				},
			})
		}
	}))

	host, portStr, _ := strings.Cut(strings.TrimPrefix(srv.URL, "http://"), ":")
	port, _ := strconv.Atoi(portStr)
	return srv, host, port
}

// sendWithRetry waits for the background connection loop to become ready.
func sendWithRetry(t *testing.T, h *HomeAssistant, data json.RawMessage, r Responder) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := h.Send(context.Background(), data, r)
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Send() never succeeded: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHomeAssistantRoundTrip(t *testing.T) {
	srv, host, port := fakeHass(t, "secret", "Turned on the light")
	defer srv.Close()

	adapter := NewHomeAssistant(host, port, false, "secret", nil)
	defer adapter.Stop() //nolint:errcheck

	recorder := newSpeechRecorder()
	sendWithRetry(t, adapter, json.RawMessage(`{"text":"turn on the light"}`), recorder)

	select {
	case speech := <-recorder.ch:
		if speech != "Turned on the light" {
			t.Errorf("speech = %q", speech)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no speech delivered")
	}
}

func TestHomeAssistantSendBeforeConnected(t *testing.T) {
	// Nothing listens on this port.
	adapter := NewHomeAssistant("127.0.0.1", 1, false, "tok", nil)
	defer adapter.Stop() //nolint:errcheck

	if _, err := adapter.Send(context.Background(), json.RawMessage(`{"text":"hi"}`), nil); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Send() error = %v, want ErrUnreachable", err)
	}
}

func TestHomeAssistantStopIsIdempotent(t *testing.T) {
	adapter := NewHomeAssistant("127.0.0.1", 1, false, "tok", nil)
	if err := adapter.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := adapter.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestHomeAssistantParseResponse(t *testing.T) {
	adapter := &HomeAssistant{}

	tests := []struct {
		name   string
		raw    string
		speech string
		ok     bool
	}{
		{
			name:   "plain speech present",
			raw:    `{"response":{"speech":{"plain":{"speech":"Done"}}}}`,
			speech: "Done",
			ok:     true,
		},
		{
			name: "no speech",
			raw:  `{"response":{"speech":{}}}`,
		},
		{
			name: "not json",
			raw:  `nope`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speech, ok := adapter.ParseResponse([]byte(tt.raw))
			if speech != tt.speech || ok != tt.ok {
				t.Errorf("ParseResponse() = %q, %v, want %q, %v", speech, ok, tt.speech, tt.ok)
			}
		})
	}
}
