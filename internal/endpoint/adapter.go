package endpoint

import (
	"context"
	"encoding/json"
)

// Fixed speech results surfaced to devices for dispatch failures.
const (
	SpeechNotActive   = "WAS Command Endpoint not active"
	SpeechUnreachable = "WAS Command Endpoint unreachable"
)

// Logger defines the logging interface used by the endpoint package.
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

// Responder is the reply path back to the device that issued a command.
//
// Synchronous adapters never use it; the Home Assistant adapter delivers
// its answer through it from the backend socket's read loop, out-of-band
// with respect to Send.
type Responder interface {
	SendSpeech(text string) error
}

// Adapter is one concrete backend integration for command dispatch.
//
// Send forwards a parsed voice command to the backend. A nil raw response
// with a nil error means no direct reply is owed to the device — either
// the backend is fire-and-forget or the answer arrives later through the
// Responder.
//
// Stop releases every resource the adapter owns (sockets, goroutines).
// It must be idempotent and safe to call while a Send is outstanding.
type Adapter interface {
	Name() string
	Send(ctx context.Context, data json.RawMessage, r Responder) ([]byte, error)
	ParseResponse(raw []byte) (string, bool)
	Stop() error
}

// Result is the normalized outcome of one command.
type Result struct {
	OK     bool   `json:"ok"`
	Speech string `json:"speech"`
}

// Response is the speech-result message shape written back to devices.
type Response struct {
	Result Result `json:"result"`
}

// EncodeSpeech encodes a speech result message for a device.
func EncodeSpeech(text string) []byte {
	data, err := json.Marshal(Response{Result: Result{OK: true, Speech: text}})
	if err != nil {
		// Result contains only a bool and a string; this cannot fail.
		return []byte(`{"result":{"ok":false,"speech":""}}`)
	}
	return data
}

// commandText extracts the transcribed text from a device command payload.
func commandText(data json.RawMessage) (string, bool) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Text == "" {
		return "", false
	}
	return payload.Text, true
}
