package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// openHABInterpretersPath is the voice interpreter endpoint appended to
// the configured base URL.
const openHABInterpretersPath = "/rest/voice/interpreters"

// maxResponseBody caps how much of a backend reply the HTTP adapters read.
const maxResponseBody = 64 << 10

// OpenHAB forwards command text to an openHAB server's human language
// interpreter.
type OpenHAB struct {
	url    string
	token  string
	client *http.Client
}

// NewOpenHAB creates the adapter. baseURL is the openHAB root, without
// the REST path.
func NewOpenHAB(baseURL, token string, timeout time.Duration) *OpenHAB {
	return &OpenHAB{
		url:    strings.TrimRight(baseURL, "/") + openHABInterpretersPath,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the adapter name.
func (o *OpenHAB) Name() string { return "openHAB" }

// Send posts the command text as plain text. openHAB interprets the
// utterance itself; the response body, when present, is its answer.
func (o *OpenHAB) Send(ctx context.Context, data json.RawMessage, _ Responder) ([]byte, error) {
	text, ok := commandText(data)
	if !ok {
		return nil, fmt.Errorf("%w: command payload has no text", ErrUnreachable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// ParseResponse turns the interpreter reply into speech. An empty body is
// a successful interpretation with nothing to say.
func (o *OpenHAB) ParseResponse(raw []byte) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "Success", true
	}
	return text, true
}

// Stop releases nothing; the HTTP client holds no persistent state worth
// tearing down.
func (o *OpenHAB) Stop() error { return nil }
