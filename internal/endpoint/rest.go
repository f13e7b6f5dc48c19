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

	"github.com/wakeward/was-core/internal/configstore"
)

// REST posts the full command payload as JSON to a user-supplied URL.
// The backend's response body, when present, is spoken back verbatim.
type REST struct {
	url        string
	authType   string
	authHeader string
	authUser   string
	authPass   string
	client     *http.Client
}

// NewREST creates the adapter from the REST variant of the user config.
func NewREST(cfg *configstore.UserConfig, timeout time.Duration) *REST {
	return &REST{
		url:        cfg.RestURL,
		authType:   cfg.RestAuthType,
		authHeader: cfg.RestAuthHeader,
		authUser:   cfg.RestAuthUser,
		authPass:   cfg.RestAuthPass,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name returns the adapter name.
func (r *REST) Name() string { return "REST" }

// Send posts the command payload and returns the response body.
func (r *REST) Send(ctx context.Context, data json.RawMessage, _ Responder) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch r.authType {
	case configstore.AuthTypeBasic:
		req.SetBasicAuth(r.authUser, r.authPass)
	case configstore.AuthTypeHeader:
		req.Header.Set("Authorization", r.authHeader)
	}

	resp, err := r.client.Do(req)
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

// ParseResponse speaks the response body as-is, or "Success" when the
// backend answered with nothing.
func (r *REST) ParseResponse(raw []byte) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "Success", true
	}
	return text, true
}

// Stop releases nothing.
func (r *REST) Stop() error { return nil }
