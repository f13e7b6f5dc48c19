package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wakeward/was-core/internal/configstore"
)

func restConfig(url string) *configstore.UserConfig {
	return &configstore.UserConfig{
		EndpointMode:    true,
		CommandEndpoint: configstore.EndpointREST,
		RestURL:         url,
	}
}

func TestRESTSendPostsPayload(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	adapter := NewREST(restConfig(srv.URL), time.Second)
	raw, err := adapter.Send(context.Background(), json.RawMessage(`{"text":"light on"}`), nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if string(gotBody) != `{"text":"light on"}` {
		t.Errorf("posted body = %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if speech, ok := adapter.ParseResponse(raw); !ok || speech != "done" {
		t.Errorf("ParseResponse() = %q, %v", speech, ok)
	}
}

func TestRESTBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	cfg := restConfig(srv.URL)
	cfg.RestAuthType = configstore.AuthTypeBasic
	cfg.RestAuthUser = "admin"
	cfg.RestAuthPass = "hunter2"

	adapter := NewREST(cfg, time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestRESTHeaderAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token abc123" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	cfg := restConfig(srv.URL)
	cfg.RestAuthType = configstore.AuthTypeHeader
	cfg.RestAuthHeader = "Token abc123"

	adapter := NewREST(cfg, time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestRESTErrorStatusIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewREST(restConfig(srv.URL), time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{}`), nil); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Send() error = %v, want ErrUnreachable", err)
	}
}

func TestRESTConnectionRefusedIsUnreachable(t *testing.T) {
	// Reserve a port and close it so nothing is listening.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	adapter := NewREST(restConfig(url), time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{}`), nil); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Send() error = %v, want ErrUnreachable", err)
	}
}

func TestRESTEmptyBodySpeaksSuccess(t *testing.T) {
	adapter := NewREST(restConfig("http://unused"), time.Second)
	if speech, ok := adapter.ParseResponse([]byte("  \n")); !ok || speech != "Success" {
		t.Errorf("ParseResponse() = %q, %v, want Success", speech, ok)
	}
}
