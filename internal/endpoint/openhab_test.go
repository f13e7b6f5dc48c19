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
)

func TestOpenHABSendPostsText(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("Turned on the kitchen light"))
	}))
	defer srv.Close()

	adapter := NewOpenHAB(srv.URL+"/", "tok", time.Second)
	raw, err := adapter.Send(context.Background(),
		json.RawMessage(`{"text":"turn on the kitchen light"}`), nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/rest/voice/interpreters" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody != "turn on the kitchen light" {
		t.Errorf("body = %q", gotBody)
	}
	if speech, ok := adapter.ParseResponse(raw); !ok || speech != "Turned on the kitchen light" {
		t.Errorf("ParseResponse() = %q, %v", speech, ok)
	}
}

func TestOpenHABEmptyResponseSpeaksSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	adapter := NewOpenHAB(srv.URL, "", time.Second)
	raw, err := adapter.Send(context.Background(), json.RawMessage(`{"text":"hi"}`), nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if speech, ok := adapter.ParseResponse(raw); !ok || speech != "Success" {
		t.Errorf("ParseResponse() = %q, %v, want Success", speech, ok)
	}
}

func TestOpenHABMissingTextIsUnreachable(t *testing.T) {
	adapter := NewOpenHAB("http://unused", "", time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{}`), nil); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Send() error = %v, want ErrUnreachable", err)
	}
}

func TestOpenHABErrorStatusIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no interpreter", http.StatusBadRequest)
	}))
	defer srv.Close()

	adapter := NewOpenHAB(srv.URL, "", time.Second)
	if _, err := adapter.Send(context.Background(), json.RawMessage(`{"text":"hi"}`), nil); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Send() error = %v, want ErrUnreachable", err)
	}
}
