package endpoint

import (
	"testing"
	"time"

	"github.com/wakeward/was-core/internal/configstore"
)

func TestNewAdapterDisabledMode(t *testing.T) {
	adapter, err := NewAdapter(&configstore.UserConfig{EndpointMode: false}, time.Second, nil)
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	if adapter != nil {
		t.Error("adapter built with endpoint mode disabled")
	}
}

func TestNewAdapterNilConfig(t *testing.T) {
	adapter, err := NewAdapter(nil, time.Second, nil)
	if err != nil || adapter != nil {
		t.Errorf("NewAdapter(nil) = %v, %v", adapter, err)
	}
}

func TestNewAdapterUnknownKind(t *testing.T) {
	cfg := &configstore.UserConfig{
		EndpointMode:    true,
		CommandEndpoint: "Telepathy",
	}
	if _, err := NewAdapter(cfg, time.Second, nil); err == nil {
		t.Error("unknown endpoint kind accepted")
	}
}

func TestNewAdapterKinds(t *testing.T) {
	tests := []struct {
		name string
		cfg  *configstore.UserConfig
		want string
	}{
		{
			name: "openhab",
			cfg: &configstore.UserConfig{
				EndpointMode:    true,
				CommandEndpoint: configstore.EndpointOpenHAB,
				OpenHABURL:      "http://openhab.local:8080",
			},
			want: "openHAB",
		},
		{
			name: "rest",
			cfg: &configstore.UserConfig{
				EndpointMode:    true,
				CommandEndpoint: configstore.EndpointREST,
				RestURL:         "http://example.com/hook",
			},
			want: "REST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(tt.cfg, time.Second, nil)
			if err != nil {
				t.Fatalf("NewAdapter() error = %v", err)
			}
			defer adapter.Stop() //nolint:errcheck
			if adapter.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", adapter.Name(), tt.want)
			}
		})
	}
}
