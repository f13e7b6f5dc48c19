package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8502 {
		t.Errorf("default server.port = %d, want 8502", cfg.Server.Port)
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("default websocket.path = %q, want /ws", cfg.WebSocket.Path)
	}
	if cfg.Wake.GracePeriodMs != 500 {
		t.Errorf("default wake.grace_period_ms = %d, want 500", cfg.Wake.GracePeriodMs)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9000
wake:
  grace_period_ms: 250
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000", cfg.Server.Port)
	}
	if got := cfg.GetWakeGracePeriod(); got != 250*time.Millisecond {
		t.Errorf("GetWakeGracePeriod() = %v, want 250ms", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WASCORE_SERVER_PORT", "9999")
	t.Setenv("WASCORE_DATABASE_PATH", "/tmp/override.db")

	path := writeTempConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("database.path = %q, want env override", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "tls without cert",
			mutate:  func(c *Config) { c.Server.TLS.Enabled = true },
			wantErr: "server.tls",
		},
		{
			name:    "empty websocket path",
			mutate:  func(c *Config) { c.WebSocket.Path = "" },
			wantErr: "websocket.path",
		},
		{
			name:    "zero grace period",
			mutate:  func(c *Config) { c.Wake.GracePeriodMs = 0 },
			wantErr: "wake.grace_period_ms",
		},
		{
			name:    "telemetry enabled without url",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true },
			wantErr: "telemetry.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
