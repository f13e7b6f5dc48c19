package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for WAS Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
//
// This covers server-side settings only. The user configuration (which command
// endpoint is active, broker credentials, and so on) is stored in the database
// and managed at runtime through the admin API — see internal/configstore.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Wake      WakeConfig      `yaml:"wake"`
	Endpoint  EndpointConfig  `yaml:"endpoint"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts ServerTimeoutCfg `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings for the server's own listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutCfg contains HTTP timeout settings in seconds.
type ServerTimeoutCfg struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains settings for the device WebSocket endpoint.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
	SendBufferSize int    `yaml:"send_buffer_size"`
}

// WakeConfig contains wake arbitration settings.
type WakeConfig struct {
	// GracePeriodMs is the inactivity window after which an open wake
	// session is finalized even if no wake_end arrives.
	GracePeriodMs int `yaml:"grace_period_ms"`
}

// EndpointConfig contains command endpoint dispatch settings.
type EndpointConfig struct {
	// RequestTimeout is the maximum time in seconds to wait for a backend
	// round trip before the dispatch is reported unreachable.
	RequestTimeout int `yaml:"request_timeout"`

	// StopTimeout is the maximum time in seconds to wait for an adapter
	// to release its resources when the active endpoint is replaced.
	StopTimeout int `yaml:"stop_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB telemetry settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WASCORE_SECTION_KEY
// For example: WASCORE_DATABASE_PATH, WASCORE_SERVER_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8502,
			Timeouts: ServerTimeoutCfg{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 16384,
			PingInterval:   30,
			PongTimeout:    10,
			SendBufferSize: 64,
		},
		Wake: WakeConfig{
			GracePeriodMs: 500,
		},
		Endpoint: EndpointConfig{
			RequestTimeout: 10,
			StopTimeout:    5,
		},
		Database: DatabaseConfig{
			Path:        "./storage/wascore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WASCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WASCORE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WASCORE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WASCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WASCORE_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
	if v := os.Getenv("WASCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			errs = append(errs, "server.tls.cert_file and key_file are required when TLS is enabled")
		}
	}
	if c.WebSocket.Path == "" {
		errs = append(errs, "websocket.path is required")
	}
	if c.WebSocket.MaxMessageSize < 1 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}
	if c.Wake.GracePeriodMs < 1 {
		errs = append(errs, "wake.grace_period_ms must be positive")
	}
	if c.Endpoint.RequestTimeout < 1 {
		errs = append(errs, "endpoint.request_timeout must be positive")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Telemetry.Enabled && c.Telemetry.URL == "" {
		errs = append(errs, "telemetry.url is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetWakeGracePeriod returns the wake session grace period as a Duration.
func (c *Config) GetWakeGracePeriod() time.Duration {
	return time.Duration(c.Wake.GracePeriodMs) * time.Millisecond
}

// GetEndpointRequestTimeout returns the backend round-trip timeout as a Duration.
func (c *Config) GetEndpointRequestTimeout() time.Duration {
	return time.Duration(c.Endpoint.RequestTimeout) * time.Second
}

// GetEndpointStopTimeout returns the adapter stop timeout as a Duration.
func (c *Config) GetEndpointStopTimeout() time.Duration {
	return time.Duration(c.Endpoint.StopTimeout) * time.Second
}
