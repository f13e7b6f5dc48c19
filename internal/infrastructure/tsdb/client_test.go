package tsdb

import (
	"errors"
	"testing"
	"time"

	"github.com/wakeward/was-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.TelemetryConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "tok",
		Org:     "was",
		Bucket:  "telemetry",
	}
	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// Write methods on a disconnected client must be silent no-ops so the
// request path never depends on telemetry health.
func TestWritesNoopWhenDisconnected(t *testing.T) {
	c := &Client{}

	c.WriteWakeVolume("kitchen", -32.5)
	c.WriteWakeResult("kitchen", true)
	c.WriteCommandDispatch("REST", true, 12*time.Millisecond)
	c.WriteClientCount(3)
}
