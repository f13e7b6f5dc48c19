package endpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/wakeward/was-core/internal/configstore"
	"github.com/wakeward/was-core/internal/infrastructure/mqtt"
)

// MQTT publishes each command payload to a fixed topic, fire-and-forget.
// Whatever consumes the topic owes the device nothing; no reply is ever
// produced.
type MQTT struct {
	client *mqtt.Client
	topic  string
}

// NewMQTT connects to the broker and returns the adapter. Unlike the
// Home Assistant adapter this fails at construction when the broker is
// unreachable, so a bad reconfiguration surfaces immediately.
func NewMQTT(cfg *configstore.UserConfig, logger Logger) (*MQTT, error) {
	bcfg := mqtt.Config{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		TLS:      cfg.MQTTTLS,
		ClientID: "wascore-" + uuid.NewString()[:8],
	}
	if cfg.MQTTAuthType == configstore.AuthTypeBasic {
		bcfg.Username = cfg.MQTTUsername
		bcfg.Password = cfg.MQTTPassword
	}

	client, err := mqtt.Connect(bcfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker %s: %w", bcfg.BrokerURL(), err)
	}
	if logger != nil {
		client.SetLogger(logger)
	}

	return &MQTT{client: client, topic: cfg.MQTTTopic}, nil
}

// Name returns the adapter name.
func (m *MQTT) Name() string { return "MQTT" }

// Send publishes the raw command payload to the configured topic.
func (m *MQTT) Send(_ context.Context, data json.RawMessage, _ Responder) ([]byte, error) {
	if err := m.client.Publish(m.topic, data, 1, false); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil, nil
}

// ParseResponse never yields speech; the broker does not answer.
func (m *MQTT) ParseResponse([]byte) (string, bool) { return "", false }

// Stop disconnects from the broker.
func (m *MQTT) Stop() error {
	m.client.Disconnect()
	return nil
}
