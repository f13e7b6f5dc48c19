package endpoint

import (
	"fmt"
	"time"

	"github.com/wakeward/was-core/internal/configstore"
)

// NewAdapter builds the adapter selected by the user configuration.
//
// It returns (nil, nil) when endpoint mode is disabled: that is a valid
// running state, not an error. The config is assumed validated; an
// unknown endpoint kind still fails defensively.
func NewAdapter(cfg *configstore.UserConfig, requestTimeout time.Duration, logger Logger) (Adapter, error) {
	if cfg == nil || !cfg.EndpointMode {
		return nil, nil
	}

	switch cfg.CommandEndpoint {
	case configstore.EndpointHomeAssistant:
		return NewHomeAssistant(cfg.HassHost, cfg.HassPort, cfg.HassTLS, cfg.HassToken, logger), nil
	case configstore.EndpointMQTT:
		return NewMQTT(cfg, logger)
	case configstore.EndpointOpenHAB:
		return NewOpenHAB(cfg.OpenHABURL, cfg.OpenHABToken, requestTimeout), nil
	case configstore.EndpointREST:
		return NewREST(cfg, requestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown command endpoint %q", cfg.CommandEndpoint)
	}
}
