package configstore

import "fmt"

// EndpointKind selects which command endpoint integration is active.
// The values match the discriminator strings the admin interface stores.
type EndpointKind string

// Supported command endpoint kinds.
const (
	EndpointHomeAssistant EndpointKind = "Home Assistant"
	EndpointMQTT          EndpointKind = "MQTT"
	EndpointOpenHAB       EndpointKind = "openHAB"
	EndpointREST          EndpointKind = "REST"
)

// Auth type values for MQTT and REST endpoints.
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeHeader = "header"
)

// UserConfig is the mutable user configuration document.
//
// It is stored as a single flat JSON object, mirroring what devices receive
// in reply to get_config. Exactly one endpoint variant is active at a time,
// selected by CommandEndpoint; the unrelated fields are simply absent.
type UserConfig struct {
	// EndpointMode enables command dispatch through the configured endpoint.
	// When false the server runs with no active adapter.
	EndpointMode bool `json:"was_mode"`

	// CommandEndpoint is the discriminator for the active endpoint variant.
	CommandEndpoint EndpointKind `json:"command_endpoint,omitempty"`

	// Home Assistant variant.
	HassHost  string `json:"hass_host,omitempty"`
	HassPort  int    `json:"hass_port,omitempty"`
	HassTLS   bool   `json:"hass_tls,omitempty"`
	HassToken string `json:"hass_token,omitempty"`

	// MQTT variant.
	MQTTAuthType string `json:"mqtt_auth_type,omitempty"`
	MQTTHost     string `json:"mqtt_host,omitempty"`
	MQTTPort     int    `json:"mqtt_port,omitempty"`
	MQTTTLS      bool   `json:"mqtt_tls,omitempty"`
	MQTTTopic    string `json:"mqtt_topic,omitempty"`
	MQTTUsername string `json:"mqtt_username,omitempty"`
	MQTTPassword string `json:"mqtt_password,omitempty"`

	// openHAB variant.
	OpenHABURL   string `json:"openhab_url,omitempty"`
	OpenHABToken string `json:"openhab_token,omitempty"`

	// REST variant.
	RestURL        string `json:"rest_url,omitempty"`
	RestAuthType   string `json:"rest_auth_type,omitempty"`
	RestAuthHeader string `json:"rest_auth_header,omitempty"`
	RestAuthUser   string `json:"rest_auth_user,omitempty"`
	RestAuthPass   string `json:"rest_auth_pass,omitempty"`
}

// Validate checks that the active endpoint variant has the fields it needs.
// A config with endpoint mode disabled is always valid.
func (c *UserConfig) Validate() error {
	if !c.EndpointMode {
		return nil
	}

	switch c.CommandEndpoint {
	case EndpointHomeAssistant:
		if c.HassHost == "" {
			return fmt.Errorf("%w: hass_host is required", ErrInvalidConfig)
		}
		if c.HassPort < 1 || c.HassPort > 65535 {
			return fmt.Errorf("%w: hass_port must be between 1 and 65535", ErrInvalidConfig)
		}
		if c.HassToken == "" {
			return fmt.Errorf("%w: hass_token is required", ErrInvalidConfig)
		}
	case EndpointMQTT:
		if c.MQTTHost == "" {
			return fmt.Errorf("%w: mqtt_host is required", ErrInvalidConfig)
		}
		if c.MQTTPort < 1 || c.MQTTPort > 65535 {
			return fmt.Errorf("%w: mqtt_port must be between 1 and 65535", ErrInvalidConfig)
		}
		if c.MQTTTopic == "" {
			return fmt.Errorf("%w: mqtt_topic is required", ErrInvalidConfig)
		}
		if c.MQTTAuthType == AuthTypeBasic && c.MQTTUsername == "" {
			return fmt.Errorf("%w: mqtt_username is required for basic auth", ErrInvalidConfig)
		}
	case EndpointOpenHAB:
		if c.OpenHABURL == "" {
			return fmt.Errorf("%w: openhab_url is required", ErrInvalidConfig)
		}
	case EndpointREST:
		if c.RestURL == "" {
			return fmt.Errorf("%w: rest_url is required", ErrInvalidConfig)
		}
		switch c.RestAuthType {
		case "", AuthTypeNone:
		case AuthTypeBasic:
			if c.RestAuthUser == "" {
				return fmt.Errorf("%w: rest_auth_user is required for basic auth", ErrInvalidConfig)
			}
		case AuthTypeHeader:
			if c.RestAuthHeader == "" {
				return fmt.Errorf("%w: rest_auth_header is required for header auth", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown rest_auth_type %q", ErrInvalidConfig, c.RestAuthType)
		}
	case "":
		return fmt.Errorf("%w: command_endpoint is required when endpoint mode is enabled", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown command_endpoint %q", ErrInvalidConfig, c.CommandEndpoint)
	}

	return nil
}
