package api

import (
	"encoding/json"

	"github.com/wakeward/was-core/internal/connection"
)

// deviceMessage is the decoded form of one inbound device message.
//
// The protocol is a flat JSON object tagged by which top-level key is
// present. Exactly one variant is expected per message; unknown keys are
// ignored so newer firmware can talk to older servers.
type deviceMessage struct {
	Hello      *helloPayload     `json:"hello,omitempty"`
	WakeStart  *wakeStartPayload `json:"wake_start,omitempty"`
	WakeEnd    json.RawMessage   `json:"wake_end,omitempty"`
	NotifyDone *string           `json:"notify_done,omitempty"`
	Cmd        string            `json:"cmd,omitempty"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Goodbye    json.RawMessage   `json:"goodbye,omitempty"`
}

// Device command verbs carried in the cmd field.
const (
	cmdEndpoint  = "endpoint"
	cmdGetConfig = "get_config"
)

// helloPayload carries the identity fields a device reports after connect.
type helloPayload struct {
	Hostname string              `json:"hostname"`
	HWType   string              `json:"hw_type"`
	MACAddr  *connection.MACAddr `json:"mac_addr"`
}

// wakeStartPayload carries the optional wake volume.
type wakeStartPayload struct {
	WakeVolume *float64 `json:"wake_volume"`
}

// buildMsg wraps a payload under a single top-level key, the envelope
// shape devices expect for server-initiated messages.
func buildMsg(key string, payload any) []byte {
	data, err := json.Marshal(map[string]any{key: payload})
	if err != nil {
		return nil
	}
	return data
}

// encodeConfigMsg wraps the raw user config document for a get_config reply.
func encodeConfigMsg(cfg any) []byte {
	return buildMsg("config", cfg)
}

// wakeResultPayload tells a wake participant whether it won arbitration.
type wakeResultPayload struct {
	Won bool `json:"won"`
}

// encodeWakeResult encodes the arbitration verdict push.
func encodeWakeResult(won bool) []byte {
	return buildMsg("wake_result", wakeResultPayload{Won: won})
}
