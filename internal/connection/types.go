package connection

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Handle is an opaque identifier for one live device connection.
// Handles are never reused; a reconnecting device gets a fresh handle.
type Handle string

// Field names the mutable identity fields a device can report after connect.
type Field string

// Updatable connection fields.
const (
	FieldHostname Field = "hostname"
	FieldPlatform Field = "platform"
	FieldMACAddr  Field = "mac_addr"
)

// Writer delivers an encoded outbound message to one device connection.
//
// Implementations must not block: the API layer backs this with a buffered
// send channel drained by the connection's write pump.
type Writer interface {
	Write(data []byte) error
}

// Client is the registry's record for one connected device.
type Client struct {
	Handle      Handle    `json:"handle"`
	UserAgent   string    `json:"user_agent"`
	Hostname    string    `json:"hostname,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	MACAddr     string    `json:"mac_addr,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// MACAddr is a canonical colon-hex hardware address.
//
// Devices report it either as a preformatted string or as a 6-element
// numeric sequence; both forms normalize to lower-case "xx:xx:xx:xx:xx:xx".
type MACAddr string

// UnmarshalJSON accepts both wire forms of a MAC address.
func (m *MACAddr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MACAddr(strings.ToLower(s))
		return nil
	}

	// Note: a []byte target would expect base64, so decode into ints.
	var octets []int
	if err := json.Unmarshal(data, &octets); err != nil {
		return fmt.Errorf("mac_addr must be a string or a numeric sequence")
	}
	formatted, err := FormatMAC(octets)
	if err != nil {
		return err
	}
	*m = MACAddr(formatted)
	return nil
}

// String returns the canonical address.
func (m MACAddr) String() string {
	return string(m)
}

// FormatMAC formats a 6-element octet sequence as "xx:xx:xx:xx:xx:xx".
func FormatMAC(octets []int) (string, error) {
	if len(octets) != 6 {
		return "", fmt.Errorf("mac_addr must have 6 octets, got %d", len(octets))
	}
	for _, o := range octets {
		if o < 0 || o > 255 {
			return "", fmt.Errorf("mac_addr octet %d out of range", o)
		}
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		octets[0], octets[1], octets[2], octets[3], octets[4], octets[5]), nil
}
