package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWakeVolume records the wake volume one device reported when it
// joined a wake session.
func (c *Client) WriteWakeVolume(hostname string, volume float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"wake_events",
		map[string]string{
			"hostname": hostname,
		},
		map[string]interface{}{
			"volume": volume,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteWakeResult records the arbitration verdict for one participant.
func (c *Client) WriteWakeResult(hostname string, won bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"wake_results",
		map[string]string{
			"hostname": hostname,
		},
		map[string]interface{}{
			"won": won,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteCommandDispatch records one command forwarded to the endpoint.
func (c *Client) WriteCommandDispatch(endpoint string, ok bool, latency time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_dispatch",
		map[string]string{
			"endpoint": endpoint,
		},
		map[string]interface{}{
			"ok":         ok,
			"latency_ms": float64(latency.Milliseconds()),
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteClientCount records the number of connected devices.
func (c *Client) WriteClientCount(count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connected_clients",
		nil,
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
