// Package tsdb records operational telemetry in InfluxDB: wake events
// with their volumes and winners, command dispatch outcomes with latency,
// and connected client counts.
//
// Writes are non-blocking and batched by the InfluxDB client; telemetry
// loss is tolerated and never propagates to the request path.
package tsdb
