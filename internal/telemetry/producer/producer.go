// Package producer publishes telemetry events to Kafka for the telemetry worker.
package producer

import (
	"accessibility-insights/background/internal/telemetry"
)

// Producer is a telemetry.Sink that owns a transport which must be closed.
type Producer interface {
	telemetry.Sink
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
