// Package telemetry turns application actions into redacted telemetry events and hands them to a sink.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event is a single named telemetry event with flat string properties.
type Event struct {
	Name       string
	Properties map[string]string
	Timestamp  time.Time
}

// Sink delivers events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink that logs each event at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Track logs the event.
func (s *LogSink) Track(ctx context.Context, event Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	fields := make([]zap.Field, 0, len(event.Properties)+2)
	fields = append(fields, zap.String("event", event.Name), zap.Time("timestamp", event.Timestamp))
	for k, v := range event.Properties {
		fields = append(fields, zap.String(k, v))
	}
	s.logger.Info("telemetry", fields...)
	return nil
}
