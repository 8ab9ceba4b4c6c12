package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"accessibility-insights/background/internal/telemetry"
)

const (
	// scopeName is the instrumentation scope of telemetry log records.
	scopeName = "a11y.telemetry"
	// EventNameAttr carries the event name so backends can filter without parsing the body.
	EventNameAttr = "event_name"
)

// Emitter is the subset of otellog.Logger used by the sink.
type Emitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventSink returns a Sink that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op sink.
func NewEventSink(provider *sdklog.LoggerProvider) telemetry.Sink {
	if provider == nil {
		return noopSink{}
	}
	return &otelSink{logger: provider.Logger(scopeName)}
}

// NewEventSinkWithLogger returns a Sink that emits records to logger directly.
func NewEventSinkWithLogger(logger Emitter) telemetry.Sink {
	if logger == nil {
		return noopSink{}
	}
	return &otelSink{logger: logger}
}

type noopSink struct{}

func (noopSink) Track(context.Context, telemetry.Event) error { return nil }

type otelSink struct {
	logger Emitter
}

// Track converts the event to an OTel log record: the event name is the body, properties are attributes.
func (s *otelSink) Track(ctx context.Context, event telemetry.Event) error {
	if event.Name == "" {
		return nil
	}
	rec := otellog.Record{}
	rec.SetEventName(event.Name)
	rec.SetBody(otellog.StringValue(event.Name))
	rec.SetSeverity(otellog.SeverityInfo)
	rec.AddAttributes(otellog.String(EventNameAttr, event.Name))
	for k, v := range event.Properties {
		if v == "" {
			continue
		}
		rec.AddAttributes(otellog.String(k, v))
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	s.logger.Emit(ctx, rec)
	return nil
}
