package producer

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"accessibility-insights/background/internal/telemetry"
)

// Wire field names of an encoded event.
const (
	fieldName       = "name"
	fieldTimestamp  = "timestamp"
	fieldProperties = "properties"
)

// ErrMalformedEvent is returned by DecodeEvent when the payload is not an encoded event.
var ErrMalformedEvent = errors.New("producer: malformed telemetry event")

// EncodeEvent serializes event as protojson of a structpb.Struct:
// {"name": ..., "timestamp": RFC3339Nano, "properties": {...}}.
func EncodeEvent(event telemetry.Event) ([]byte, error) {
	props := make(map[string]any, len(event.Properties))
	for k, v := range event.Properties {
		props[k] = v
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	s, err := structpb.NewStruct(map[string]any{
		fieldName:       event.Name,
		fieldTimestamp:  ts.UTC().Format(time.RFC3339Nano),
		fieldProperties: props,
	})
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// DecodeEvent parses a payload produced by EncodeEvent.
func DecodeEvent(data []byte) (telemetry.Event, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return telemetry.Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	fields := s.GetFields()
	name := fields[fieldName].GetStringValue()
	if name == "" {
		return telemetry.Event{}, fmt.Errorf("%w: missing name", ErrMalformedEvent)
	}
	event := telemetry.Event{Name: name}
	if raw := fields[fieldTimestamp].GetStringValue(); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			event.Timestamp = ts
		}
	}
	if props := fields[fieldProperties].GetStructValue(); props != nil {
		event.Properties = make(map[string]string, len(props.GetFields()))
		for k, v := range props.GetFields() {
			event.Properties[k] = v.GetStringValue()
		}
	}
	return event, nil
}
