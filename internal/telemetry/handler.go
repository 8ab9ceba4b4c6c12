package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"accessibility-insights/background/internal/browser"
)

// Base property names of every published event.
const (
	PropSource      = "source"
	PropTriggeredBy = "triggeredBy"
	PropURL         = "url"
	PropTitle       = "title"
)

// TelemetryData is the telemetry bag carried by an action payload: a source, what triggered the
// action, and any number of custom fields.
type TelemetryData struct {
	Source      string
	TriggeredBy string
	Custom      map[string]any
}

// MarshalJSON flattens the custom fields next to source and triggeredBy.
func (d TelemetryData) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Custom)+2)
	for k, v := range d.Custom {
		m[k] = v
	}
	if d.Source != "" {
		m[PropSource] = d.Source
	}
	if d.TriggeredBy != "" {
		m[PropTriggeredBy] = d.TriggeredBy
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads source and triggeredBy and keeps every other field in Custom.
func (d *TelemetryData) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = TelemetryData{}
	if v, ok := m[PropSource]; ok {
		d.Source = stringify(v)
		delete(m, PropSource)
	}
	if v, ok := m[PropTriggeredBy]; ok {
		d.TriggeredBy = stringify(v)
		delete(m, PropTriggeredBy)
	}
	if len(m) > 0 {
		d.Custom = m
	}
	return nil
}

// Payload is embedded in action payloads that may carry telemetry.
type Payload struct {
	Telemetry *TelemetryData `json:"telemetry,omitempty"`
}

// TabLookup resolves tab metadata. browser.Adapter satisfies it.
type TabLookup interface {
	GetTab(ctx context.Context, id int) (*browser.Tab, error)
}

// EventHandler is the gatekeeper between application events and the telemetry client.
type EventHandler struct {
	client Client
	tabs   TabLookup
}

// NewEventHandler returns a handler that looks tabs up through tabs and dispatches to client.
func NewEventHandler(client Client, tabs TabLookup) *EventHandler {
	return &EventHandler{client: client, tabs: tabs}
}

// EnableTelemetry enables the underlying client.
func (h *EventHandler) EnableTelemetry() { h.client.EnableTelemetry() }

// DisableTelemetry disables the underlying client.
func (h *EventHandler) DisableTelemetry() { h.client.DisableTelemetry() }

// PublishTelemetry sends eventName with the payload's telemetry, enriched with the tab's url and title
// when includeURLAndTitle is set. It does nothing when the payload has no telemetry or the tab is gone.
// Tab lookup errors are returned.
func (h *EventHandler) PublishTelemetry(ctx context.Context, eventName string, payload Payload, tabID int, includeURLAndTitle bool) error {
	if payload.Telemetry == nil {
		return nil
	}
	tab, err := h.tabs.GetTab(ctx, tabID)
	if err != nil {
		return fmt.Errorf("telemetry: look up tab %d: %w", tabID, err)
	}
	if tab == nil {
		return nil
	}
	h.client.TrackEvent(ctx, eventName, buildProperties(payload.Telemetry, tabID, tab, includeURLAndTitle))
	return nil
}

// PublishTelemetryWithoutURL is PublishTelemetry with includeURLAndTitle false.
func (h *EventHandler) PublishTelemetryWithoutURL(ctx context.Context, eventName string, payload Payload, tabID int) error {
	return h.PublishTelemetry(ctx, eventName, payload, tabID, false)
}

func buildProperties(data *TelemetryData, tabID int, tab *browser.Tab, includeURLAndTitle bool) map[string]string {
	props := make(map[string]string, len(data.Custom)+4)
	source := data.Source
	if source == "" {
		source = strconv.Itoa(tabID)
	}
	props[PropSource] = RemoveEmail(source)
	props[PropTriggeredBy] = RemoveEmail(data.TriggeredBy)
	if includeURLAndTitle {
		props[PropURL] = RemoveEmail(tab.URL)
		props[PropTitle] = RemoveEmail(tab.Title)
	}
	for k, v := range data.Custom {
		props[k] = RemoveEmail(stringify(v))
	}
	return props
}

// stringify returns strings as-is and JSON-encodes everything else.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
