package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"accessibility-insights/background/internal/logging"
)

type fixedInstallation struct {
	id  string
	err error
}

func (f fixedInstallation) GetInstallationID(context.Context) (string, error) { return f.id, f.err }

func TestApplicationClient_DisabledByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)
	sink := &mockSink{}
	c := NewApplicationClient(sink, nil, logging.Nop())

	c.TrackEvent(context.Background(), "x", nil)
	if err := c.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(sink.getEvents()) != 0 {
		t.Error("disabled client must not forward events")
	}
	if c.Enabled() {
		t.Error("client should start disabled")
	}
}

func TestApplicationClient_EnableDisable(t *testing.T) {
	defer goleak.VerifyNone(t)
	sink := &mockSink{}
	c := NewApplicationClient(sink, nil, logging.Nop())

	c.EnableTelemetry()
	c.TrackEvent(context.Background(), "first", nil)
	c.DisableTelemetry()
	c.TrackEvent(context.Background(), "second", nil)
	_ = c.Drain(context.Background())

	events := sink.getEvents()
	if len(events) != 1 || events[0].Name != "first" {
		t.Errorf("events = %+v, want only first", events)
	}
}

func TestApplicationClient_AddsApplicationData(t *testing.T) {
	defer goleak.VerifyNone(t)
	sink := &mockSink{}
	data := &ApplicationDataFactory{
		Name:         "a11y",
		Version:      "1.0.0",
		Build:        "abc",
		Installation: fixedInstallation{id: "install-1"},
	}
	c := NewApplicationClient(sink, data, logging.Nop())
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.nowF = func() time.Time { return fixed }
	c.EnableTelemetry()

	c.TrackEvent(context.Background(), "evt", map[string]string{"applicationName": "override", "k": "v"})
	_ = c.Drain(context.Background())

	events := sink.getEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	p := events[0].Properties
	if p[PropApplicationName] != "override" {
		t.Errorf("event property should win, got %q", p[PropApplicationName])
	}
	if p[PropApplicationVersion] != "1.0.0" || p[PropApplicationBuild] != "abc" || p[PropInstallationID] != "install-1" || p["k"] != "v" {
		t.Errorf("properties = %v", p)
	}
	if !events[0].Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", events[0].Timestamp, fixed)
	}
}

func TestApplicationClient_InstallationErrorStillTracks(t *testing.T) {
	defer goleak.VerifyNone(t)
	sink := &mockSink{}
	data := &ApplicationDataFactory{Name: "a11y", Installation: fixedInstallation{err: errors.New("storage down")}}
	c := NewApplicationClient(sink, data, logging.Nop())
	c.EnableTelemetry()

	c.TrackEvent(context.Background(), "evt", nil)
	_ = c.Drain(context.Background())

	events := sink.getEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].Properties[PropInstallationID]; ok {
		t.Error("installationId should be omitted when it cannot be read")
	}
}

func TestApplicationClient_DrainTimeout(t *testing.T) {
	sink := &mockSink{delay: 200 * time.Millisecond}
	c := NewApplicationClient(sink, nil, logging.Nop())
	c.EnableTelemetry()
	c.TrackEvent(context.Background(), "slow", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain err = %v, want DeadlineExceeded", err)
	}
	if err := c.Drain(context.Background()); err != nil {
		t.Errorf("second Drain: %v", err)
	}
}
