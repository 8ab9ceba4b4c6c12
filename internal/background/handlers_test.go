package background

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
)

func TestTabRemoved_DropsDetailsViewPairing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app, err := f.boot.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	target, _ := f.adapter.CreateTab(ctx, "https://a.test", true)
	f.adapter.DispatchMessage(ctx, mustMessage(t, messaging.DetailsViewOpen, target.ID, nil))
	detailsID, ok := app.Tabs.DetailsViewFor(target.ID)
	if !ok {
		t.Fatal("details view should be recorded")
	}

	if err := f.adapter.RemoveTab(ctx, target.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := app.Tabs.DetailsViewFor(target.ID); ok {
		t.Error("pairing should be dropped when the target tab closes")
	}
	if _, ok := app.Tabs.Get(target.ID); ok {
		t.Error("tab context should be dropped")
	}
	var stored map[int]int
	if _, err := storage.GetJSON(ctx, f.persisted, storage.KeyTabIDToDetailsViewMap, &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 0 {
		t.Errorf("persisted map = %v, want empty", stored)
	}
	if _, ok := app.Tabs.Get(detailsID); !ok {
		t.Error("details view tab itself is still open")
	}
}

func TestDetailsViewOpen_FocusesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app, err := f.boot.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	target, _ := f.adapter.CreateTab(ctx, "https://a.test", true)

	first, err := app.openDetailsView(ctx, target.ID)
	if err != nil || !first.Created {
		t.Fatalf("first open = %+v, %v", first, err)
	}
	if _, err := f.adapter.CreateTab(ctx, "https://b.test", true); err != nil {
		t.Fatal(err)
	}
	second, err := app.openDetailsView(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DetailsViewOpenResult{DetailsViewTabID: first.DetailsViewTabID}, second); diff != "" {
		t.Errorf("second open mismatch (-want +got):\n%s", diff)
	}
	tab, _ := f.adapter.GetTab(ctx, first.DetailsViewTabID)
	if tab == nil || !tab.Active {
		t.Errorf("existing details view should be focused, got %+v", tab)
	}

	// A details view that was closed outside our knowledge is recreated.
	_ = f.adapter.RemoveTab(ctx, first.DetailsViewTabID)
	third, err := app.openDetailsView(ctx, target.ID)
	if err != nil || !third.Created || third.DetailsViewTabID == first.DetailsViewTabID {
		t.Errorf("third open = %+v, %v", third, err)
	}
}

func TestMessage_ReplyToSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.boot.Run(ctx); err != nil {
		t.Fatal(err)
	}
	tab, _ := f.adapter.CreateTab(ctx, "https://a.test", true)
	msg := mustMessage(t, messaging.LaunchPanelGetState, tab.ID, nil)
	msg.ID = "req-1"
	f.adapter.DispatchMessage(ctx, msg)

	sent := f.adapter.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent = %+v, want one reply", sent)
	}
	if sent[0].ID != "req-1" || sent[0].Type != messaging.LaunchPanelGetState+responseSuffix {
		t.Errorf("reply = %+v", sent[0])
	}
	var panel string
	if err := json.Unmarshal(sent[0].Payload, &panel); err != nil || panel != "launchPad" {
		t.Errorf("reply payload = %s (%v)", sent[0].Payload, err)
	}
}

func TestTelemetry_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app, err := f.boot.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tab, _ := f.adapter.CreateTab(ctx, "https://a.test/?user=me@example.com", true)

	// Disabled: nothing is tracked.
	f.adapter.DispatchMessage(ctx, mustMessage(t, messaging.TelemetrySend, tab.ID, TelemetrySendPayload{
		EventName: "ignored",
		Payload:   telemetry.Payload{Telemetry: &telemetry.TelemetryData{TriggeredBy: "mouseclick"}},
	}))

	f.adapter.DispatchMessage(ctx, mustMessage(t, messaging.UserConfigSetTelemetryState, tab.ID, map[string]any{"enableTelemetry": true}))
	f.adapter.DispatchMessage(ctx, mustMessage(t, messaging.TelemetrySend, tab.ID, TelemetrySendPayload{
		EventName: "ToggleAutomatedChecks",
		Payload:   telemetry.Payload{Telemetry: &telemetry.TelemetryData{Source: "Launchpad", TriggeredBy: "keypress"}},
	}))
	f.adapter.DispatchMessage(ctx, browser.Message{Type: "insights/unknown/thing", TabID: tab.ID})

	if err := app.TelemetryClient.Drain(ctx); err != nil {
		t.Fatal(err)
	}
	events := f.sink.get()
	names := map[string]telemetry.Event{}
	for _, e := range events {
		names[e.Name] = e
	}
	if _, ok := names["ignored"]; ok {
		t.Error("events before opt-in must not be tracked")
	}
	got, ok := names["ToggleAutomatedChecks"]
	if !ok {
		t.Fatalf("events = %+v", events)
	}
	want := map[string]string{
		telemetry.PropSource:             "Launchpad",
		telemetry.PropTriggeredBy:        "keypress",
		telemetry.PropURL:                "https://a.test/?user=(email-removed)",
		telemetry.PropTitle:              "https://a.test/?user=(email-removed)",
		telemetry.PropApplicationName:    "Accessibility Insights for Web",
		telemetry.PropApplicationVersion: "2.44.0",
	}
	for k, v := range want {
		if got.Properties[k] != v {
			t.Errorf("property %s = %q, want %q", k, got.Properties[k], v)
		}
	}
	if got.Properties[telemetry.PropInstallationID] == "" {
		t.Error("installation id should be attached")
	}
	if e, ok := names[EventUnhandledMessage]; !ok || e.Properties["messageType"] != "insights/unknown/thing" {
		t.Errorf("unhandled message event = %+v", e)
	}
}

func TestTelemetrySend_RequiresName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app, err := f.boot.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, err = app.Interpreter.Interpret(ctx, mustMessage(t, messaging.TelemetrySend, 1, TelemetrySendPayload{}))
	if !errors.Is(err, ErrEmptyEventName) {
		t.Errorf("err = %v, want ErrEmptyEventName", err)
	}
}
