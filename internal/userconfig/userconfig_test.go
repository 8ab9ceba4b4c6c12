package userconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/storage"
)

type fakeToggle struct {
	enabled *bool
}

func (f *fakeToggle) EnableTelemetry()  { v := true; f.enabled = &v }
func (f *fakeToggle) DisableTelemetry() { v := false; f.enabled = &v }

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, nil, nil)
	want := Default()
	if diff := cmp.Diff(want, s.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if !s.State().IsFirstTime || s.State().BugService != NoBugService {
		t.Errorf("unexpected defaults: %+v", s.State())
	}
}

func TestSetTelemetryState(t *testing.T) {
	persisted := storage.NewMemoryStore()
	toggle := &fakeToggle{}
	s := NewStore(persisted, nil, toggle, nil)
	ctx := context.Background()

	if err := s.SetTelemetryState(ctx, true); err != nil {
		t.Fatalf("SetTelemetryState: %v", err)
	}
	if toggle.enabled == nil || !*toggle.enabled {
		t.Error("telemetry should be enabled")
	}
	state := s.State()
	if !state.EnableTelemetry || state.IsFirstTime {
		t.Errorf("state = %+v", state)
	}

	var stored UserConfiguration
	if found, err := storage.GetJSON(ctx, persisted, storage.KeyUserConfiguration, &stored); err != nil || !found {
		t.Fatalf("persisted: found=%v err=%v", found, err)
	}
	if !stored.EnableTelemetry {
		t.Error("persisted EnableTelemetry should be true")
	}

	if err := s.SetTelemetryState(ctx, false); err != nil {
		t.Fatal(err)
	}
	if *toggle.enabled {
		t.Error("telemetry should be disabled")
	}
}

func TestApplyTelemetryState(t *testing.T) {
	toggle := &fakeToggle{}
	s := NewStore(storage.NewMemoryStore(), &UserConfiguration{EnableTelemetry: true}, toggle, nil)
	s.ApplyTelemetryState()
	if toggle.enabled == nil || !*toggle.enabled {
		t.Error("stored opt-in should enable telemetry")
	}
	if s.State().BugService != NoBugService {
		t.Errorf("empty bug service should default to %q", NoBugService)
	}
}

func TestIssueFilingSettings(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()

	if err := s.SetBugService(ctx, "gitHub"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIssueFilingServiceProperty(ctx, "gitHub", "repository", "https://github.com/me/repo"); err != nil {
		t.Fatal(err)
	}
	service, settings := s.IssueFilingSettings()
	if service != "gitHub" {
		t.Errorf("service = %q", service)
	}
	if diff := cmp.Diff(domain.Settings{"repository": "https://github.com/me/repo"}, settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	azure := domain.Settings{"projectURL": "https://dev.azure.com/o/p", "issueDetailsField": "reproSteps"}
	if err := s.SaveIssueFilingSettings(ctx, "azureBoards", azure); err != nil {
		t.Fatal(err)
	}
	azure["projectURL"] = "mutated"
	service, settings = s.IssueFilingSettings()
	if service != "azureBoards" || settings["projectURL"] != "https://dev.azure.com/o/p" {
		t.Errorf("IssueFilingSettings = %q, %v", service, settings)
	}
	if s.State().BugServicePropertiesMap["gitHub"]["repository"] == "" {
		t.Error("other services' settings should be kept")
	}

	for _, err := range []error{
		s.SetBugService(ctx, " "),
		s.SetIssueFilingServiceProperty(ctx, "gitHub", "", "x"),
		s.SaveIssueFilingSettings(ctx, "", nil),
	} {
		if !errors.Is(err, ErrEmptyServiceName) {
			t.Errorf("err = %v, want ErrEmptyServiceName", err)
		}
	}
}

func TestRegister(t *testing.T) {
	toggle := &fakeToggle{}
	s := NewStore(storage.NewMemoryStore(), nil, toggle, nil)
	interp := messaging.NewInterpreter()
	Register(interp, s)
	ctx := context.Background()

	msgs := []struct {
		typ     string
		payload any
	}{
		{messaging.UserConfigSetTelemetryState, SetTelemetryStatePayload{EnableTelemetry: true}},
		{messaging.UserConfigSaveIssueFilingSettings, SaveIssueFilingSettingsPayload{
			BugServiceName:     "gitHub",
			BugServiceSettings: domain.Settings{"repository": "https://github.com/a/b"},
		}},
		{messaging.UserConfigSetBugServiceProperty, SetBugServicePropertyPayload{
			BugServiceName: "gitHub", PropertyName: "repository", PropertyValue: "https://github.com/c/d",
		}},
	}
	for _, m := range msgs {
		msg, err := messaging.NewMessage(m.typ, 1, m.payload)
		if err != nil {
			t.Fatal(err)
		}
		if res, err := interp.Interpret(ctx, msg); err != nil || !res.Handled {
			t.Fatalf("Interpret(%s) = %+v, %v", m.typ, res, err)
		}
	}

	msg, _ := messaging.NewMessage(messaging.UserConfigGetState, 1, nil)
	res, err := interp.Interpret(ctx, msg)
	if err != nil {
		t.Fatal(err)
	}
	state := res.Value.(UserConfiguration)
	if !state.EnableTelemetry || state.BugService != "gitHub" || state.BugServicePropertiesMap["gitHub"]["repository"] != "https://github.com/c/d" {
		t.Errorf("state = %+v", state)
	}
}
