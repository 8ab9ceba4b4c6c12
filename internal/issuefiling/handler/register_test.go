package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/issuefiling"
	"accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
	"accessibility-insights/background/internal/userconfig"
)

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishTelemetryWithoutURL(ctx context.Context, eventName string, payload telemetry.Payload, tabID int) error {
	f.events = append(f.events, eventName)
	return nil
}

func setup(t *testing.T) (*messaging.Interpreter, *userconfig.Store, *browser.MemoryAdapter, *fakePublisher) {
	t.Helper()
	adapter := browser.NewMemoryAdapter(browser.Manifest{Name: "test", Version: "1.0.0"}, storage.NewMemoryStore())
	cfg := userconfig.NewStore(storage.NewMemoryStore(), nil, nil, nil)
	pub := &fakePublisher{}
	interp := messaging.NewInterpreter()
	Register(interp, Deps{
		Provider:  issuefiling.DefaultProvider(),
		Settings:  cfg,
		Opener:    TabOpener{Adapter: adapter},
		Env:       domain.EnvironmentInfo{ToolName: "Accessibility Insights for Web", ExtensionVersion: "1.0.0"},
		Telemetry: pub,
	})
	return interp, cfg, adapter, pub
}

func fileIssueMessage(t *testing.T, service string) browser.Message {
	t.Helper()
	msg, err := messaging.NewMessage(messaging.IssueFilingFileIssue, 3, FileIssuePayload{
		Payload: telemetry.Payload{Telemetry: &telemetry.TelemetryData{TriggeredBy: "mouseclick"}},
		Service: service,
		IssueData: domain.CreateIssueDetailsTextData{
			Rule:    domain.Rule{ID: "image-alt", Description: "Images must have alternate text"},
			Element: domain.Element{Identifier: "img"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestRegister_FilesToConfiguredService(t *testing.T) {
	interp, cfg, adapter, pub := setup(t)
	ctx := context.Background()
	if err := cfg.SaveIssueFilingSettings(ctx, issuefiling.GitHubServiceKey, domain.Settings{issuefiling.GitHubRepositoryField: "https://github.com/me/repo"}); err != nil {
		t.Fatal(err)
	}

	res, err := interp.Interpret(ctx, fileIssueMessage(t, ""))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	u := res.Value.(FileIssueResult).URL
	if !strings.HasPrefix(u, "https://github.com/me/repo/issues/new?title=") {
		t.Errorf("URL = %q", u)
	}
	tabs, _ := adapter.Tabs(ctx)
	if len(tabs) != 1 || tabs[0].URL != u || !tabs[0].Active {
		t.Errorf("tabs = %+v, want one active tab at the issue URL", tabs)
	}
	if len(pub.events) != 1 || pub.events[0] != EventFileIssueClick {
		t.Errorf("telemetry events = %v", pub.events)
	}
}

func TestRegister_ExplicitService(t *testing.T) {
	interp, cfg, _, _ := setup(t)
	ctx := context.Background()
	_ = cfg.SaveIssueFilingSettings(ctx, issuefiling.AzureBoardsServiceKey, domain.Settings{
		issuefiling.AzureBoardsProjectURLField:   "https://dev.azure.com/o/p",
		issuefiling.AzureBoardsDetailsFieldField: issuefiling.IssueDetailsDescription,
	})
	_ = cfg.SetBugService(ctx, issuefiling.GitHubServiceKey)

	res, err := interp.Interpret(ctx, fileIssueMessage(t, issuefiling.AzureBoardsServiceKey))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if u := res.Value.(FileIssueResult).URL; !strings.HasPrefix(u, "https://dev.azure.com/o/p/_workitems/create/Issue?") {
		t.Errorf("URL = %q", u)
	}
}

func TestRegister_Errors(t *testing.T) {
	interp, cfg, adapter, pub := setup(t)
	ctx := context.Background()

	if _, err := interp.Interpret(ctx, fileIssueMessage(t, "")); !errors.Is(err, ErrNoServiceSelected) {
		t.Errorf("no service err = %v", err)
	}
	if _, err := interp.Interpret(ctx, fileIssueMessage(t, "jira")); !errors.Is(err, issuefiling.ErrUnknownService) {
		t.Errorf("unknown service err = %v", err)
	}
	_ = cfg.SetBugService(ctx, issuefiling.GitHubServiceKey)
	if _, err := interp.Interpret(ctx, fileIssueMessage(t, "")); !errors.Is(err, issuefiling.ErrInvalidSettings) {
		t.Errorf("invalid settings err = %v", err)
	}
	if tabs, _ := adapter.Tabs(ctx); len(tabs) != 0 {
		t.Errorf("no tab should open on failure, got %+v", tabs)
	}
	if len(pub.events) != 0 {
		t.Errorf("no telemetry on failure, got %v", pub.events)
	}
}
