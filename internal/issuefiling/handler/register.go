// Package handler routes file-issue messages to the issue filing services.
package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/issuefiling"
	"accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/telemetry"
	"accessibility-insights/background/internal/userconfig"
)

// EventFileIssueClick is published when an issue is filed.
const EventFileIssueClick = "fileIssueClick"

// ErrNoServiceSelected is returned when no service is named and none is configured.
var ErrNoServiceSelected = errors.New("issuefiling: no bug service selected")

// SettingsSource supplies issue filing settings. *userconfig.Store satisfies it.
type SettingsSource interface {
	IssueFilingSettings() (string, domain.Settings)
	SettingsFor(service string) domain.Settings
}

// TelemetryPublisher publishes action telemetry. *telemetry.EventHandler satisfies it.
type TelemetryPublisher interface {
	PublishTelemetryWithoutURL(ctx context.Context, eventName string, payload telemetry.Payload, tabID int) error
}

// FileIssuePayload asks to file issueData to Service (empty means the configured service).
type FileIssuePayload struct {
	telemetry.Payload
	Service   string                            `json:"service,omitempty"`
	IssueData domain.CreateIssueDetailsTextData `json:"issueData"`
}

// FileIssueResult is returned for IssueFilingFileIssue.
type FileIssueResult struct {
	URL string `json:"url"`
}

// Deps are the collaborators of the file-issue callback.
type Deps struct {
	Provider  *issuefiling.Provider
	Settings  SettingsSource
	Opener    issuefiling.Opener
	Env       domain.EnvironmentInfo
	Telemetry TelemetryPublisher
	Logger    *zap.Logger
}

// Register registers the file-issue callback on interp.
func Register(interp *messaging.Interpreter, d Deps) {
	logger := logging.OrNop(d.Logger)
	interp.RegisterTypeToPayloadCallback(messaging.IssueFilingFileIssue, func(ctx context.Context, msg browser.Message) (any, error) {
		var p FileIssuePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		key, settings := d.Settings.IssueFilingSettings()
		if p.Service != "" && p.Service != key {
			key, settings = p.Service, d.Settings.SettingsFor(p.Service)
		}
		if key == "" || key == userconfig.NoBugService {
			return nil, ErrNoServiceSelected
		}
		service, err := d.Provider.ForKey(key)
		if err != nil {
			return nil, err
		}
		u, err := issuefiling.FileIssue(ctx, d.Opener, service, settings, d.Env, p.IssueData)
		if err != nil {
			return nil, err
		}
		if d.Telemetry != nil {
			if err := d.Telemetry.PublishTelemetryWithoutURL(ctx, EventFileIssueClick, p.Payload, msg.TabID); err != nil {
				logger.Warn("issuefiling: publish telemetry", zap.Error(err))
			}
		}
		return FileIssueResult{URL: u}, nil
	})
}

// TabOpener opens URLs in a new active browser tab.
type TabOpener struct {
	Adapter browser.Adapter
}

func (o TabOpener) OpenURL(ctx context.Context, url string) error {
	_, err := o.Adapter.CreateTab(ctx, url, true)
	return err
}
