package userconfig

import (
	"context"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/messaging"
)

// SetTelemetryStatePayload opts in or out of telemetry.
type SetTelemetryStatePayload struct {
	EnableTelemetry bool `json:"enableTelemetry"`
}

// SetBugServicePayload selects a bug service.
type SetBugServicePayload struct {
	BugServiceName string `json:"bugServiceName"`
}

// SetBugServicePropertyPayload sets one settings field.
type SetBugServicePropertyPayload struct {
	BugServiceName string `json:"bugServiceName"`
	PropertyName   string `json:"propertyName"`
	PropertyValue  string `json:"propertyValue"`
}

// SaveIssueFilingSettingsPayload selects a service and replaces its settings.
type SaveIssueFilingSettingsPayload struct {
	BugServiceName     string          `json:"bugServiceName"`
	BugServiceSettings domain.Settings `json:"bugServiceSettings"`
}

// Register registers the user configuration message callbacks on interp.
func Register(interp *messaging.Interpreter, store *Store) {
	interp.RegisterTypeToPayloadCallback(messaging.UserConfigSetTelemetryState, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SetTelemetryStatePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.SetTelemetryState(ctx, p.EnableTelemetry)
	})
	interp.RegisterTypeToPayloadCallback(messaging.UserConfigSetBugService, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SetBugServicePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.SetBugService(ctx, p.BugServiceName)
	})
	interp.RegisterTypeToPayloadCallback(messaging.UserConfigSetBugServiceProperty, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SetBugServicePropertyPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.SetIssueFilingServiceProperty(ctx, p.BugServiceName, p.PropertyName, p.PropertyValue)
	})
	interp.RegisterTypeToPayloadCallback(messaging.UserConfigSaveIssueFilingSettings, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SaveIssueFilingSettingsPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.SaveIssueFilingSettings(ctx, p.BugServiceName, p.BugServiceSettings)
	})
	interp.RegisterTypeToPayloadCallback(messaging.UserConfigGetState, func(ctx context.Context, msg browser.Message) (any, error) {
		return store.State(), nil
	})
}
