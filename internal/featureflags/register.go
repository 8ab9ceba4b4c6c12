package featureflags

import (
	"context"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/messaging"
)

// SetFlagPayload overrides one feature flag.
type SetFlagPayload struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

// SetLaunchPanelPayload selects the launch panel.
type SetLaunchPanelPayload struct {
	LaunchPanelType LaunchPanel `json:"launchPanelType"`
}

// Register registers the feature flag and launch panel callbacks on interp.
func Register(interp *messaging.Interpreter, flags *Store, panel *LaunchPanelStore) {
	interp.RegisterTypeToPayloadCallback(messaging.FeatureFlagsSetFlag, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SetFlagPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, flags.Set(ctx, p.Feature, p.Enabled)
	})
	interp.RegisterTypeToPayloadCallback(messaging.FeatureFlagsGetState, func(ctx context.Context, msg browser.Message) (any, error) {
		return flags.All(), nil
	})
	interp.RegisterTypeToPayloadCallback(messaging.LaunchPanelSetState, func(ctx context.Context, msg browser.Message) (any, error) {
		var p SetLaunchPanelPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, panel.Set(ctx, p.LaunchPanelType)
	})
	interp.RegisterTypeToPayloadCallback(messaging.LaunchPanelGetState, func(ctx context.Context, msg browser.Message) (any, error) {
		return panel.Get(), nil
	})
}
