package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"accessibility-insights/background/internal/storage"
)

// LaunchPanel is the panel shown when the popup opens.
type LaunchPanel string

const (
	LaunchPad  LaunchPanel = "launchPad"
	AdhocTools LaunchPanel = "adhocTools"
)

// ErrInvalidLaunchPanel is returned for an unrecognized panel.
var ErrInvalidLaunchPanel = errors.New("featureflags: invalid launch panel")

// LaunchPanelStore keeps the launch panel choice under storage.KeyLaunchPanelSetting.
type LaunchPanelStore struct {
	mu    sync.Mutex
	panel LaunchPanel
	local storage.Store
}

// NewLaunchPanelStore returns a store seeded with initial; empty or unknown values fall back to LaunchPad.
func NewLaunchPanelStore(local storage.Store, initial LaunchPanel) *LaunchPanelStore {
	if !initial.valid() {
		initial = LaunchPad
	}
	return &LaunchPanelStore{panel: initial, local: local}
}

func (p LaunchPanel) valid() bool { return p == LaunchPad || p == AdhocTools }

// Get returns the current panel.
func (s *LaunchPanelStore) Get() LaunchPanel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// Set stores panel.
func (s *LaunchPanelStore) Set(ctx context.Context, panel LaunchPanel) error {
	if !panel.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLaunchPanel, panel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(ctx, s.local, storage.KeyLaunchPanelSetting, panel); err != nil {
		return fmt.Errorf("featureflags: persist launch panel: %w", err)
	}
	s.panel = panel
	return nil
}
