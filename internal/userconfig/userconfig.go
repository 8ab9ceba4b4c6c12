// Package userconfig keeps the user's preferences: telemetry opt-in, first-run state and issue filing settings.
package userconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/storage"
)

// NoBugService is the bug service before the user picks one.
const NoBugService = "none"

// ErrEmptyServiceName is returned when a service or property name is blank.
var ErrEmptyServiceName = errors.New("userconfig: service name is empty")

// UserConfiguration is persisted under storage.KeyUserConfiguration.
type UserConfiguration struct {
	EnableTelemetry         bool                       `json:"enableTelemetry"`
	IsFirstTime             bool                       `json:"isFirstTime"`
	BugService              string                     `json:"bugService"`
	BugServicePropertiesMap map[string]domain.Settings `json:"bugServicePropertiesMap"`
}

// Default returns the configuration of a fresh install.
func Default() UserConfiguration {
	return UserConfiguration{
		IsFirstTime:             true,
		BugService:              NoBugService,
		BugServicePropertiesMap: map[string]domain.Settings{},
	}
}

func (c UserConfiguration) clone() UserConfiguration {
	out := c
	out.BugServicePropertiesMap = make(map[string]domain.Settings, len(c.BugServicePropertiesMap))
	for svc, settings := range c.BugServicePropertiesMap {
		copied := make(domain.Settings, len(settings))
		for k, v := range settings {
			copied[k] = v
		}
		out.BugServicePropertiesMap[svc] = copied
	}
	return out
}

// TelemetryToggle is flipped when the user opts in or out. *telemetry.EventHandler satisfies it.
type TelemetryToggle interface {
	EnableTelemetry()
	DisableTelemetry()
}

// Store holds the user configuration and persists every change.
type Store struct {
	mu        sync.Mutex
	state     UserConfiguration
	persisted storage.Store
	telemetry TelemetryToggle
	logger    *zap.Logger
}

// NewStore returns a store seeded with initial (nil means Default()).
func NewStore(persisted storage.Store, initial *UserConfiguration, toggle TelemetryToggle, logger *zap.Logger) *Store {
	state := Default()
	if initial != nil {
		state = initial.clone()
		if state.BugService == "" {
			state.BugService = NoBugService
		}
	}
	return &Store{state: state, persisted: persisted, telemetry: toggle, logger: logging.OrNop(logger)}
}

// State returns a copy of the configuration.
func (s *Store) State() UserConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// ApplyTelemetryState pushes the stored opt-in to the telemetry toggle.
func (s *Store) ApplyTelemetryState() {
	s.mu.Lock()
	enabled := s.state.EnableTelemetry
	s.mu.Unlock()
	s.toggle(enabled)
}

// SetTelemetryState records the opt-in, ends first-run, and enables or disables telemetry.
func (s *Store) SetTelemetryState(ctx context.Context, enabled bool) error {
	err := s.update(ctx, func(c *UserConfiguration) error {
		c.EnableTelemetry = enabled
		c.IsFirstTime = false
		return nil
	})
	if err != nil {
		return err
	}
	s.toggle(enabled)
	return nil
}

// SetBugService selects the issue filing service.
func (s *Store) SetBugService(ctx context.Context, service string) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return ErrEmptyServiceName
	}
	return s.update(ctx, func(c *UserConfiguration) error {
		c.BugService = service
		return nil
	})
}

// SetIssueFilingServiceProperty sets one settings field of service.
func (s *Store) SetIssueFilingServiceProperty(ctx context.Context, service, name, value string) error {
	if strings.TrimSpace(service) == "" || strings.TrimSpace(name) == "" {
		return ErrEmptyServiceName
	}
	return s.update(ctx, func(c *UserConfiguration) error {
		settings := c.BugServicePropertiesMap[service]
		if settings == nil {
			settings = domain.Settings{}
			c.BugServicePropertiesMap[service] = settings
		}
		settings[name] = value
		return nil
	})
}

// SaveIssueFilingSettings selects service and replaces its settings.
func (s *Store) SaveIssueFilingSettings(ctx context.Context, service string, settings domain.Settings) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return ErrEmptyServiceName
	}
	return s.update(ctx, func(c *UserConfiguration) error {
		c.BugService = service
		copied := make(domain.Settings, len(settings))
		for k, v := range settings {
			copied[k] = v
		}
		c.BugServicePropertiesMap[service] = copied
		return nil
	})
}

// IssueFilingSettings returns the selected service and its settings.
func (s *Store) IssueFilingSettings() (string, domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BugService, s.settingsLocked(s.state.BugService)
}

// SettingsFor returns a copy of service's settings.
func (s *Store) SettingsFor(service string) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked(service)
}

func (s *Store) settingsLocked(service string) domain.Settings {
	src := s.state.BugServicePropertiesMap[service]
	out := make(domain.Settings, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (s *Store) toggle(enabled bool) {
	if s.telemetry == nil {
		return
	}
	if enabled {
		s.telemetry.EnableTelemetry()
	} else {
		s.telemetry.DisableTelemetry()
	}
}

func (s *Store) update(ctx context.Context, fn func(c *UserConfiguration) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, s.persisted, storage.KeyUserConfiguration, next); err != nil {
		return fmt.Errorf("userconfig: persist: %w", err)
	}
	s.state = next
	s.logger.Debug("userconfig: updated", zap.String("bugService", next.BugService), zap.Bool("enableTelemetry", next.EnableTelemetry))
	return nil
}
