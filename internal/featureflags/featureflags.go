// Package featureflags holds feature flag overrides and the launch panel choice, both kept in local storage.
package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"accessibility-insights/background/internal/storage"
)

// Flag names.
const (
	LogTelemetryToConsole  = "logTelemetryToConsole"
	ShowAllAssessments     = "showAllAssessments"
	Scoping                = "scoping"
	ShowInstanceVisibility = "showInstanceVisibility"
	DebugTools             = "debugTools"
	ExportResults          = "exportResult"
	ManualInstanceDetails  = "manualInstanceDetails"
)

// ErrUnknownFlag is returned by Set for a flag not in the defaults table.
var ErrUnknownFlag = errors.New("featureflags: unknown flag")

// Defaults returns the built-in flag values.
func Defaults() map[string]bool {
	return map[string]bool{
		LogTelemetryToConsole:  false,
		ShowAllAssessments:     false,
		Scoping:                false,
		ShowInstanceVisibility: false,
		DebugTools:             false,
		ExportResults:          true,
		ManualInstanceDetails:  false,
	}
}

// Store resolves flags as defaults overlaid with persisted overrides.
type Store struct {
	mu        sync.RWMutex
	defaults  map[string]bool
	overrides map[string]bool
	local     storage.Store
}

// NewStore returns a store over local seeded with overrides read at startup.
// Overrides for flags that no longer exist are dropped.
func NewStore(local storage.Store, overrides map[string]bool) *Store {
	s := &Store{defaults: Defaults(), overrides: make(map[string]bool), local: local}
	for name, v := range overrides {
		if _, ok := s.defaults[name]; ok {
			s.overrides[name] = v
		}
	}
	return s
}

// IsEnabled reports the effective value of name. Unknown flags are disabled.
func (s *Store) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[name]; ok {
		return v
	}
	return s.defaults[name]
}

// All returns the effective value of every flag.
func (s *Store) All() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.defaults))
	for name, v := range s.defaults {
		out[name] = v
	}
	for name, v := range s.overrides {
		out[name] = v
	}
	return out
}

// Names returns the flag names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set overrides name and persists the overrides.
func (s *Store) Set(ctx context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defaults[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, name)
	}
	next := make(map[string]bool, len(s.overrides)+1)
	for k, v := range s.overrides {
		next[k] = v
	}
	next[name] = enabled
	if err := storage.SetJSON(ctx, s.local, storage.KeyFeatureFlags, next); err != nil {
		return fmt.Errorf("featureflags: persist: %w", err)
	}
	s.overrides = next
	return nil
}
