// Package storage provides the key/value storage used for browser-local settings and persisted state.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Local storage keys.
const (
	KeyURL                = "url"
	KeyFeatureFlags       = "featureFlags"
	KeyLaunchPanelSetting = "launchPanelSetting"
	KeyInstallationData   = "installationData"

	// Deprecated keys are removed on startup.
	KeyAlias           = "alias"
	KeyHideStartDialog = "hideStartDialog"
)

// Persisted state keys (the data the extension keeps in IndexedDB).
const (
	KeyAssessmentStore       = "assessmentStore"
	KeyUserConfiguration     = "userConfiguration"
	KeyTabIDToDetailsViewMap = "tabIdToDetailsViewMap"
)

// DeprecatedKeys returns the local storage keys that are deleted on every startup.
func DeprecatedKeys() []string {
	return []string{KeyAlias, KeyHideStartDialog}
}

// Store is a JSON key/value store with the semantics of browser.storage.local.
type Store interface {
	// Get returns the stored JSON for each key that exists; missing keys are absent from the map.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set JSON-encodes and stores each value, replacing existing entries.
	Set(ctx context.Context, items map[string]any) error
	// Remove deletes the keys. Removing a missing key is not an error.
	Remove(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value stored under key into out. found is false when the key is missing.
func GetJSON(ctx context.Context, s Store, key string, out any) (found bool, err error) {
	m, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := m[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON stores a single value under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	return s.Set(ctx, map[string]any{key: value})
}

func encodeItems(items map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for k, v := range items {
		if raw, ok := v.(json.RawMessage); ok {
			out[k] = string(raw)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("storage: encode %q: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}
