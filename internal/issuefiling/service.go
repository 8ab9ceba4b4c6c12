package issuefiling

import (
	"errors"
	"strings"

	"accessibility-insights/background/internal/issuefiling/domain"
)

var (
	// ErrInvalidSettings is returned when a service's settings fail its validity check.
	ErrInvalidSettings = errors.New("issuefiling: invalid settings")
	// ErrUnknownService is returned for a service key that is not registered.
	ErrUnknownService = errors.New("issuefiling: unknown service")
)

// Service is an issue tracker integration.
type Service interface {
	Key() string
	DisplayName() string
	// SettingsFields lists the settings keys the service reads.
	SettingsFields() []string
	IsSettingsValid(settings domain.Settings) bool
	// BuildStoreData keeps only the service's own fields from values.
	BuildStoreData(values map[string]string) domain.Settings
	// IssueURL returns the prefilled new-issue URL. Settings are validated first.
	IssueURL(settings domain.Settings, env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) (string, error)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func pick(values map[string]string, fields ...string) domain.Settings {
	out := make(domain.Settings, len(fields))
	for _, f := range fields {
		if v, ok := values[f]; ok {
			out[f] = v
		}
	}
	return out
}
