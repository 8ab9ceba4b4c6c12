package issuefiling

import (
	"context"
	"fmt"

	"accessibility-insights/background/internal/issuefiling/domain"
)

// Provider is the registry of issue filing services.
type Provider struct {
	services []Service
}

// NewProvider returns a registry of services, in display order.
func NewProvider(services ...Service) *Provider {
	return &Provider{services: services}
}

// DefaultProvider registers GitHub and Azure Boards.
func DefaultProvider() *Provider {
	return NewProvider(NewGitHubService(), NewAzureBoardsService())
}

// All returns the registered services.
func (p *Provider) All() []Service {
	return append([]Service(nil), p.services...)
}

// ForKey returns the service registered under key.
func (p *Provider) ForKey(key string) (Service, error) {
	for _, s := range p.services {
		if s.Key() == key {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownService, key)
}

// Opener opens a URL for the user.
type Opener interface {
	OpenURL(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

func (f OpenerFunc) OpenURL(ctx context.Context, url string) error { return f(ctx, url) }

// FileIssue validates settings, builds the issue URL and opens it. The URL is returned even when opening fails.
func FileIssue(ctx context.Context, opener Opener, service Service, settings domain.Settings, env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) (string, error) {
	u, err := service.IssueURL(settings, env, data)
	if err != nil {
		return "", err
	}
	if err := opener.OpenURL(ctx, u); err != nil {
		return u, fmt.Errorf("issuefiling: open %s issue: %w", service.Key(), err)
	}
	return u, nil
}
