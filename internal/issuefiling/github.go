package issuefiling

import (
	"fmt"
	"regexp"

	"accessibility-insights/background/internal/issuefiling/domain"
)

// GitHub settings keys.
const (
	GitHubServiceKey      = "gitHub"
	GitHubRepositoryField = "repository"
)

// repoURL matches https://host/owner/repo with an optional trailing slash.
var repoURL = regexp.MustCompile(`^(https?://[^/]+/[^/]+/[^/]+?)/?$`)

// Rectify appends /issues to a bare repository URL (with or without trailing slash).
// Any other shape is returned unchanged.
func Rectify(repository string) string {
	m := repoURL.FindStringSubmatch(repository)
	if m == nil {
		return repository
	}
	return m[1] + "/issues"
}

// GitHubService files issues to a GitHub repository with a Markdown body.
type GitHubService struct {
	details DetailsBuilderFunc
}

// NewGitHubService returns the GitHub integration.
func NewGitHubService() *GitHubService {
	return &GitHubService{details: DetailsBuilder(MarkdownFormatter{})}
}

func (s *GitHubService) Key() string              { return GitHubServiceKey }
func (s *GitHubService) DisplayName() string      { return "GitHub" }
func (s *GitHubService) SettingsFields() []string { return []string{GitHubRepositoryField} }

func (s *GitHubService) IsSettingsValid(settings domain.Settings) bool {
	return settings != nil && !isBlank(settings[GitHubRepositoryField])
}

func (s *GitHubService) BuildStoreData(values map[string]string) domain.Settings {
	return pick(values, GitHubRepositoryField)
}

// IssueURL returns <rectified repository>/new?title=...&body=....
func (s *GitHubService) IssueURL(settings domain.Settings, env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) (string, error) {
	if !s.IsSettingsValid(settings) {
		return "", fmt.Errorf("%w: %s requires %s", ErrInvalidSettings, GitHubServiceKey, GitHubRepositoryField)
	}
	return NewQueryBuilder(Rectify(settings[GitHubRepositoryField])+"/new").
		WithParam("title", Title(data)).
		WithParam("body", s.details(env, data)).
		Build(), nil
}
