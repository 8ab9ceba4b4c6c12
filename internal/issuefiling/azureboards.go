package issuefiling

import (
	"fmt"
	"strings"

	"accessibility-insights/background/internal/issuefiling/domain"
)

// Azure Boards settings keys and values.
const (
	AzureBoardsServiceKey        = "azureBoards"
	AzureBoardsProjectURLField   = "projectURL"
	AzureBoardsDetailsFieldField = "issueDetailsField"

	IssueDetailsReproSteps  = "reproSteps"
	IssueDetailsDescription = "description"
)

const (
	workItemBug   = "Bug"
	workItemIssue = "Issue"

	reproStepsParam  = "[Microsoft.VSTS.TCM.ReproSteps]"
	descriptionParam = "[System.Description]"
)

// AzureBoardsService files work items to an Azure Boards project with an HTML body.
type AzureBoardsService struct {
	details DetailsBuilderFunc
}

// NewAzureBoardsService returns the Azure Boards integration.
func NewAzureBoardsService() *AzureBoardsService {
	return &AzureBoardsService{details: DetailsBuilder(HTMLFormatter{})}
}

func (s *AzureBoardsService) Key() string         { return AzureBoardsServiceKey }
func (s *AzureBoardsService) DisplayName() string { return "Azure Boards" }

func (s *AzureBoardsService) SettingsFields() []string {
	return []string{AzureBoardsProjectURLField, AzureBoardsDetailsFieldField}
}

// IsSettingsValid requires a project URL. A blank issueDetailsField files repro steps.
func (s *AzureBoardsService) IsSettingsValid(settings domain.Settings) bool {
	return settings != nil && !isBlank(settings[AzureBoardsProjectURLField])
}

func (s *AzureBoardsService) BuildStoreData(values map[string]string) domain.Settings {
	return pick(values, AzureBoardsProjectURLField, AzureBoardsDetailsFieldField)
}

// IssueURL returns <project>/_workitems/create/<Bug|Issue>?fullScreen=true&[System.Title]=...&[System.Tags]=...&<body field>=....
// issueDetailsField "description" files an Issue with the body in [System.Description]; anything else files a Bug with repro steps.
func (s *AzureBoardsService) IssueURL(settings domain.Settings, env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) (string, error) {
	if !s.IsSettingsValid(settings) {
		return "", fmt.Errorf("%w: %s requires %s", ErrInvalidSettings, AzureBoardsServiceKey, AzureBoardsProjectURLField)
	}
	workItem, bodyParam := workItemBug, reproStepsParam
	if settings[AzureBoardsDetailsFieldField] == IssueDetailsDescription {
		workItem, bodyParam = workItemIssue, descriptionParam
	}
	base := strings.TrimSuffix(settings[AzureBoardsProjectURLField], "/") + "/_workitems/create/" + workItem
	return NewQueryBuilder(base).
		WithParam("fullScreen", "true").
		WithParam("[System.Title]", Title(data)).
		WithParam("[System.Tags]", azureTags(data)).
		WithParam(bodyParam, s.details(env, data)).
		Build(), nil
}

// azureTags is "Accessibility; <standard tags>; <rule id>".
func azureTags(data domain.CreateIssueDetailsTextData) string {
	tags := append([]string{"Accessibility"}, StandardTags(data)...)
	if data.Rule.ID != "" {
		tags = append(tags, data.Rule.ID)
	}
	return strings.Join(tags, "; ")
}
