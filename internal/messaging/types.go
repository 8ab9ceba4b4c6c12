package messaging

// Message types handled by the background.
const (
	prefix = "insights/"

	AssessmentChangeRequirementStatus = prefix + "assessment/changeRequirementStatus"
	AssessmentUndoRequirementStatus   = prefix + "assessment/undoRequirementStatusChange"
	AssessmentAddFailureInstance      = prefix + "assessment/addFailureInstance"
	AssessmentEditFailureInstance     = prefix + "assessment/editFailureInstance"
	AssessmentRemoveFailureInstance   = prefix + "assessment/removeFailureInstance"
	AssessmentResetTestType           = prefix + "assessment/resetTestType"
	AssessmentResetAll                = prefix + "assessment/resetAll"
	AssessmentGetState                = prefix + "assessment/getState"

	UserConfigSetTelemetryState       = prefix + "userConfig/setTelemetryState"
	UserConfigSetBugService           = prefix + "userConfig/setBugService"
	UserConfigSetBugServiceProperty   = prefix + "userConfig/setBugServiceProperty"
	UserConfigSaveIssueFilingSettings = prefix + "userConfig/saveIssueFilingSettings"
	UserConfigGetState                = prefix + "userConfig/getState"
	FeatureFlagsSetFlag               = prefix + "featureFlags/setFlag"
	FeatureFlagsGetState              = prefix + "featureFlags/getState"
	LaunchPanelSetState               = prefix + "launchPanel/setState"
	LaunchPanelGetState               = prefix + "launchPanel/getState"
	IssueFilingFileIssue              = prefix + "issueFiling/fileIssue"
	DetailsViewOpen                   = prefix + "detailsView/open"
	DetailsViewClosed                 = prefix + "detailsView/closed"
	TelemetrySend                     = prefix + "telemetry/send"
)
