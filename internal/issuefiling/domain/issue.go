package domain

// Settings is the per-service settings map (e.g. {"repository": ...} for GitHub,
// {"projectURL": ..., "issueDetailsField": ...} for Azure Boards).
type Settings map[string]string

// GuidanceTag is a standard tag attached to a guidance link (e.g. "WCAG-1.4.1").
type GuidanceTag struct {
	ID          string `json:"id"`
	DisplayText string `json:"displayText"`
}

// GuidanceLink links a rule to a guidance document.
type GuidanceLink struct {
	Text string        `json:"text"`
	Href string        `json:"href"`
	Tags []GuidanceTag `json:"tags,omitempty"`
}

// TargetApp is the page or application the issue was found on.
type TargetApp struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Rule is the check that flagged the element.
type Rule struct {
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	URL           string         `json:"url,omitempty"`
	GuidanceLinks []GuidanceLink `json:"guidance,omitempty"`
}

// Element is the flagged element.
type Element struct {
	Identifier string `json:"identifier"`
	Selector   string `json:"selector,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
}

// CreateIssueDetailsTextData describes one flagged rule/element pair.
type CreateIssueDetailsTextData struct {
	TargetApp       TargetApp `json:"targetApp"`
	Rule            Rule      `json:"rule"`
	Element         Element   `json:"element"`
	HowToFixSummary string    `json:"howToFixSummary,omitempty"`
}

// EnvironmentInfo is quoted in the Environment section and the footer.
type EnvironmentInfo struct {
	BrowserSpec      string `json:"browserSpec"`
	ExtensionVersion string `json:"extensionVersion"`
	AxeCoreVersion   string `json:"axeCoreVersion"`
	ToolName         string `json:"toolName"`
	ToolURL          string `json:"toolURL"`
}
