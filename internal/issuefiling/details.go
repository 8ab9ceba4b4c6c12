package issuefiling

import (
	"fmt"
	"strings"

	"accessibility-insights/background/internal/issuefiling/domain"
)

// DetailsBuilderFunc renders an issue body.
type DetailsBuilderFunc func(env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) string

// DetailsBuilder returns a builder rendering, in order: Issue, Target application, Element path,
// Snippet (when present), How to fix (when present), Environment, then the footer.
func DetailsBuilder(m MarkupFormatter) DetailsBuilderFunc {
	return func(env domain.EnvironmentInfo, data domain.CreateIssueDetailsTextData) string {
		var b strings.Builder
		section := func(header, body string) {
			b.WriteString(m.SectionHeader(header))
			b.WriteString(m.SectionHeaderSeparator())
			b.WriteString(body)
			b.WriteString(m.SectionSeparator())
		}

		issue := data.Rule.Description
		switch {
		case data.Rule.ID != "" && data.Rule.URL != "":
			issue += " (" + m.Link(data.Rule.URL, data.Rule.ID) + ")"
		case data.Rule.ID != "":
			issue += " (" + data.Rule.ID + ")"
		}
		section("Issue", issue)

		target := data.TargetApp.Name
		if data.TargetApp.URL != "" {
			target = m.Link(data.TargetApp.URL, data.TargetApp.Name)
		}
		section("Target application", target)

		section("Element path", data.Element.Identifier)

		if data.Element.Snippet != "" {
			section("Snippet", m.Snippet(data.Element.Snippet))
		}
		if fix := m.HowToFix(data.HowToFixSummary); fix != "" {
			section("How to fix", fix)
		}

		section("Environment", env.BrowserSpec)

		b.WriteString(m.FooterSeparator())
		b.WriteString(footer(m, env))
		return b.String()
	}
}

func footer(m MarkupFormatter, env domain.EnvironmentInfo) string {
	return fmt.Sprintf(
		"This accessibility issue was found using %s %s (axe-core %s), a tool that helps find and fix accessibility issues. Get more information & download this tool at %s.",
		env.ToolName, env.ExtensionVersion, env.AxeCoreVersion, m.Link(env.ToolURL, ""),
	)
}
