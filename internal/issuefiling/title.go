// Package issuefiling builds prefilled new-issue URLs for GitHub and Azure Boards.
package issuefiling

import (
	"strings"

	"accessibility-insights/background/internal/issuefiling/domain"
)

// StandardTags returns the display text of every tag on the rule's guidance links, in order.
func StandardTags(data domain.CreateIssueDetailsTextData) []string {
	var tags []string
	for _, link := range data.Rule.GuidanceLinks {
		for _, tag := range link.Tags {
			if tag.DisplayText != "" {
				tags = append(tags, tag.DisplayText)
			}
		}
	}
	return tags
}

// Title formats "<tags>: <description> (<identifier>)". The tag prefix is omitted when there are no tags.
func Title(data domain.CreateIssueDetailsTextData) string {
	return formatTitle(StandardTags(data), data.Rule.Description, SelectorLastPart(data.Element.Identifier))
}

func formatTitle(tags []string, description, identifier string) string {
	title := description + " (" + identifier + ")"
	if len(tags) == 0 {
		return title
	}
	return strings.Join(tags, ",") + ": " + title
}

// SelectorLastPart returns the last " > " separated segment of a selector.
func SelectorLastPart(selector string) string {
	parts := strings.Split(selector, " > ")
	return parts[len(parts)-1]
}
