package telemetry

import "regexp"

// EmailRemovedText replaces every email-like substring in outbound telemetry.
const EmailRemovedText = "(email-removed)"

// emailLike matches a run of non-whitespace, non-@ characters, an @, then a run of non-whitespace.
// URL delimiters end either run so the surrounding path and query text survives.
var emailLike = regexp.MustCompile(`[^\s@/?&=#]+@[^\s/?&#]+`)

// RemoveEmail replaces email-like substrings of s with EmailRemovedText. Text around each match is kept.
func RemoveEmail(s string) string {
	if s == "" {
		return s
	}
	return emailLike.ReplaceAllString(s, EmailRemovedText)
}
