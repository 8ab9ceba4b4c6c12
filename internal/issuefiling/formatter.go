package issuefiling

import (
	"html"
	"strings"
)

// MarkupFormatter supplies the markup flavor used by DetailsBuilder.
type MarkupFormatter interface {
	SectionHeader(text string) string
	SectionHeaderSeparator() string
	SectionSeparator() string
	FooterSeparator() string
	Snippet(code string) string
	// Link renders href with optional text; empty text shows the href.
	Link(href, text string) string
	HowToFix(summary string) string
}

// howToFixLines splits a how-to-fix summary into trimmed, non-empty lines.
func howToFixLines(summary string) []string {
	var out []string
	for _, line := range strings.Split(summary, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HTMLFormatter renders HTML, as Azure Boards expects.
type HTMLFormatter struct{}

func (HTMLFormatter) SectionHeader(text string) string {
	return "<h4>" + html.EscapeString(text) + "</h4>"
}
func (HTMLFormatter) SectionHeaderSeparator() string { return "" }
func (HTMLFormatter) SectionSeparator() string       { return "<br><br>" }
func (HTMLFormatter) FooterSeparator() string        { return "<hr>" }

func (HTMLFormatter) Snippet(code string) string {
	return "<code>" + html.EscapeString(code) + "</code>"
}

func (HTMLFormatter) Link(href, text string) string {
	if text == "" {
		text = href
	}
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + "</a>"
}

func (HTMLFormatter) HowToFix(summary string) string {
	lines := howToFixLines(summary)
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<ul>")
	for _, line := range lines {
		b.WriteString("<li>" + html.EscapeString(line) + "</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// MarkdownFormatter renders GitHub-flavored Markdown.
type MarkdownFormatter struct{}

func (MarkdownFormatter) SectionHeader(text string) string { return "**" + text + "**" }
func (MarkdownFormatter) SectionHeaderSeparator() string   { return "\n\n" }
func (MarkdownFormatter) SectionSeparator() string         { return "\n\n" }
func (MarkdownFormatter) FooterSeparator() string          { return "\n\n---\n\n" }

func (MarkdownFormatter) Snippet(code string) string {
	return "```html\n" + code + "\n```"
}

func (MarkdownFormatter) Link(href, text string) string {
	if text == "" {
		return href
	}
	return "[" + text + "](" + href + ")"
}

func (MarkdownFormatter) HowToFix(summary string) string {
	lines := howToFixLines(summary)
	for i, line := range lines {
		lines[i] = "- " + line
	}
	return strings.Join(lines, "\n")
}

// PlainTextFormatter renders unformatted text.
type PlainTextFormatter struct{}

func (PlainTextFormatter) SectionHeader(text string) string { return text }
func (PlainTextFormatter) SectionHeaderSeparator() string   { return "\n" }
func (PlainTextFormatter) SectionSeparator() string         { return "\n\n" }
func (PlainTextFormatter) FooterSeparator() string          { return "\n====\n\n" }
func (PlainTextFormatter) Snippet(code string) string       { return code }

func (PlainTextFormatter) Link(href, text string) string {
	if text == "" || text == href {
		return href
	}
	return text + " (" + href + ")"
}

func (PlainTextFormatter) HowToFix(summary string) string {
	return strings.Join(howToFixLines(summary), "\n")
}
