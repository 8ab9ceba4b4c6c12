// Package assessment holds the assessment table and the store that records requirement results.
package assessment

import (
	"errors"
	"fmt"
	"strings"

	"accessibility-insights/background/internal/assessment/domain"
)

// ErrUnknownRequirement is returned for a test type or requirement key that is not in the table.
var ErrUnknownRequirement = errors.New("assessment: unknown requirement")

// Provider looks assessments up by key.
type Provider struct {
	assessments []domain.Assessment
	byKey       map[string]int
}

// NewProvider returns a provider over assessments, kept in the given order.
func NewProvider(assessments ...domain.Assessment) *Provider {
	p := &Provider{assessments: assessments, byKey: make(map[string]int, len(assessments))}
	for i, a := range assessments {
		p.byKey[a.Key] = i
	}
	return p
}

// All returns every assessment in order.
func (p *Provider) All() []domain.Assessment {
	return append([]domain.Assessment(nil), p.assessments...)
}

// ForType returns the assessment with key testType.
func (p *Provider) ForType(testType string) (domain.Assessment, bool) {
	i, ok := p.byKey[testType]
	if !ok {
		return domain.Assessment{}, false
	}
	return p.assessments[i], true
}

// Requirement returns requirement reqKey of assessment testType.
func (p *Provider) Requirement(testType, reqKey string) (domain.Requirement, error) {
	a, ok := p.ForType(testType)
	if ok {
		for _, r := range a.Requirements {
			if r.Key == reqKey {
				return r, nil
			}
		}
	}
	return domain.Requirement{}, fmt.Errorf("%w: %s/%s", ErrUnknownRequirement, testType, reqKey)
}

func wcag(criterion, title string) domain.GuidanceLink {
	return domain.GuidanceLink{
		Text: "WCAG " + criterion + " " + title,
		Href: "https://www.w3.org/WAI/WCAG21/Understanding/" + understandingSlug(title),
		Tags: []string{"WCAG-" + criterion},
	}
}

func understandingSlug(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "-"))
}

// DefaultProvider returns the built-in assessments.
func DefaultProvider() *Provider {
	return NewProvider(
		domain.Assessment{
			Key:   "automatedChecks",
			Title: "Automated checks",
			Requirements: []domain.Requirement{
				{Key: "image-alt", Name: "Images must have alternate text", GuidanceLinks: []domain.GuidanceLink{wcag("1.1.1", "Non-text Content")}},
				{Key: "color-contrast", Name: "Elements must have sufficient color contrast", GuidanceLinks: []domain.GuidanceLink{wcag("1.4.3", "Contrast Minimum")}},
				{Key: "button-name", Name: "Buttons must have discernible text", GuidanceLinks: []domain.GuidanceLink{wcag("4.1.2", "Name Role Value")}},
			},
		},
		domain.Assessment{
			Key:   "keyboard",
			Title: "Keyboard",
			Requirements: []domain.Requirement{
				{Key: "keyboardNavigation", Name: "Keyboard navigation", Description: "Users must be able to navigate to all interactive interface components using a keyboard.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("2.1.1", "Keyboard")}},
				{Key: "noKeyboardTraps", Name: "No keyboard traps", Description: "Users must be able to navigate away from all components using a keyboard.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("2.1.2", "No Keyboard Trap")}},
				{Key: "focusVisible", Name: "Visible focus", Description: "Components must provide a visible indication when they have the input focus.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("2.4.7", "Focus Visible")}},
			},
		},
		domain.Assessment{
			Key:   "adaptableContent",
			Title: "Adaptable content",
			Requirements: []domain.Requirement{
				{Key: "orientation", Name: "Orientation", Description: "Content must not be restricted to a single display orientation.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("1.3.4", "Orientation")}},
				{Key: "resizeText", Name: "Resize text", Description: "Text must be resizable up to 200 percent without loss of content or functionality.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("1.4.4", "Resize Text")}},
				{Key: "reflow", Name: "Reflow", Description: "Content must be visible without horizontal scrolling at 320 CSS pixels wide.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("1.4.10", "Reflow")}},
				{Key: "textSpacing", Name: "Text spacing", Description: "Users must be able to adjust text spacing with no loss of content or functionality.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("1.4.12", "Text Spacing")}},
			},
		},
		domain.Assessment{
			Key:   "color",
			Title: "Use of color",
			Requirements: []domain.Requirement{
				{Key: "useOfColor", Name: "Use of color", Description: "Color must not be the only visual means of conveying information.", IsManual: true, GuidanceLinks: []domain.GuidanceLink{wcag("1.4.1", "Use of Color"), wcag("2.3.1", "Three Flashes or Below Threshold")}},
			},
		},
	)
}
