// Package domain holds assessment definitions and the per-requirement results recorded against them.
package domain

// GuidanceLink points at a WCAG success criterion or other guidance.
type GuidanceLink struct {
	Text string   `json:"text"`
	Href string   `json:"href"`
	Tags []string `json:"tags,omitempty"`
}

// Requirement is a single checkable rule within an assessment.
type Requirement struct {
	Key           string
	Name          string
	Description   string
	IsManual      bool
	GuidanceLinks []GuidanceLink
}

// Assessment is a named test composed of ordered requirements.
type Assessment struct {
	Key          string
	Title        string
	Requirements []Requirement
}

// FailureInstance is one recorded failure of a requirement.
type FailureInstance struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Selector    string `json:"selector,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// RequirementStatus is the result recorded for one requirement.
type RequirementStatus struct {
	Status    ManualTestStatus            `json:"status"`
	Instances map[string]*FailureInstance `json:"instances,omitempty"`
}

// Data is the assessment state: test type key → requirement key → result.
type Data struct {
	Tests map[string]map[string]*RequirementStatus `json:"tests"`
}

// NewData returns empty assessment state.
func NewData() *Data {
	return &Data{Tests: make(map[string]map[string]*RequirementStatus)}
}

// Clone returns a deep copy of d.
func (d *Data) Clone() *Data {
	out := NewData()
	if d == nil {
		return out
	}
	for testType, reqs := range d.Tests {
		copied := make(map[string]*RequirementStatus, len(reqs))
		for key, rs := range reqs {
			c := &RequirementStatus{Status: rs.Status}
			if len(rs.Instances) > 0 {
				c.Instances = make(map[string]*FailureInstance, len(rs.Instances))
				for id, inst := range rs.Instances {
					ic := *inst
					c.Instances[id] = &ic
				}
			}
			copied[key] = c
		}
		out.Tests[testType] = copied
	}
	return out
}

// Requirement returns the result for testType/requirement, or nil.
func (d *Data) Requirement(testType, requirement string) *RequirementStatus {
	if d == nil {
		return nil
	}
	return d.Tests[testType][requirement]
}
