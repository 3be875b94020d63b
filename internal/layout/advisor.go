package layout

import (
	"fmt"
	"sort"
	"strings"
)

// SectionRule names a group of fields, matched by label
type SectionRule struct {
	Name   string
	Labels []string
}

// DefaultSectionRules groups the attorney block of the FL-100 layout. Labels
// are matched instead of the free-text section attribute so that advice does
// not depend on how a catalog author wrote section names.
var DefaultSectionRules = []SectionRule{
	{
		Name: "Attorney Section",
		Labels: []string{
			"Attorney Name", "State Bar Number", "Law Firm Name",
			"Attorney Address", "City, State, ZIP", "Phone", "Email",
		},
	},
}

// CheckboxSection is the section name used for checkbox column advice
const CheckboxSection = "Checkboxes"

// Advisor emits alignment recommendations. Its output is advisory only.
type Advisor struct {
	rules  []SectionRule
	limits Limits
}

// NewAdvisor creates an advisor; nil rules selects DefaultSectionRules
func NewAdvisor(limits Limits, rules []SectionRule) *Advisor {
	if rules == nil {
		rules = DefaultSectionRules
	}
	return &Advisor{rules: rules, limits: limits}
}

// Recommend returns recommendations for sections whose vertical spread exceeds
// the tolerance and for checkboxes spread over too many columns
func (a *Advisor) Recommend(c *Catalog) []Recommendation {
	var recs []Recommendation
	for _, rule := range a.rules {
		if rec, ok := a.checkSpread(c, rule); ok {
			recs = append(recs, rec)
		}
	}
	if rec, ok := a.checkCheckboxColumns(c); ok {
		recs = append(recs, rec)
	}
	return recs
}

func (a *Advisor) checkSpread(c *Catalog, rule SectionRule) (Recommendation, bool) {
	labels := make(map[string]bool, len(rule.Labels))
	for _, l := range rule.Labels {
		labels[l] = true
	}

	var members []FieldDefinition
	for _, def := range c.Fields() {
		if labels[def.Label] {
			members = append(members, def)
		}
	}
	if len(members) == 0 {
		return Recommendation{}, false
	}

	minY, maxY := members[0].Y, members[0].Y
	for _, m := range members[1:] {
		if m.Y < minY {
			minY = m.Y
		}
		if m.Y > maxY {
			maxY = m.Y
		}
	}

	spread := maxY - minY
	if spread <= a.limits.SpreadTolerance {
		return Recommendation{}, false
	}
	return Recommendation{
		Section: rule.Name,
		Message: fmt.Sprintf("consider aligning %s fields vertically (current spread: %g)",
			strings.ToLower(strings.TrimSuffix(rule.Name, " Section")), spread),
		Spread: spread,
	}, true
}

func (a *Advisor) checkCheckboxColumns(c *Catalog) (Recommendation, bool) {
	seen := make(map[float64]bool)
	var xs []float64
	for _, def := range c.Fields() {
		if def.Type != FieldTypeCheckbox || seen[def.X] {
			continue
		}
		seen[def.X] = true
		xs = append(xs, def.X)
	}
	if len(xs) <= a.limits.MaxCheckboxColumns {
		return Recommendation{}, false
	}
	sort.Float64s(xs)

	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return Recommendation{
		Section:   CheckboxSection,
		Message:   fmt.Sprintf("consider aligning checkboxes vertically (multiple X positions: %s)", strings.Join(parts, ", ")),
		Positions: xs,
	}, true
}
