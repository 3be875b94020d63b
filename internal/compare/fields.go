package compare

import (
	"regexp"
	"strings"
)

// CheckedValue is recorded for a marker pattern that matched. Unmatched
// markers are absent from the map, which means unknown, not unchecked.
const CheckedValue = "checked"

// Pattern binds a field key to a case-insensitive expression. Value patterns
// must have exactly one capture group.
type Pattern struct {
	Key  string
	Expr *regexp.Regexp
}

// NewPattern compiles expr case-insensitively
func NewPattern(key, expr string) Pattern {
	return Pattern{Key: key, Expr: regexp.MustCompile(`(?i)` + expr)}
}

// DefaultValuePatterns recover FL-100 text values
var DefaultValuePatterns = []Pattern{
	NewPattern("petitioner", `PETITIONER[:\s]+([^\n]+)`),
	NewPattern("respondent", `RESPONDENT[:\s]+([^\n]+)`),
	NewPattern("case_number", `CASE NUMBER[:\s]+([^\n]+)`),
	NewPattern("attorney_name", `ATTORNEY.*NAME[:\s]+([^\n]+)`),
	NewPattern("bar_number", `BAR.*NUMBER[:\s]+([^\n]+)`),
	NewPattern("marriage_date", `Date of marriage[:\s]+([^\n]+)`),
	NewPattern("separation_date", `Date of separation[:\s]+([^\n]+)`),
}

// DefaultMarkerPatterns detect an X or check mark next to a checkbox label
var DefaultMarkerPatterns = []Pattern{
	NewPattern("dissolution", `[\[X\]✓]\s*Dissolution`),
	NewPattern("legal_separation", `[\[X\]✓]\s*Legal Separation`),
	NewPattern("property_division", `[\[X\]✓]\s*Property`),
	NewPattern("spousal_support", `[\[X\]✓]\s*Spousal`),
}

// FieldMap is a flat key to value mapping extracted from one document
type FieldMap map[string]string

// FieldExtractor applies value and marker patterns to document text. Each
// pattern is searched independently and its first match wins.
type FieldExtractor struct {
	values  []Pattern
	markers []Pattern
}

// NewFieldExtractor uses the default FL-100 patterns
func NewFieldExtractor() *FieldExtractor {
	return NewFieldExtractorWithPatterns(DefaultValuePatterns, DefaultMarkerPatterns)
}

// NewFieldExtractorWithPatterns uses the given pattern lists
func NewFieldExtractorWithPatterns(values, markers []Pattern) *FieldExtractor {
	return &FieldExtractor{values: values, markers: markers}
}

// ExtractFields returns the fields found in text. Empty text yields an empty map.
func (fe *FieldExtractor) ExtractFields(text string) FieldMap {
	fields := make(FieldMap)
	if text == "" {
		return fields
	}

	for _, p := range fe.values {
		m := p.Expr.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		fields[p.Key] = strings.TrimSpace(m[1])
	}

	for _, p := range fe.markers {
		if p.Expr.MatchString(text) {
			fields[p.Key] = CheckedValue
		}
	}
	return fields
}

// DefaultSections are the FL-100 headings checked for presence
var DefaultSections = []string{
	"PETITION", "MARRIAGE", "DISSOLUTION", "LEGAL SEPARATION",
	"NULLITY", "PROPERTY", "SPOUSAL SUPPORT", "CHILD CUSTODY",
	"ATTORNEY", "PETITIONER", "RESPONDENT",
}

// SectionStatus records whether a heading occurs in a document
type SectionStatus struct {
	Section string `json:"section"`
	Present bool   `json:"present"`
}

// SectionPresence checks each heading case-insensitively, in the given order
func SectionPresence(text string, sections []string) []SectionStatus {
	upper := strings.ToUpper(text)
	out := make([]SectionStatus, 0, len(sections))
	for _, s := range sections {
		out = append(out, SectionStatus{
			Section: s,
			Present: strings.Contains(upper, strings.ToUpper(s)),
		})
	}
	return out
}
