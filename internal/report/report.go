package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/a3tai/mcp-form-audit/internal/compare"
	"github.com/a3tai/mcp-form-audit/internal/layout"
	"github.com/google/uuid"
)

// Document summarises one side of a comparison
type Document struct {
	Role       compare.Source          `json:"role"`
	Info       compare.DocumentInfo    `json:"info"`
	Extraction compare.Extraction      `json:"extraction"`
	TextLength int                     `json:"text_length"`
	Fields     compare.FieldMap        `json:"fields"`
	Sections   []compare.SectionStatus `json:"sections,omitempty"`
}

// LayoutFindings is the output of one validator and advisor run
type LayoutFindings struct {
	Catalog         string
	FieldCount      int
	Issues          []layout.Issue
	Overlaps        []layout.Overlap
	ClosePairs      []layout.ClosePair
	Recommendations []layout.Recommendation
	Notes           []string
}

// ComparisonFindings is the output of one document diff run
type ComparisonFindings struct {
	Reference     *Document
	Candidate     *Document
	Discrepancies []compare.Discrepancy
	Notes         []string
}

// Report is the assembled result of a run. It serialises to plain nested
// objects and arrays.
type Report struct {
	ID              string                    `json:"id"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	Catalog         string                    `json:"catalog,omitempty"`
	FieldCount      int                       `json:"field_count"`
	FieldIssues     map[string][]layout.Issue `json:"field_issues"`
	Overlaps        []layout.Overlap          `json:"overlaps"`
	ClosePairs      []layout.ClosePair        `json:"close_pairs"`
	Recommendations []layout.Recommendation   `json:"recommendations"`
	Discrepancies   []compare.Discrepancy     `json:"discrepancies"`
	Documents       []Document                `json:"documents,omitempty"`
	Notes           []string                  `json:"notes,omitempty"`
	Clean           bool                      `json:"clean"`
}

// IssueCount is the total number of per-field issues
func (r *Report) IssueCount() int {
	n := 0
	for _, issues := range r.FieldIssues {
		n += len(issues)
	}
	return n
}

// IssueFields returns the keys of fields with issues in ascending order
func (r *Report) IssueFields() []string {
	keys := make([]string, 0, len(r.FieldIssues))
	for k := range r.FieldIssues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Assembler joins layout and comparison findings into a Report
type Assembler struct {
	now   func() time.Time
	newID func() string
}

// NewAssembler creates an assembler stamping reports with a random UUID and
// the current UTC time
func NewAssembler() *Assembler {
	return &Assembler{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Assemble aggregates findings. Either argument may be nil when that stage
// did not run. Clean is true iff there are no field issues, overlaps, close
// pairs or discrepancies; recommendations and notes are advisory.
func (a *Assembler) Assemble(lf *LayoutFindings, cf *ComparisonFindings) *Report {
	r := &Report{
		ID:              a.newID(),
		GeneratedAt:     a.now(),
		FieldIssues:     make(map[string][]layout.Issue),
		Overlaps:        []layout.Overlap{},
		ClosePairs:      []layout.ClosePair{},
		Recommendations: []layout.Recommendation{},
		Discrepancies:   []compare.Discrepancy{},
	}

	if lf != nil {
		r.Catalog = lf.Catalog
		r.FieldCount = lf.FieldCount
		for _, issue := range lf.Issues {
			r.FieldIssues[issue.Field] = append(r.FieldIssues[issue.Field], issue)
		}
		r.Overlaps = append(r.Overlaps, lf.Overlaps...)
		r.ClosePairs = append(r.ClosePairs, lf.ClosePairs...)
		r.Recommendations = append(r.Recommendations, lf.Recommendations...)
		r.Notes = append(r.Notes, lf.Notes...)
	}

	if cf != nil {
		r.Notes = append(r.Notes, cf.Notes...)
		for _, doc := range []*Document{cf.Reference, cf.Candidate} {
			if doc == nil {
				continue
			}
			r.Documents = append(r.Documents, *doc)
			if doc.Info.Path != "" && !doc.Info.Exists {
				r.Notes = append(r.Notes, fmt.Sprintf("%s document not found: %s", doc.Role, doc.Info.Path))
			}
		}
		r.Discrepancies = append(r.Discrepancies, cf.Discrepancies...)
		if n := len(cf.Discrepancies); n > 0 {
			r.Notes = append(r.Notes, fmt.Sprintf("%d field differences detected", n))
		}
	}

	r.Clean = len(r.FieldIssues) == 0 &&
		len(r.Overlaps) == 0 &&
		len(r.ClosePairs) == 0 &&
		len(r.Discrepancies) == 0
	return r
}
