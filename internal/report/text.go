package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/a3tai/mcp-form-audit/internal/compare"
	"github.com/fatih/color"
)

const (
	ruleWidth   = 60
	valuePrefix = 50
)

func okMark() string   { return color.New(color.FgGreen).Sprint("✓") }
func failMark() string { return color.New(color.FgRed).Sprint("✗") }
func warnMark() string { return color.New(color.FgYellow).Sprint("⚠") }

// WriteText renders the report for a terminal. Colour is controlled globally
// by color.NoColor.
func (r *Report) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}

	tw.rule("=")
	tw.line("FORM AUDIT REPORT")
	tw.line("Run %s at %s", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	tw.rule("=")

	tw.heading("1. FIELD VALIDATION")
	if r.Catalog != "" {
		tw.line("Catalog: %s (%d fields)", r.Catalog, r.FieldCount)
	}
	if len(r.FieldIssues) == 0 {
		tw.line("%s No field issues", okMark())
	}
	for _, key := range r.IssueFields() {
		tw.line("%s %s", failMark(), key)
		for _, issue := range r.FieldIssues[key] {
			tw.line("    - %s", issue.Message)
		}
	}

	tw.heading("2. OVERLAPPING FIELDS")
	if len(r.Overlaps) == 0 {
		tw.line("%s No overlapping fields", okMark())
	}
	for _, o := range r.Overlaps {
		tw.line("%s %s overlaps with %s", failMark(), o.FirstLabel, o.SecondLabel)
	}

	tw.heading("3. FIELDS TOO CLOSE")
	if len(r.ClosePairs) == 0 {
		tw.line("%s No fields too close together", okMark())
	}
	for _, p := range r.ClosePairs {
		tw.line("%s %s and %s are only %g units apart", warnMark(), p.FirstLabel, p.SecondLabel, p.Distance)
	}

	tw.heading("4. ALIGNMENT")
	if len(r.Recommendations) == 0 {
		tw.line("%s No alignment recommendations", okMark())
	}
	for _, rec := range r.Recommendations {
		tw.line("%s %s: %s", warnMark(), rec.Section, rec.Message)
	}

	tw.heading("5. DOCUMENT DIFFERENCES")
	for _, doc := range r.Documents {
		tw.documentSummary(doc)
	}
	if len(r.Discrepancies) == 0 {
		tw.line("%s No differences found in extracted fields", okMark())
	} else {
		tw.line("Found %d differences:", len(r.Discrepancies))
	}
	for _, d := range r.Discrepancies {
		tw.line("  Field: %s", d.Field)
		tw.line("    %s: %s", compare.SourceReference, truncate(d.ReferenceValue))
		tw.line("    %s: %s", compare.SourceCandidate, truncate(d.CandidateValue))
	}

	tw.line("")
	tw.rule("=")
	tw.line("SUMMARY")
	tw.rule("=")
	for _, note := range r.Notes {
		tw.line("  - %s", note)
	}
	if r.Clean {
		tw.line("%s Clean: no issues found", okMark())
	} else {
		tw.line("%s Not clean: %d field issues, %d overlaps, %d close pairs, %d discrepancies",
			warnMark(), r.IssueCount(), len(r.Overlaps), len(r.ClosePairs), len(r.Discrepancies))
	}
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) line(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format+"\n", args...)
}

func (tw *textWriter) rule(ch string) {
	tw.line("%s", strings.Repeat(ch, ruleWidth))
}

func (tw *textWriter) heading(title string) {
	tw.line("")
	tw.line("%s", title)
	tw.rule("-")
}

func (tw *textWriter) documentSummary(doc Document) {
	tw.line("%s document: %s", doc.Role, doc.Info.Path)
	if !doc.Info.Exists {
		tw.line("  %s not found", failMark())
		return
	}
	tw.line("  size: %d bytes, pages: %d", doc.Info.Size, doc.Info.Pages)
	tw.line("  text: %d characters via %s", doc.TextLength, doc.Extraction.Strategy)
	tw.line("  fields found: %d", len(doc.Fields))
	for _, s := range doc.Sections {
		mark := failMark()
		if s.Present {
			mark = okMark()
		}
		tw.line("    %s %s", mark, s.Section)
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= valuePrefix {
		return s
	}
	return string(r[:valuePrefix]) + "..."
}
