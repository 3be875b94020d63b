package descriptions

import "sort"

// Tool descriptions with practical examples and workflows

const (
	FormValidateLayoutDescription = `Check a form-field catalog for geometric problems before it is used to fill a document.

**When to use:** After editing field positions, or before generating a filled form from a new catalog.

**Checks performed:**
• Per field: X/Y within the page, width and height in the usual range, checkbox size, minimum textarea height
• Every pair of fields: overlapping bounding boxes, and centres closer than the proximity threshold
• Advisory only: vertical spread of the attorney block, number of distinct checkbox columns

**Examples:**
• "Validate fl100_positions.json and list every overlapping field"
• "Check forms/fl100.yaml with a 6mm proximity threshold"
• "Validate the widgets of the official fillable fl100.pdf"

**Common workflows:**
1. Layout editing: Edit catalog → form_validate_layout → fix issues → repeat until clean
2. Bootstrapping: form_import_layout → form_validate_layout on the imported catalog

**Best practices:** Coordinates are millimetres from the top-left corner. A missing catalog produces an empty, clean report with a note rather than an error. Recommendations never make a report unclean.`

	FormImportLayoutDescription = `Build a field catalog from the AcroForm widgets of a fillable PDF.

**When to use:** When an official fillable form exists and you want a starting catalog instead of measuring positions by hand.

**Examples:**
• "Import the fields of fl100.pdf as YAML"
• "Import fl100.pdf and save the catalog to forms/fl100.json"

**Common workflows:**
1. New form: form_import_layout → review and rename keys → form_validate_layout
2. Drift check: Import the current official form → compare with the maintained catalog

**Best practices:** Text fields become text (or textarea when multiline), check boxes become checkbox, choice fields become select. Radio groups and push buttons are skipped. Widgets without a rectangle are reported as malformed entries.`

	FormCompareDocumentsDescription = `Compare the field values of a reference document with a candidate document.

**When to use:** To verify that a document generated by your system carries the same data as a known-good reference, for example one produced by another filing tool.

**How it works:** Text is extracted with the configured utility (pdftotext by default), falling back to a raw scan of content streams. Known labels (petitioner, respondent, case number, attorney name, bar number, marriage and separation dates) and checked boxes are then matched in both texts and diffed.

**Examples:**
• "Compare uploads/fl100_reference.pdf with output/fl100_generated.pdf"

**Common workflows:**
1. Regression check: Generate document → form_compare_documents → investigate discrepancies
2. Full audit: use form_audit to combine this with a layout check

**Best practices:** A field missing from one side is reported against "NOT FOUND". Missing documents and failed extraction yield empty field sets, never an error.`

	FormAuditDescription = `Run a layout validation and a document comparison together and return one report.

**When to use:** For a single pass/fail view of a form pipeline: the catalog that positions fields, and the documents produced with it.

**Examples:**
• "Audit fl100.json against reference.pdf and candidate.pdf"

**Common workflows:**
1. Pre-release check: form_audit → clean? ship : fix catalog or generator

**Best practices:** The report is clean only when there are no field issues, overlaps, close pairs or discrepancies. Use format "json" for machine consumption.`

	FormServerInfoDescription = `Get server configuration, layout thresholds, and the catalogs and documents available in the working directory.

**When to use:** At the start of a session, to discover which files can be audited and which limits apply.

**Examples:**
• "What catalogs are available to validate?"
• "Which text extractor is the server using?"

**Best practices:** All paths passed to other tools must lie inside the working directory shown here; relative paths are resolved against it.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_validate_layout":   FormValidateLayoutDescription,
	"form_import_layout":     FormImportLayoutDescription,
	"form_compare_documents": FormCompareDocumentsDescription,
	"form_audit":             FormAuditDescription,
	"form_server_info":       FormServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools in ascending order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the first line of a tool's description
func Summary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i, r := range desc {
		if r == '\n' {
			return desc[:i]
		}
	}
	return desc
}
