package layout

import (
	"fmt"
	"math"
	"strings"
)

// Default heuristics, in catalog units (millimetres)
const (
	DefaultPageWidth          = 200.0
	DefaultPageHeight         = 400.0
	DefaultMinWidth           = 5.0
	DefaultMaxWidth           = 150.0
	DefaultMinHeight          = 5.0
	DefaultMaxHeight          = 50.0
	DefaultCheckboxSize       = 8.0
	DefaultMinTextareaHeight  = 10.0
	DefaultProximityThreshold = 10.0
	DefaultSpreadTolerance    = 25.0
	DefaultMaxCheckboxColumns = 2
)

// Limits holds the tunable heuristics used by the validator and advisor
type Limits struct {
	PageWidth          float64 `json:"page_width"`
	PageHeight         float64 `json:"page_height"`
	MinWidth           float64 `json:"min_width"`
	MaxWidth           float64 `json:"max_width"`
	MinHeight          float64 `json:"min_height"`
	MaxHeight          float64 `json:"max_height"`
	CheckboxSize       float64 `json:"checkbox_size"`
	MinTextareaHeight  float64 `json:"min_textarea_height"`
	ProximityThreshold float64 `json:"proximity_threshold"`
	SpreadTolerance    float64 `json:"spread_tolerance"`
	MaxCheckboxColumns int     `json:"max_checkbox_columns"`
}

// DefaultLimits returns the standard heuristics
func DefaultLimits() Limits {
	return Limits{
		PageWidth:          DefaultPageWidth,
		PageHeight:         DefaultPageHeight,
		MinWidth:           DefaultMinWidth,
		MaxWidth:           DefaultMaxWidth,
		MinHeight:          DefaultMinHeight,
		MaxHeight:          DefaultMaxHeight,
		CheckboxSize:       DefaultCheckboxSize,
		MinTextareaHeight:  DefaultMinTextareaHeight,
		ProximityThreshold: DefaultProximityThreshold,
		SpreadTolerance:    DefaultSpreadTolerance,
		MaxCheckboxColumns: DefaultMaxCheckboxColumns,
	}
}

// Validator performs geometric consistency checks over a catalog snapshot.
// All methods are pure.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the given limits
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Limits returns the heuristics in use
func (v *Validator) Limits() Limits {
	return v.limits
}

// CheckField returns every bound and sizing issue for one definition
func (v *Validator) CheckField(def FieldDefinition) []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...interface{}) {
		issues = append(issues, Issue{
			Field:   def.Key,
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if nonFinite := nonFiniteAttributes(def); len(nonFinite) > 0 {
		add(IssueInvalidGeometry, "non-finite %s", strings.Join(nonFinite, ", "))
		return issues
	}

	if def.X < 0 || def.X > v.limits.PageWidth {
		add(IssueXOutOfBounds, "X position %g out of bounds [0, %g]", def.X, v.limits.PageWidth)
	}
	if def.Y < 0 || def.Y > v.limits.PageHeight {
		add(IssueYOutOfBounds, "Y position %g out of bounds [0, %g]", def.Y, v.limits.PageHeight)
	}

	// A non-positive extent is reported once as invalid rather than also as unusual
	if def.Width <= 0 {
		add(IssueInvalidGeometry, "width must be positive, got %g", def.Width)
	} else if def.Width < v.limits.MinWidth || def.Width > v.limits.MaxWidth {
		add(IssueWidthUnusual, "width %g unusual (expected %g-%g)", def.Width, v.limits.MinWidth, v.limits.MaxWidth)
	}
	if def.Height <= 0 {
		add(IssueInvalidGeometry, "height must be positive, got %g", def.Height)
	} else if def.Height < v.limits.MinHeight || def.Height > v.limits.MaxHeight {
		add(IssueHeightUnusual, "height %g unusual (expected %g-%g)", def.Height, v.limits.MinHeight, v.limits.MaxHeight)
	}

	switch def.Type {
	case FieldTypeCheckbox:
		if def.Width != v.limits.CheckboxSize || def.Height != v.limits.CheckboxSize {
			add(IssueCheckboxSize, "checkbox size should be %g×%g, got %g×%g",
				v.limits.CheckboxSize, v.limits.CheckboxSize, def.Width, def.Height)
		}
	case FieldTypeTextarea:
		if def.Height < v.limits.MinTextareaHeight {
			add(IssueTextareaTooShort, "textarea height %g too small (minimum %g)", def.Height, v.limits.MinTextareaHeight)
		}
	}

	return issues
}

func nonFiniteAttributes(def FieldDefinition) []string {
	var names []string
	for _, a := range []struct {
		name string
		v    float64
	}{{"x", def.X}, {"y", def.Y}, {"width", def.Width}, {"height", def.Height}} {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
			names = append(names, a.name)
		}
	}
	return names
}

// CheckCatalog runs CheckField over every definition in key order, preceded
// by any malformed-entry issues recorded at load time
func (v *Validator) CheckCatalog(c *Catalog) []Issue {
	issues := c.Issues()
	for _, def := range c.Fields() {
		issues = append(issues, v.CheckField(def)...)
	}
	return issues
}

// FindOverlaps reports each unordered pair of distinct fields whose boxes intersect
func (v *Validator) FindOverlaps(c *Catalog) []Overlap {
	var overlaps []Overlap
	fields := c.Fields()
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			a, b := fields[i], fields[j]
			if !Overlaps(a, b) {
				continue
			}
			overlaps = append(overlaps, Overlap{
				First:       a.Key,
				Second:      b.Key,
				FirstLabel:  a.DisplayName(),
				SecondLabel: b.DisplayName(),
			})
		}
	}
	return overlaps
}

// FindClosePairs reports each unordered pair whose centre distance d satisfies
// 0 < d < threshold. A non-positive threshold selects the configured default.
// Coincident centres are excluded since those fields already overlap.
func (v *Validator) FindClosePairs(c *Catalog, threshold float64) []ClosePair {
	if threshold <= 0 {
		threshold = v.limits.ProximityThreshold
	}

	var pairs []ClosePair
	fields := c.Fields()
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			a, b := fields[i], fields[j]
			d := Distance(a, b)
			if !(d > 0 && d < threshold) {
				continue
			}
			pairs = append(pairs, ClosePair{
				First:       a.Key,
				Second:      b.Key,
				FirstLabel:  a.DisplayName(),
				SecondLabel: b.DisplayName(),
				Distance:    math.Round(d*10) / 10,
			})
		}
	}
	return pairs
}
