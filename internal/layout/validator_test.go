package layout

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(key string, x, y, w, h float64, typ FieldType) FieldDefinition {
	return FieldDefinition{Key: key, Label: key, X: x, Y: y, Width: w, Height: h, Type: typ}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b FieldDefinition
		want bool
	}{
		{
			name: "interpenetrating boxes",
			a:    field("a", 0, 0, 10, 10, FieldTypeText),
			b:    field("b", 5, 5, 10, 10, FieldTypeText),
			want: true,
		},
		{
			name: "edge adjacent horizontally",
			a:    field("a", 0, 0, 10, 10, FieldTypeText),
			b:    field("b", 10, 0, 10, 10, FieldTypeText),
			want: false,
		},
		{
			name: "edge adjacent vertically",
			a:    field("a", 0, 0, 10, 10, FieldTypeText),
			b:    field("b", 0, 10, 10, 10, FieldTypeText),
			want: false,
		},
		{
			name: "contained box",
			a:    field("a", 0, 0, 50, 50, FieldTypeTextarea),
			b:    field("b", 10, 10, 8, 8, FieldTypeCheckbox),
			want: true,
		},
		{
			name: "disjoint boxes",
			a:    field("a", 0, 0, 10, 10, FieldTypeText),
			b:    field("b", 30, 30, 10, 10, FieldTypeText),
			want: false,
		},
		{
			name: "overlap on x only",
			a:    field("a", 0, 0, 10, 10, FieldTypeText),
			b:    field("b", 5, 20, 10, 10, FieldTypeText),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, Overlaps(tt.a, tt.b), Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestDistance(t *testing.T) {
	a := field("a", 0, 0, 10, 10, FieldTypeText)
	b := field("b", 3, 4, 10, 10, FieldTypeText)

	assert.InDelta(t, 5.0, Distance(a, b), 1e-9)
	assert.Equal(t, Distance(a, b), Distance(b, a))

	same := field("c", 2, 2, 6, 6, FieldTypeText)
	assert.Zero(t, Distance(a, same), "identical centres")
}

func TestValidator_CheckField(t *testing.T) {
	v := NewValidator(DefaultLimits())

	tests := []struct {
		name      string
		def       FieldDefinition
		wantKinds []IssueKind
	}{
		{
			name:      "well formed text field",
			def:       field("name", 10, 20, 95, 6, FieldTypeText),
			wantKinds: nil,
		},
		{
			name:      "checkbox 8x8",
			def:       field("cb", 10, 20, 8, 8, FieldTypeCheckbox),
			wantKinds: nil,
		},
		{
			name:      "checkbox 10x10",
			def:       field("cb", 10, 20, 10, 10, FieldTypeCheckbox),
			wantKinds: []IssueKind{IssueCheckboxSize},
		},
		{
			name:      "short textarea",
			def:       field("notes", 10, 20, 100, 8, FieldTypeTextarea),
			wantKinds: []IssueKind{IssueTextareaTooShort},
		},
		{
			name:      "out of page",
			def:       field("far", 250, 500, 20, 6, FieldTypeText),
			wantKinds: []IssueKind{IssueXOutOfBounds, IssueYOutOfBounds},
		},
		{
			name:      "negative x",
			def:       field("left", -1, 20, 20, 6, FieldTypeDate),
			wantKinds: []IssueKind{IssueXOutOfBounds},
		},
		{
			name:      "unusual sizes",
			def:       field("huge", 10, 20, 160, 60, FieldTypeSelect),
			wantKinds: []IssueKind{IssueWidthUnusual, IssueHeightUnusual},
		},
		{
			name:      "negative width reported as invalid geometry",
			def:       field("neg", 10, 20, -5, 6, FieldTypeNumber),
			wantKinds: []IssueKind{IssueInvalidGeometry},
		},
		{
			name: "issues do not short circuit",
			def:  field("all", 300, -10, 2, 3, FieldTypeCheckbox),
			wantKinds: []IssueKind{
				IssueXOutOfBounds, IssueYOutOfBounds,
				IssueWidthUnusual, IssueHeightUnusual, IssueCheckboxSize,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.CheckField(tt.def)
			var kinds []IssueKind
			for _, issue := range issues {
				assert.Equal(t, tt.def.Key, issue.Field)
				assert.NotEmpty(t, issue.Message)
				kinds = append(kinds, issue.Kind)
			}
			assert.Equal(t, tt.wantKinds, kinds)
		})
	}
}

func TestValidator_CheckboxIssueMentionsSizing(t *testing.T) {
	v := NewValidator(DefaultLimits())
	issues := v.CheckField(field("cb", 10, 20, 10, 10, FieldTypeCheckbox))
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "checkbox size")
}

func TestValidator_CustomCheckboxSize(t *testing.T) {
	limits := DefaultLimits()
	limits.CheckboxSize = 10
	v := NewValidator(limits)
	assert.Empty(t, v.CheckField(field("cb", 10, 20, 10, 10, FieldTypeCheckbox)))
	assert.Len(t, v.CheckField(field("cb", 10, 20, 8, 8, FieldTypeCheckbox)), 1)
}

func TestValidator_FindOverlaps(t *testing.T) {
	v := NewValidator(DefaultLimits())
	c := NewCatalog(
		field("c", 5, 5, 10, 10, FieldTypeText),
		field("a", 0, 0, 10, 10, FieldTypeText),
		field("b", 10, 0, 10, 10, FieldTypeText),
		field("z", 100, 100, 10, 10, FieldTypeText),
	)

	overlaps := v.FindOverlaps(c)
	assert.Equal(t, []Overlap{
		{First: "a", Second: "c", FirstLabel: "a", SecondLabel: "c"},
		{First: "b", Second: "c", FirstLabel: "b", SecondLabel: "c"},
	}, overlaps)

	seen := make(map[[2]string]bool)
	for _, o := range overlaps {
		assert.Less(t, o.First, o.Second)
		key := [2]string{o.First, o.Second}
		assert.False(t, seen[key], "pair reported twice")
		seen[key] = true
	}

	assert.Equal(t, overlaps, v.FindOverlaps(c), "repeat runs must be identical")
}

func TestValidator_FindClosePairs(t *testing.T) {
	v := NewValidator(DefaultLimits())
	c := NewCatalog(
		field("a", 0, 0, 10, 10, FieldTypeText),
		field("b", 3, 4, 10, 10, FieldTypeText),     // 5 from a
		field("c", 2, 2, 6, 6, FieldTypeText),       // same centre as a
		field("d", 100, 100, 10, 10, FieldTypeText), // far away
	)

	pairs := v.FindClosePairs(c, 0)
	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].First)
	assert.Equal(t, "b", pairs[0].Second)
	assert.Equal(t, 5.0, pairs[0].Distance)
	assert.Equal(t, "b", pairs[1].First)
	assert.Equal(t, "c", pairs[1].Second)

	for _, p := range pairs {
		assert.False(t, p.First == "a" && p.Second == "c", "coincident centres must be excluded")
	}

	assert.Empty(t, v.FindClosePairs(c, 5), "distance equal to threshold is not close")
	assert.Len(t, v.FindClosePairs(c, 1000), 5, "every non-coincident pair within a large threshold")
	assert.Equal(t, pairs, v.FindClosePairs(c, 0))
}

func TestValidator_CheckCatalogIncludesMalformedEntries(t *testing.T) {
	c, err := ParseCatalog([]byte(`{
		"ok": {"x": 10, "y": 10, "width": 8, "height": 8, "type": "checkbox", "label": "Box"},
		"broken": {"x": 10, "width": 8, "height": 8, "type": "checkbox", "label": "Broken"}
	}`), FormatJSON)
	require.NoError(t, err)

	issues := NewValidator(DefaultLimits()).CheckCatalog(c)
	require.Len(t, issues, 1)
	assert.Equal(t, "broken", issues[0].Field)
	assert.Equal(t, IssueMalformedEntry, issues[0].Kind)
}

func TestValidator_EmptyCatalog(t *testing.T) {
	v := NewValidator(DefaultLimits())
	c := NewCatalog()
	assert.Empty(t, v.CheckCatalog(c))
	assert.Empty(t, v.FindOverlaps(c))
	assert.Empty(t, v.FindClosePairs(c, 10))
}

func TestValidator_NonFiniteGeometry(t *testing.T) {
	v := NewValidator(DefaultLimits())
	nan := field("a", math.NaN(), 10, 20, 6, FieldTypeText)
	inf := field("c", 10, 10, math.Inf(1), 6, FieldTypeText)

	issues := v.CheckField(nan)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueInvalidGeometry, issues[0].Kind)
	assert.Contains(t, issues[0].Message, "x")

	issues = v.CheckField(inf)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueInvalidGeometry, issues[0].Kind)
	assert.Contains(t, issues[0].Message, "width")

	c := NewCatalog(nan, field("b", 12, 10, 20, 6, FieldTypeText), inf)
	pairs := v.FindClosePairs(c, 1000)
	for _, p := range pairs {
		assert.False(t, math.IsNaN(p.Distance) || math.IsInf(p.Distance, 0))
	}

	var buf bytes.Buffer
	assert.NoError(t, json.NewEncoder(&buf).Encode(pairs))
}
