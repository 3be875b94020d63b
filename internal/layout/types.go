package layout

import "math"

// FieldType is the input kind of a placed form field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeSelect   FieldType = "select"
	FieldTypeDate     FieldType = "date"
	FieldTypeNumber   FieldType = "number"
)

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeCheckbox,
		FieldTypeSelect, FieldTypeDate, FieldTypeNumber:
		return true
	default:
		return false
	}
}

// FieldDefinition is the geometric placement of one field on the page.
// Coordinates are millimetres from the top-left corner of the page.
type FieldDefinition struct {
	Key     string    `json:"-" yaml:"-"`
	Label   string    `json:"label" yaml:"label"`
	X       float64   `json:"x" yaml:"x"`
	Y       float64   `json:"y" yaml:"y"`
	Width   float64   `json:"width" yaml:"width"`
	Height  float64   `json:"height" yaml:"height"`
	Type    FieldType `json:"type" yaml:"type"`
	Section string    `json:"section,omitempty" yaml:"section,omitempty"`
}

// Bounds returns the axis-aligned bounding box of the field
func (f FieldDefinition) Bounds() BoundingBox {
	return BoundingBox{
		MinX: f.X,
		MinY: f.Y,
		MaxX: f.X + f.Width,
		MaxY: f.Y + f.Height,
	}
}

// Center returns the centre point of the field's box
func (f FieldDefinition) Center() (float64, float64) {
	return f.X + f.Width/2, f.Y + f.Height/2
}

// DisplayName returns the label, falling back to the key when no label is set
func (f FieldDefinition) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// BoundingBox is an axis-aligned rectangle (MinX, MinY, MaxX, MaxY)
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Intersects reports whether the interiors of two boxes intersect.
// Boxes that only share an edge do not intersect.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MinX < o.MaxX && o.MinX < b.MaxX &&
		b.MinY < o.MaxY && o.MinY < b.MaxY
}

// Overlaps reports whether two fields' bounding boxes overlap
func Overlaps(a, b FieldDefinition) bool {
	return a.Bounds().Intersects(b.Bounds())
}

// Distance is the Euclidean distance between the centres of two fields
func Distance(a, b FieldDefinition) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}

// IssueKind categorises a per-field finding
type IssueKind string

const (
	IssueXOutOfBounds     IssueKind = "x_out_of_bounds"
	IssueYOutOfBounds     IssueKind = "y_out_of_bounds"
	IssueWidthUnusual     IssueKind = "width_unusual"
	IssueHeightUnusual    IssueKind = "height_unusual"
	IssueInvalidGeometry  IssueKind = "invalid_geometry"
	IssueCheckboxSize     IssueKind = "checkbox_size"
	IssueTextareaTooShort IssueKind = "textarea_height"
	IssueMalformedEntry   IssueKind = "malformed_entry"
)

// Issue is a single finding about one field
type Issue struct {
	Field   string    `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// Overlap is an unordered pair of fields whose boxes intersect.
// First is always the key that sorts before Second.
type Overlap struct {
	First       string `json:"first"`
	Second      string `json:"second"`
	FirstLabel  string `json:"first_label"`
	SecondLabel string `json:"second_label"`
}

// ClosePair is an unordered pair of fields whose centres are nearer than the
// proximity threshold without coinciding
type ClosePair struct {
	First       string  `json:"first"`
	Second      string  `json:"second"`
	FirstLabel  string  `json:"first_label"`
	SecondLabel string  `json:"second_label"`
	Distance    float64 `json:"distance"`
}

// Recommendation is advisory output from the alignment advisor
type Recommendation struct {
	Section   string    `json:"section"`
	Message   string    `json:"message"`
	Spread    float64   `json:"spread,omitempty"`
	Positions []float64 `json:"positions,omitempty"`
}
