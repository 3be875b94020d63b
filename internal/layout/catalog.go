package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a catalog source
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// requiredKeys must be present on every catalog entry
var requiredKeys = []string{"x", "y", "width", "height", "type", "label"}

// Catalog is the read-only set of field definitions for one page layout.
// Iteration order is always ascending by key.
type Catalog struct {
	fields map[string]FieldDefinition
	keys   []string
	issues []Issue
}

// NewCatalog builds a catalog from definitions. A later definition with the
// same key replaces an earlier one.
func NewCatalog(defs ...FieldDefinition) *Catalog {
	c := &Catalog{fields: make(map[string]FieldDefinition, len(defs))}
	for _, def := range defs {
		c.fields[def.Key] = def
	}
	c.keys = make([]string, 0, len(c.fields))
	for key := range c.fields {
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)
	return c
}

// Len returns the number of usable definitions
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// IsEmpty reports whether there is nothing to validate
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// Keys returns the field keys in ascending order
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Get returns the definition for key
func (c *Catalog) Get(key string) (FieldDefinition, bool) {
	if c == nil {
		return FieldDefinition{}, false
	}
	def, ok := c.fields[key]
	return def, ok
}

// Fields returns all definitions in key order
func (c *Catalog) Fields() []FieldDefinition {
	if c == nil {
		return nil
	}
	out := make([]FieldDefinition, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, c.fields[key])
	}
	return out
}

// Issues returns the malformed-entry issues recorded while loading
func (c *Catalog) Issues() []Issue {
	if c == nil {
		return nil
	}
	return append([]Issue(nil), c.issues...)
}

// MarshalJSON encodes the catalog in its source shape: an object keyed by field id
func (c *Catalog) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.fields)
}

// MarshalYAML encodes the catalog as a mapping keyed by field id
func (c *Catalog) MarshalYAML() (interface{}, error) {
	if c == nil {
		return map[string]FieldDefinition{}, nil
	}
	return c.fields, nil
}

// Encode serialises the catalog in the given format
func (c *Catalog) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(c)
	default:
		return json.MarshalIndent(c, "", "  ")
	}
}

// LoadCatalog reads a catalog file. JSON is assumed unless the extension is
// .yaml or .yml. On any failure to read or parse the source an empty catalog
// is returned together with a CatalogError of type ErrorTypeCatalogMissing.
func LoadCatalog(path string) (*Catalog, error) {
	empty := NewCatalog()
	if path == "" {
		return empty, newCatalogMissing(path, "no catalog source configured", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return empty, newCatalogMissing(path, "cannot read catalog", err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	c, err := ParseCatalog(data, format)
	if err != nil {
		if ce, ok := err.(*CatalogError); ok {
			ce.Source = path
		}
		return empty, err
	}
	return c, nil
}

// ParseCatalog decodes catalog bytes. Entries that lack a required attribute
// or carry an unusable value are skipped and recorded as issues.
func ParseCatalog(data []byte, format Format) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewCatalog(), newCatalogMissing("", "catalog source is empty", nil)
	}

	var raw map[string]interface{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&raw)
	}
	if err != nil {
		return NewCatalog(), newCatalogMissing("", "catalog source is not parseable", err)
	}

	entries := unwrapEntries(raw)

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	defs := make([]FieldDefinition, 0, len(keys))
	var issues []Issue
	for _, key := range keys {
		def, err := decodeEntry(key, entries[key])
		if err != nil {
			issues = append(issues, Issue{
				Field:   key,
				Kind:    IssueMalformedEntry,
				Message: err.Message,
			})
			continue
		}
		defs = append(defs, def)
	}

	c := NewCatalog(defs...)
	c.issues = issues
	return c, nil
}

// unwrapEntries strips a single top-level layout name such as
// {"t_fl100_gc120": {...fields...}}
func unwrapEntries(raw map[string]interface{}) map[string]interface{} {
	if len(raw) != 1 {
		return raw
	}
	for _, v := range raw {
		inner, ok := asMap(v)
		if !ok || len(inner) == 0 {
			return raw
		}
		for _, entry := range inner {
			if _, ok := asMap(entry); !ok {
				return raw
			}
		}
		return inner
	}
	return raw
}

func decodeEntry(key string, v interface{}) (FieldDefinition, *CatalogError) {
	malformed := func(format string, args ...interface{}) *CatalogError {
		return &CatalogError{
			Type:    ErrorTypeMalformedEntry,
			Field:   key,
			Message: fmt.Sprintf(format, args...),
		}
	}

	m, ok := asMap(v)
	if !ok {
		return FieldDefinition{}, malformed("entry is not an object")
	}

	var missing []string
	for _, name := range requiredKeys {
		if _, ok := m[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return FieldDefinition{}, malformed("missing required attribute(s): %s", strings.Join(missing, ", "))
	}

	def := FieldDefinition{Key: key}
	numbers := []struct {
		name string
		dst  *float64
	}{
		{"x", &def.X},
		{"y", &def.Y},
		{"width", &def.Width},
		{"height", &def.Height},
	}
	for _, n := range numbers {
		f, ok := asFloat(m[n.name])
		if !ok {
			return FieldDefinition{}, malformed("attribute %q is not a number", n.name)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return FieldDefinition{}, malformed("attribute %q is not finite", n.name)
		}
		*n.dst = f
	}

	def.Label = fmt.Sprint(m["label"])
	def.Type = FieldType(strings.ToLower(fmt.Sprint(m["type"])))
	if !def.Type.Valid() {
		return FieldDefinition{}, malformed("unknown field type %q", def.Type)
	}
	if section, ok := m["section"].(string); ok {
		def.Section = section
	}
	return def, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
