package grid

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnKind distinguishes stored columns from derived ones.
type ColumnKind int

const (
	KindStored ColumnKind = iota
	KindDerived
)

func (k ColumnKind) String() string {
	if k == KindDerived {
		return "derived"
	}
	return "stored"
}

// ColumnSpec is a raw column declaration supplied by a hosting page.
// In YAML and JSON a spec may be a bare label string or an object.
type ColumnSpec struct {
	Key          string     `yaml:"key,omitempty" json:"key,omitempty"`
	Label        string     `yaml:"label" json:"label"`
	Numeric      bool       `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Derived      bool       `yaml:"derived,omitempty" json:"derived,omitempty"`
	Derive       string     `yaml:"derive,omitempty" json:"derive,omitempty"` // expr-lang expression over the row
	Format       FormatKind `yaml:"format,omitempty" json:"format,omitempty"`
	HeaderSuffix string     `yaml:"headerSuffix,omitempty" json:"headerSuffix,omitempty"`
	Default      any        `yaml:"default,omitempty" json:"default,omitempty"`

	// Programmatic alternatives to Derive and Format.
	DeriveFunc DeriveFunc `yaml:"-" json:"-"`
	FormatFunc FormatFunc `yaml:"-" json:"-"`
}

// UnmarshalYAML accepts both "Label" and {label: ..., ...} forms.
func (s *ColumnSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = ColumnSpec{Label: node.Value}
		return nil
	}
	type alias ColumnSpec
	var a alias
	if err := node.Decode(&a); err != nil {
		return err
	}
	*s = ColumnSpec(a)
	return nil
}

// UnmarshalJSON accepts both "Label" and {"label": ...} forms.
func (s *ColumnSpec) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*s = ColumnSpec{Label: label}
		return nil
	}
	type alias ColumnSpec
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = ColumnSpec(a)
	return nil
}

// Column is a normalized column definition.
type Column struct {
	Key          string
	Label        string
	Kind         ColumnKind
	Numeric      bool
	HeaderSuffix string
	Default      any
	HasDefault   bool

	derive DeriveFunc
	format FormatFunc
}

// Derived reports whether the column is computed from other fields.
func (c Column) Derived() bool {
	return c.Kind == KindDerived
}

// Value resolves the column's value for a row: the derive function for
// derived columns, a key lookup otherwise. Missing keys yield nil.
func (c Column) Value(r Row) any {
	if c.Derived() {
		if c.derive == nil {
			return nil
		}
		return c.derive(r)
	}
	return r.Get(c.Key)
}

// Display formats the column's value for a row.
func (c Column) Display(r Row) string {
	v := c.Value(r)
	if v == nil {
		v = ""
	}
	if c.format == nil {
		return Stringify(v)
	}
	return c.format(v)
}

// Header returns the label followed by the header suffix, if any.
func (c Column) Header() string {
	return c.Label + c.HeaderSuffix
}

// Schema is the normalized, ordered set of fixed columns for a grid.
type Schema struct {
	columns []Column
	byLabel map[string]int
	byKey   map[string]int
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ToKey derives a storage key from a label: lowercase, collapse runs of
// anything outside [a-z0-9] into a single separator, then camel-case.
// "Sale Price" becomes "salePrice"; "Qty Sold /lm" becomes "qtySoldLm".
func ToKey(label string) string {
	words := strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(label), " "))
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// Normalize validates raw column specs and returns the canonical schema.
// Every spec needs a label; keys and labels must be unique; derived columns
// need a derive function or expression.
func Normalize(specs []ColumnSpec) (*Schema, error) {
	s := &Schema{
		columns: make([]Column, 0, len(specs)),
		byLabel: make(map[string]int, len(specs)),
		byKey:   make(map[string]int, len(specs)),
	}

	for i, spec := range specs {
		if strings.TrimSpace(spec.Label) == "" {
			return nil, configError("column %d: column definitions must include a label", i)
		}
		if strings.TrimSpace(spec.Label) == FilterAll {
			return nil, configError("column %d: label %q is reserved for the all-columns filter", i, FilterAll)
		}

		col := Column{
			Key:          spec.Key,
			Label:        spec.Label,
			Numeric:      spec.Numeric,
			HeaderSuffix: spec.HeaderSuffix,
			Default:      NormalizeValue(spec.Default),
			HasDefault:   spec.Default != nil,
		}
		if col.Key == "" {
			col.Key = ToKey(spec.Label)
		}
		if col.Key == "" {
			return nil, configError("column %q: label produces an empty key", spec.Label)
		}

		switch {
		case spec.DeriveFunc != nil:
			col.Kind = KindDerived
			col.derive = spec.DeriveFunc
		case spec.Derive != "":
			fn, err := CompileDerive(spec.Derive)
			if err != nil {
				return nil, configError("column %q: %v", spec.Label, err)
			}
			col.Kind = KindDerived
			col.derive = fn
		case spec.Derived:
			return nil, configError("column %q: derived column has no derive function", spec.Label)
		}

		format, err := resolveFormat(spec)
		if err != nil {
			return nil, configError("column %q: %v", spec.Label, err)
		}
		col.format = format

		if _, dup := s.byLabel[col.Label]; dup {
			return nil, configError("duplicate column label %q", col.Label)
		}
		if _, dup := s.byKey[col.Key]; dup {
			return nil, configError("duplicate column key %q", col.Key)
		}

		s.byLabel[col.Label] = len(s.columns)
		s.byKey[col.Key] = len(s.columns)
		s.columns = append(s.columns, col)
	}

	return s, nil
}

// MustNormalize is Normalize for package-level page definitions.
func MustNormalize(specs []ColumnSpec) *Schema {
	s, err := Normalize(specs)
	if err != nil {
		panic(err)
	}
	return s
}

// Columns returns the columns in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of fixed columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Primary returns the first column, used to name rows in messages and for
// the default sort options.
func (s *Schema) Primary() (Column, bool) {
	if len(s.columns) == 0 {
		return Column{}, false
	}
	return s.columns[0], true
}

// ByLabel looks up a column by its display label.
func (s *Schema) ByLabel(label string) (Column, bool) {
	i, ok := s.byLabel[label]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// ByKey looks up a column by its storage key.
func (s *Schema) ByKey(key string) (Column, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Labels returns the column labels in declaration order.
func (s *Schema) Labels() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Label
	}
	return out
}
