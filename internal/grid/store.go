package grid

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Limits bounds the row store.
type Limits struct {
	MaxRows             int
	MaxCustomColumns    int
	MaxColumnNameLength int
}

// DefaultLimits are the limits used when a field is left zero.
var DefaultLimits = Limits{
	MaxRows:             1000,
	MaxCustomColumns:    10,
	MaxColumnNameLength: 30,
}

func (l Limits) withDefaults() Limits {
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultLimits.MaxRows
	}
	if l.MaxCustomColumns <= 0 {
		l.MaxCustomColumns = DefaultLimits.MaxCustomColumns
	}
	if l.MaxColumnNameLength <= 0 {
		l.MaxColumnNameLength = DefaultLimits.MaxColumnNameLength
	}
	return l
}

// CustomColumn is a user-added text column. Its storage key is generated
// from the label and changes when the column is renamed.
type CustomColumn struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// Store holds the ordered rows, the custom column set and the hidden
// column set. Index arguments are store positions, not view positions.
type Store struct {
	schema  *Schema
	limits  Limits
	rows    []Row
	custom  []CustomColumn
	hidden  map[string]bool
	version uint64
}

// NewStore seeds a store. Seed rows are normalized and stripped of derived
// keys; more seed rows than MaxRows is a capacity error.
func NewStore(schema *Schema, limits Limits, seed []Row) (*Store, error) {
	limits = limits.withDefaults()
	if len(seed) > limits.MaxRows {
		return nil, fmt.Errorf("%w: %d seed rows exceeds the maximum of %d", ErrCapacity, len(seed), limits.MaxRows)
	}

	s := &Store{
		schema:  schema,
		limits:  limits,
		rows:    make([]Row, 0, len(seed)),
		hidden:  make(map[string]bool),
		version: 1,
	}
	for _, r := range seed {
		s.rows = append(s.rows, s.stripDerived(NormalizeRow(r)))
	}
	return s, nil
}

// Schema returns the fixed column schema.
func (s *Store) Schema() *Schema { return s.schema }

// Limits returns the effective limits.
func (s *Store) Limits() Limits { return s.limits }

// Version increments on every change to the row collection.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// Rows returns a deep copy of every row.
func (s *Store) Rows() []Row { return CloneRows(s.rows) }

// Row returns a copy of the row at index.
func (s *Store) Row(index int) (Row, error) {
	if index < 0 || index >= len(s.rows) {
		return nil, fmt.Errorf("%w: index %d", ErrRowNotFound, index)
	}
	return s.rows[index].Clone(), nil
}

func (s *Store) row(index int) Row {
	return s.rows[index]
}

func (s *Store) touch() {
	s.version++
}

func (s *Store) stripDerived(r Row) Row {
	for _, c := range s.schema.columns {
		if c.Derived() {
			delete(r, c.Key)
		}
	}
	return r
}

// NewRow builds a row from column defaults without inserting it.
func (s *Store) NewRow() Row {
	r := make(Row, len(s.schema.columns)+len(s.custom))
	for _, c := range s.schema.columns {
		if c.Derived() {
			continue
		}
		switch {
		case c.HasDefault:
			r[c.Key] = c.Default
		case c.Numeric:
			r[c.Key] = 0.0
		default:
			r[c.Key] = ""
		}
	}
	for _, cc := range s.custom {
		r[cc.Key] = ""
	}
	return r
}

// AddRow appends a defaulted row and returns its index.
func (s *Store) AddRow() (int, error) {
	if len(s.rows) >= s.limits.MaxRows {
		return -1, alert(ErrCapacity, "You have reached the maximum number of rows (%d).", s.limits.MaxRows)
	}
	s.rows = append(s.rows, s.NewRow())
	s.touch()
	return len(s.rows) - 1, nil
}

// UpdateRow replaces the row at index. Derived keys in the patch are dropped.
func (s *Store) UpdateRow(index int, patch Row) error {
	if index < 0 || index >= len(s.rows) {
		return fmt.Errorf("%w: index %d", ErrRowNotFound, index)
	}
	s.rows[index] = s.stripDerived(NormalizeRow(patch))
	s.touch()
	return nil
}

// DeleteRow removes and returns the row at index.
func (s *Store) DeleteRow(index int) (Row, error) {
	if index < 0 || index >= len(s.rows) {
		return nil, fmt.Errorf("%w: index %d", ErrRowNotFound, index)
	}
	removed := s.rows[index]
	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	s.touch()
	return removed, nil
}

// CustomColumns returns the custom columns in insertion order.
func (s *Store) CustomColumns() []CustomColumn {
	out := make([]CustomColumn, len(s.custom))
	copy(out, s.custom)
	return out
}

// Custom looks up a custom column by label.
func (s *Store) Custom(label string) (CustomColumn, bool) {
	i := s.customIndex(label)
	if i < 0 {
		return CustomColumn{}, false
	}
	return s.custom[i], true
}

func (s *Store) customIndex(label string) int {
	for i, cc := range s.custom {
		if cc.Label == label {
			return i
		}
	}
	return -1
}

// validateName applies the add-column rules to a trimmed label. skip is the
// index of a custom column ignored by the duplicate check, or -1.
func (s *Store) validateName(label string, skip int) error {
	if label == "" {
		return alert(ErrInvalidColumnName, "Please enter a column name.")
	}
	if label == FilterAll {
		return alert(ErrInvalidColumnName, "%q is reserved for searching every column. Please choose another name.", FilterAll)
	}
	if _, ok := s.schema.ByLabel(label); ok {
		return alert(ErrDuplicateColumn, "This column already exists!")
	}
	for i, cc := range s.custom {
		if i != skip && cc.Label == label {
			return alert(ErrDuplicateColumn, "This column already exists!")
		}
	}
	if utf8.RuneCountInString(label) > s.limits.MaxColumnNameLength {
		return alert(ErrColumnNameTooLong, "Column name must be under %d characters.", s.limits.MaxColumnNameLength)
	}
	return nil
}

// customKey generates a storage key for a custom label that collides with
// no fixed key and no other custom key. skip is ignored like validateName.
func (s *Store) customKey(label string, skip int) string {
	base := ToKey(label)
	if base == "" {
		base = "column"
	}
	taken := func(key string) bool {
		if _, ok := s.schema.ByKey(key); ok {
			return true
		}
		for i, cc := range s.custom {
			if i != skip && cc.Key == key {
				return true
			}
		}
		return false
	}
	key := base
	for n := 2; taken(key); n++ {
		key = base + strconv.Itoa(n)
	}
	return key
}

// AddCustomColumn appends a custom column and back-fills "" on every row.
func (s *Store) AddCustomColumn(label string) (CustomColumn, error) {
	label = strings.TrimSpace(label)
	if err := s.validateName(label, -1); err != nil {
		return CustomColumn{}, err
	}
	if len(s.custom)+1 > s.limits.MaxCustomColumns {
		return CustomColumn{}, alert(ErrTooManyColumns, "There are too many columns added!")
	}

	cc := CustomColumn{Label: label, Key: s.customKey(label, -1)}
	s.custom = append(s.custom, cc)
	for _, r := range s.rows {
		r[cc.Key] = ""
	}
	s.touch()
	return cc, nil
}

// DeleteCustomColumn removes a custom column, its hidden entry and its key
// on every row.
func (s *Store) DeleteCustomColumn(label string) (CustomColumn, error) {
	i := s.customIndex(label)
	if i < 0 {
		return CustomColumn{}, fmt.Errorf("%w: %q is not a custom column", ErrUnknownColumn, label)
	}
	cc := s.custom[i]
	s.custom = append(s.custom[:i], s.custom[i+1:]...)
	delete(s.hidden, cc.Label)
	for _, r := range s.rows {
		delete(r, cc.Key)
	}
	s.touch()
	return cc, nil
}

// RenameCustomColumn relabels a custom column and migrates its values to
// the new key. Both names empty is a no-op; only one of them given is
// ErrRenameIncomplete. The returned bool reports whether anything changed.
func (s *Store) RenameCustomColumn(oldLabel, newLabel string) (CustomColumn, bool, error) {
	oldLabel = strings.TrimSpace(oldLabel)
	newLabel = strings.TrimSpace(newLabel)

	switch {
	case oldLabel == "" && newLabel == "":
		return CustomColumn{}, false, nil
	case oldLabel == "":
		return CustomColumn{}, false, alert(ErrRenameIncomplete, "Please select a column to rename.")
	case newLabel == "":
		return CustomColumn{}, false, alert(ErrRenameIncomplete, "Please enter a new name for the selected column.")
	}

	i := s.customIndex(oldLabel)
	if i < 0 {
		return CustomColumn{}, false, fmt.Errorf("%w: %q is not a custom column", ErrUnknownColumn, oldLabel)
	}
	if oldLabel == newLabel {
		return s.custom[i], false, nil
	}
	if err := s.validateName(newLabel, i); err != nil {
		return CustomColumn{}, false, err
	}

	old := s.custom[i]
	renamed := CustomColumn{Label: newLabel, Key: s.customKey(newLabel, i)}
	s.custom[i] = renamed

	if renamed.Key != old.Key {
		for _, r := range s.rows {
			v, ok := r[old.Key]
			delete(r, old.Key)
			if ok {
				r[renamed.Key] = v
			} else {
				r[renamed.Key] = ""
			}
		}
	}
	if s.hidden[old.Label] {
		delete(s.hidden, old.Label)
		s.hidden[renamed.Label] = true
	}
	s.touch()
	return renamed, true, nil
}

func (s *Store) knownLabel(label string) bool {
	if _, ok := s.schema.ByLabel(label); ok {
		return true
	}
	return s.customIndex(label) >= 0
}

// SetHidden hides or shows a fixed or custom column by label.
func (s *Store) SetHidden(label string, hidden bool) error {
	if !s.knownLabel(label) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, label)
	}
	if hidden {
		s.hidden[label] = true
	} else {
		delete(s.hidden, label)
	}
	return nil
}

// ToggleHidden flips the hidden state of a column and returns the new state.
func (s *Store) ToggleHidden(label string) (bool, error) {
	hidden := !s.hidden[label]
	if err := s.SetHidden(label, hidden); err != nil {
		return false, err
	}
	return hidden, nil
}

// IsHidden reports whether a column label is hidden.
func (s *Store) IsHidden(label string) bool {
	return s.hidden[label]
}

// Hidden returns the hidden labels in column order (fixed, then custom).
func (s *Store) Hidden() []string {
	out := make([]string, 0, len(s.hidden))
	for _, c := range s.schema.columns {
		if s.hidden[c.Label] {
			out = append(out, c.Label)
		}
	}
	for _, cc := range s.custom {
		if s.hidden[cc.Label] {
			out = append(out, cc.Label)
		}
	}
	return out
}
