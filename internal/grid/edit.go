package grid

import (
	"fmt"
	"strings"
)

// Confirmer answers a blocking yes/no prompt before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed answers yes to every prompt. Used when the caller has already
// asked.
var Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })

// EditField is one input of the edit form.
type EditField struct {
	Label   string `json:"label"`
	Key     string `json:"key"`
	Numeric bool   `json:"numeric,omitempty"`
	Custom  bool   `json:"custom,omitempty"`
	Value   string `json:"value"`
}

// EditForm is the open edit form as presented to callers.
type EditForm struct {
	StoreIndex int         `json:"storeIndex"`
	RowLabel   string      `json:"rowLabel"`
	Fields     []EditField `json:"fields"`
}

type editSession struct {
	storeIndex int
	version    uint64
	fields     []EditField
}

func (s *editSession) field(label string) *EditField {
	for i := range s.fields {
		if s.fields[i].Label == label {
			return &s.fields[i]
		}
	}
	return nil
}

// StartEdit opens the edit form for the row at a view position. Visible
// non-derived fixed columns and visible custom columns are staged as
// strings, keyed by label. An already open form is replaced.
func (g *Grid) StartEdit(position int) (EditForm, error) {
	si, err := g.StoreIndex(position)
	if err != nil {
		return EditForm{}, err
	}
	return g.StartEditAt(si)
}

// RowRef points at a row by store index as of a row-set version. A zero
// Version matches whatever rows are current.
type RowRef struct {
	Index   int    `json:"storeIndex"`
	Version uint64 `json:"version,omitempty"`
}

// checkRef rejects a reference taken before the last change to the rows.
// Indexes shift when rows are added or deleted, so a stale index may name
// a different row.
func (g *Grid) checkRef(ref RowRef) error {
	if ref.Version != 0 && ref.Version != g.store.Version() {
		return alert(ErrRowsChanged, "The table changed since this row was shown. Please try again.")
	}
	return nil
}

// StartEditRef opens the edit form for the row ref points at.
func (g *Grid) StartEditRef(ref RowRef) (EditForm, error) {
	if err := g.checkRef(ref); err != nil {
		return EditForm{}, err
	}
	return g.StartEditAt(ref.Index)
}

// StartEditAt opens the edit form for the row at a store index.
func (g *Grid) StartEditAt(storeIndex int) (EditForm, error) {
	if storeIndex < 0 || storeIndex >= g.store.Len() {
		return EditForm{}, alert(ErrRowNotFound, "Row %d does not exist.", storeIndex+1)
	}
	r := g.store.row(storeIndex)

	s := &editSession{storeIndex: storeIndex, version: g.store.Version()}
	for _, c := range g.schema.columns {
		if c.Derived() || g.store.IsHidden(c.Label) {
			continue
		}
		s.fields = append(s.fields, EditField{
			Label:   c.Label,
			Key:     c.Key,
			Numeric: c.Numeric,
			Value:   Stringify(r.Get(c.Key)),
		})
	}
	for _, cc := range g.store.custom {
		if g.store.IsHidden(cc.Label) {
			continue
		}
		s.fields = append(s.fields, EditField{
			Label:  cc.Label,
			Key:    cc.Key,
			Custom: true,
			Value:  Stringify(r.Get(cc.Key)),
		})
	}

	g.editing = s
	return g.editForm(), nil
}

// Editing returns the open edit form, if any.
func (g *Grid) Editing() (EditForm, bool) {
	if g.editing == nil {
		return EditForm{}, false
	}
	return g.editForm(), true
}

func (g *Grid) editForm() EditForm {
	s := g.editing
	fields := make([]EditField, len(s.fields))
	copy(fields, s.fields)

	label := ""
	if s.storeIndex < g.store.Len() {
		label = g.rowLabel(g.store.row(s.storeIndex), s.storeIndex)
	}
	return EditForm{StoreIndex: s.storeIndex, RowLabel: label, Fields: fields}
}

// SetEditValue stages a raw value for a field of the open form.
func (g *Grid) SetEditValue(label, value string) error {
	if g.editing == nil {
		return ErrNoEditInProgress
	}
	f := g.editing.field(label)
	if f == nil {
		return alert(ErrUnknownColumn, "%q is not an editable field.", label)
	}
	f.Value = value
	return nil
}

// SetEditValues stages several values at once. Unknown labels are an error
// and nothing is staged.
func (g *Grid) SetEditValues(values map[string]string) error {
	if g.editing == nil {
		return ErrNoEditInProgress
	}
	for label := range values {
		if g.editing.field(label) == nil {
			return alert(ErrUnknownColumn, "%q is not an editable field.", label)
		}
	}
	for label, v := range values {
		g.editing.field(label).Value = v
	}
	return nil
}

// CancelEdit closes the edit form without touching the store.
func (g *Grid) CancelEdit() {
	g.editing = nil
}

// current checks the open session still points at the row it was opened on.
func (g *Grid) current() (*editSession, error) {
	s := g.editing
	if s == nil {
		return nil, ErrNoEditInProgress
	}
	if s.version != g.store.Version() || s.storeIndex >= g.store.Len() {
		g.editing = nil
		return nil, alert(ErrStaleEdit, "The table changed while this row was being edited. Please try again.")
	}
	return s, nil
}

// SaveEdit validates the staged numeric fields and writes the row back.
// On a validation error the store is untouched and the form stays open.
// Hidden custom columns keep their stored values.
func (g *Grid) SaveEdit() (string, error) {
	s, err := g.current()
	if err != nil {
		return "", err
	}

	numbers := make(map[string]float64)
	for _, f := range s.fields {
		if !f.Numeric {
			continue
		}
		raw := strings.TrimSpace(f.Value)
		if raw == "" {
			return "", &ValidationError{Field: f.Label, Value: f.Value, Err: ErrEmptyNumericField}
		}
		n, ok := parseFinite(raw)
		if !ok {
			return "", &ValidationError{Field: f.Label, Value: f.Value, Err: ErrInvalidNumberField}
		}
		numbers[f.Key] = n
	}

	updated := g.store.row(s.storeIndex).Clone()
	for _, f := range s.fields {
		if f.Numeric {
			updated[f.Key] = numbers[f.Key]
			continue
		}
		updated[f.Key] = f.Value
	}

	if err := g.store.UpdateRow(s.storeIndex, updated); err != nil {
		return "", err
	}
	g.editing = nil

	msg := UserMessage(MsgRowEdited, g.rowLabel(updated, s.storeIndex))
	g.banner.Set(msg)
	g.rowsChanged()
	return msg, nil
}

// DeletePrompt returns the confirmation question for deleting the row at a
// store index.
func (g *Grid) DeletePrompt(storeIndex int) (string, error) {
	if storeIndex < 0 || storeIndex >= g.store.Len() {
		return "", alert(ErrRowNotFound, "Row %d does not exist.", storeIndex+1)
	}
	label := g.rowLabel(g.store.row(storeIndex), storeIndex)
	return fmt.Sprintf(`Are you sure you want to delete "%s"?`, label), nil
}

// DeleteConfirmation is the question asked before a row is deleted, tied
// to the row-set version it was asked at.
type DeleteConfirmation struct {
	RowRef
	Prompt string `json:"prompt"`
}

// ConfirmDelete builds the delete question for ref. The returned ref
// carries the current version so the answer can only delete the row that
// was named.
func (g *Grid) ConfirmDelete(ref RowRef) (DeleteConfirmation, error) {
	if err := g.checkRef(ref); err != nil {
		return DeleteConfirmation{}, err
	}
	prompt, err := g.DeletePrompt(ref.Index)
	if err != nil {
		return DeleteConfirmation{}, err
	}
	return DeleteConfirmation{
		RowRef: RowRef{Index: ref.Index, Version: g.store.Version()},
		Prompt: prompt,
	}, nil
}

// DeleteRowRef deletes the row ref points at after confirmation.
func (g *Grid) DeleteRowRef(ref RowRef, c Confirmer) (bool, error) {
	if err := g.checkRef(ref); err != nil {
		return false, err
	}
	return g.DeleteRowAt(ref.Index, c)
}

// DeleteEditingRow deletes the row of the open form after confirmation and
// closes the form. A declined prompt leaves everything as it was.
func (g *Grid) DeleteEditingRow(c Confirmer) (bool, error) {
	s, err := g.current()
	if err != nil {
		return false, err
	}
	deleted, err := g.deleteAt(s.storeIndex, c)
	if deleted {
		g.editing = nil
	}
	return deleted, err
}

// DeleteRow deletes the row at a view position after confirmation.
func (g *Grid) DeleteRow(position int, c Confirmer) (bool, error) {
	si, err := g.StoreIndex(position)
	if err != nil {
		return false, err
	}
	return g.DeleteRowAt(si, c)
}

// DeleteRowAt deletes the row at a store index after confirmation.
func (g *Grid) DeleteRowAt(storeIndex int, c Confirmer) (bool, error) {
	deleted, err := g.deleteAt(storeIndex, c)
	if deleted && g.editing != nil && g.editing.storeIndex == storeIndex {
		g.editing = nil
	}
	return deleted, err
}

func (g *Grid) deleteAt(storeIndex int, c Confirmer) (bool, error) {
	prompt, err := g.DeletePrompt(storeIndex)
	if err != nil {
		return false, err
	}
	if c == nil || !c.Confirm(prompt) {
		return false, nil
	}

	label := g.rowLabel(g.store.row(storeIndex), storeIndex)
	if _, err := g.store.DeleteRow(storeIndex); err != nil {
		return false, err
	}
	g.banner.Set(UserMessage(MsgRowDeleted, label))
	g.rowsChanged()
	return true, nil
}
