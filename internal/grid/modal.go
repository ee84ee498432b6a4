package grid

import "fmt"

// Modal identifies one of the grid's overlays.
type Modal string

const (
	ModalAddColumn     Modal = "add-column"
	ModalDeleteColumn  Modal = "delete-column"
	ModalManageColumns Modal = "manage-columns"
	ModalEditRow       Modal = "edit-row"
)

// ParseModal validates a modal name.
func ParseModal(s string) (Modal, error) {
	switch m := Modal(s); m {
	case ModalAddColumn, ModalDeleteColumn, ModalManageColumns, ModalEditRow:
		return m, nil
	}
	return "", fmt.Errorf("unknown modal %q", s)
}

// ModalState holds the open flags and transient inputs of the column
// modals. The edit modal is open while an edit session exists.
type ModalState struct {
	AddColumnOpen bool   `json:"addColumnOpen"`
	NewColumnName string `json:"newColumnName"`

	DeleteColumnOpen bool   `json:"deleteColumnOpen"`
	ColumnToDelete   string `json:"columnToDelete"`

	ManageColumnsOpen bool   `json:"manageColumnsOpen"`
	RenameSelection   string `json:"renameSelection"`
	RenameValue       string `json:"renameValue"`

	EditRowOpen bool `json:"editRowOpen"`
}

// Modals returns the modal state.
func (g *Grid) Modals() ModalState {
	m := g.modals
	m.EditRowOpen = g.editing != nil
	return m
}

// OpenModal shows a column modal. Delete Column needs at least one custom
// column; the edit modal opens through StartEdit.
func (g *Grid) OpenModal(m Modal) error {
	switch m {
	case ModalAddColumn:
		g.modals.AddColumnOpen = true
	case ModalDeleteColumn:
		if len(g.store.custom) == 0 {
			return alert(ErrNoCustomColumns, "There are no custom columns to delete.")
		}
		g.modals.DeleteColumnOpen = true
	case ModalManageColumns:
		g.modals.ManageColumnsOpen = true
	case ModalEditRow:
		if g.editing == nil {
			return ErrNoEditInProgress
		}
	default:
		return fmt.Errorf("unknown modal %q", m)
	}
	return nil
}

// CloseModal hides a modal and resets its inputs. The store is untouched.
func (g *Grid) CloseModal(m Modal) {
	switch m {
	case ModalAddColumn:
		g.modals.AddColumnOpen = false
		g.modals.NewColumnName = ""
	case ModalDeleteColumn:
		g.modals.DeleteColumnOpen = false
		g.modals.ColumnToDelete = ""
	case ModalManageColumns:
		g.modals.ManageColumnsOpen = false
		g.modals.RenameSelection = ""
		g.modals.RenameValue = ""
	case ModalEditRow:
		g.CancelEdit()
	}
}

// SetNewColumnName stages the add-column input.
func (g *Grid) SetNewColumnName(name string) {
	g.modals.NewColumnName = name
}

// ConfirmAddColumn adds the staged column. On error the modal stays open
// with its input intact.
func (g *Grid) ConfirmAddColumn() (CustomColumn, error) {
	cc, err := g.AddCustomColumn(g.modals.NewColumnName)
	if err != nil {
		return CustomColumn{}, err
	}
	g.CloseModal(ModalAddColumn)
	return cc, nil
}

// SelectColumnToDelete stages the delete-column selection.
func (g *Grid) SelectColumnToDelete(label string) {
	g.modals.ColumnToDelete = label
}

// ConfirmDeleteColumn deletes the staged column. With nothing selected it
// does nothing and the modal stays open.
func (g *Grid) ConfirmDeleteColumn() (CustomColumn, error) {
	if g.modals.ColumnToDelete == "" {
		return CustomColumn{}, nil
	}
	cc, err := g.DeleteCustomColumn(g.modals.ColumnToDelete)
	if err != nil {
		return CustomColumn{}, err
	}
	g.CloseModal(ModalDeleteColumn)
	return cc, nil
}

// SelectRenameColumn stages the custom column to rename.
func (g *Grid) SelectRenameColumn(label string) {
	g.modals.RenameSelection = label
}

// SetRenameValue stages the new name.
func (g *Grid) SetRenameValue(name string) {
	g.modals.RenameValue = name
}

// ConfirmManageColumns applies the staged rename, if any, and closes the
// modal. Hide toggles apply immediately through ToggleHidden.
func (g *Grid) ConfirmManageColumns() (CustomColumn, bool, error) {
	cc, changed, err := g.RenameCustomColumn(g.modals.RenameSelection, g.modals.RenameValue)
	if err != nil {
		return CustomColumn{}, false, err
	}
	g.CloseModal(ModalManageColumns)
	return cc, changed, nil
}
