package grid_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

func TestStartEditStagesEditableFields(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)
	require.NoError(t, g.SetHidden("Ounce", true))

	form, err := g.StartEdit(1)
	require.NoError(t, err)
	as.Equal(1, form.StoreIndex)
	as.Equal("Carpet 2", form.RowLabel)

	labels := make([]string, len(form.Fields))
	for i, f := range form.Fields {
		labels[i] = f.Label
	}
	as.Equal([]string{"Carpet Name", "Supplier", "Cost", "RRP", "Sale Price", "Notes"}, labels)
	as.Equal("90", form.Fields[2].Value)
	as.True(g.Modals().EditRowOpen)

	as.ErrorIs(g.SetEditValue("Profit Margin", "1"), grid.ErrUnknownColumn, "derived columns are not editable")

	_, err = g.StartEdit(3)
	as.ErrorIs(err, grid.ErrRowNotFound)
}

func TestSaveEditRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
		msg   string
	}{
		{"not a number", "abc", grid.ErrInvalidNumberField, "Please enter a valid number for Cost."},
		{"empty", "   ", grid.ErrEmptyNumericField, "Cost cannot be empty."},
		{"infinite", "1e999", grid.ErrInvalidNumberField, "Please enter a valid number for Cost."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := assert.New(t)
			g := newCarpetGrid(t, grid.Options{})
			before := g.Rows()

			_, err := g.StartEdit(0)
			require.NoError(t, err)
			require.NoError(t, g.SetEditValue("Cost", tt.value))

			_, err = g.SaveEdit()
			as.ErrorIs(err, tt.err)
			as.Equal(tt.msg, err.Error())

			var verr *grid.ValidationError
			as.True(errors.As(err, &verr))
			as.Equal("Cost", verr.Field)

			as.Equal(before, g.Rows(), "store is untouched")
			_, open := g.Editing()
			as.True(open, "form stays open for correction")
		})
	}
}

func TestSaveEdit(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)

	_, err = g.StartEdit(0)
	require.NoError(t, err)
	require.NoError(t, g.SetEditValues(map[string]string{
		"Carpet Name": "Carpet One",
		"Cost":        " 95.5 ",
		"Notes":       "seconds",
	}))

	msg, err := g.SaveEdit()
	require.NoError(t, err)
	as.Equal(`Changes to "Carpet One" were saved successfully.`, msg)
	as.Equal(msg, g.Message())

	row := g.Rows()[0]
	as.Equal("Carpet One", row["name"])
	as.Equal(95.5, row["cost"])
	as.Equal(150.0, row["rrp"], "untouched numeric fields are coerced back to numbers")
	as.Equal("seconds", row["notes"])
	as.NotContains(row, "profitMargin")

	_, open := g.Editing()
	as.False(open)

	_, err = g.SaveEdit()
	as.ErrorIs(err, grid.ErrNoEditInProgress)
}

func TestSaveEditKeepsHiddenColumns(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)

	row := g.Rows()[0]
	row["notes"] = "keep me"
	require.NoError(t, g.UpdateRow(0, row))
	require.NoError(t, g.SetHidden("Notes", true))
	require.NoError(t, g.SetHidden("Supplier", true))

	_, err = g.StartEdit(0)
	require.NoError(t, err)
	require.NoError(t, g.SetEditValue("Cost", "1"))
	_, err = g.SaveEdit()
	require.NoError(t, err)

	row = g.Rows()[0]
	as.Equal("keep me", row["notes"])
	as.Equal("Supplier 1", row["supplier"])
	as.Equal(1.0, row["cost"])
}

func TestSaveEditFallbackLabel(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{})

	_, err := g.StartEdit(2)
	require.NoError(t, err)
	require.NoError(t, g.SetEditValue("Carpet Name", ""))

	msg, err := g.SaveEdit()
	require.NoError(t, err)
	assert.Equal(t, `Changes to "Row 3" were saved successfully.`, msg)
}

func TestSaveEditStale(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.StartEdit(0)
	require.NoError(t, err)

	_, err = g.AddRow()
	require.NoError(t, err)

	_, err = g.SaveEdit()
	as.ErrorIs(err, grid.ErrStaleEdit)
	_, open := g.Editing()
	as.False(open)
}

func TestRowRefPinsVersion(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	c, err := g.ConfirmDelete(grid.RowRef{Index: 1})
	require.NoError(t, err)
	as.Equal(g.Version(), c.Version)
	as.Equal(`Are you sure you want to delete "Carpet 2"?`, c.Prompt)

	deleted, err := g.DeleteRow(0, grid.Confirmed)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = g.DeleteRowRef(c.RowRef, grid.Confirmed)
	as.ErrorIs(err, grid.ErrRowsChanged)
	as.False(deleted)
	as.Equal(2, g.Len())

	_, err = g.StartEditRef(c.RowRef)
	as.ErrorIs(err, grid.ErrRowsChanged)
	_, open := g.Editing()
	as.False(open)

	// an unpinned ref always addresses the current rows
	form, err := g.StartEditRef(grid.RowRef{Index: 1})
	require.NoError(t, err)
	as.Equal(1, form.StoreIndex)
}

func TestVersionOptionStartsPastPredecessor(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{Version: 42})
	assert.Equal(t, uint64(42), g.Version())
	assert.Equal(t, uint64(42), g.View().Version)

	fresh := newCarpetGrid(t, grid.Options{})
	assert.Equal(t, uint64(1), fresh.Version())
}

func TestEditAddressesViewPosition(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{})
	require.NoError(t, g.SetSort("Name (Z-A)"))

	form, err := g.StartEdit(0)
	require.NoError(t, err)
	assert.Equal(t, 2, form.StoreIndex)
	assert.Equal(t, "Carpet 3", form.RowLabel)
}

func TestDeleteRowAfterSort(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{SortOptions: ounceSorts})
	require.NoError(t, g.SetSort("Sale Price (High-Low)"))

	deleted, err := g.DeleteRow(0, grid.Confirmed)
	require.NoError(t, err)
	as.True(deleted)
	as.Equal(`"Carpet 3" has been deleted from the table.`, g.Message())

	highest := 0.0
	for _, r := range g.Rows() {
		as.NotEqual("Carpet 3", r["name"])
		if s := r["sale"].(float64); s > highest {
			highest = s
		}
	}
	as.Equal(2, g.Len())
	as.Equal(120.0, highest)
}

func TestDeleteRowFiltered(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{})
	g.SetSearch("supplier 2")

	deleted, err := g.DeleteRow(0, grid.Confirmed)
	require.NoError(t, err)
	require.True(t, deleted)

	names := []any{}
	for _, r := range g.Rows() {
		names = append(names, r["name"])
	}
	assert.Equal(t, []any{"Carpet 1", "Carpet 3"}, names)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.StartEdit(0)
	require.NoError(t, err)

	var asked string
	deleted, err := g.DeleteEditingRow(grid.ConfirmFunc(func(prompt string) bool {
		asked = prompt
		return false
	}))
	require.NoError(t, err)
	as.False(deleted)
	as.Equal(`Are you sure you want to delete "Carpet 1"?`, asked)
	as.Equal(3, g.Len())
	_, open := g.Editing()
	as.True(open, "declining keeps the form open")

	deleted, err = g.DeleteEditingRow(grid.Confirmed)
	require.NoError(t, err)
	as.True(deleted)
	as.Equal(2, g.Len())
	_, open = g.Editing()
	as.False(open)

	deleted, err = g.DeleteRow(0, nil)
	as.NoError(err)
	as.False(deleted, "a nil confirmer never confirms")

	_, err = g.DeleteRow(5, grid.Confirmed)
	as.ErrorIs(err, grid.ErrRowNotFound)
}
