package grid_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

func newCarpetGrid(t *testing.T, opts grid.Options) *grid.Grid {
	t.Helper()
	g, err := grid.New(nil, nil, opts)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func numberedRows(n int) []grid.Row {
	rows := make([]grid.Row, n)
	for i := range rows {
		rows[i] = grid.Row{
			"name":     fmt.Sprintf("Carpet %d", i+1),
			"supplier": "Supplier",
			"ounce":    float64(i % 7),
			"cost":     100.0,
			"rrp":      150.0,
			"sale":     120.0,
		}
	}
	return rows
}

func TestNewSeeds(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	as.Equal(3, g.Len())
	as.Equal("Carpet 1", g.Rows()[0]["name"])

	empty, err := grid.New(nil, []grid.Row{}, grid.Options{})
	require.NoError(t, err)
	as.Equal(0, empty.Len(), "an explicit empty seed stays empty")

	stripped, err := grid.New(nil, []grid.Row{{"name": "A", "profitMargin": 99}}, grid.Options{})
	require.NoError(t, err)
	as.NotContains(stripped.Rows()[0], "profitMargin", "derived keys are never stored")

	_, err = grid.New(nil, numberedRows(5), grid.Options{Limits: grid.Limits{MaxRows: 4}})
	as.ErrorIs(err, grid.ErrCapacity)
}

func TestAddRowDefaults(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)

	idx, err := g.AddRow()
	require.NoError(t, err)
	as.Equal(3, idx)

	row := g.Rows()[idx]
	as.Equal("Carpet X", row["name"])
	as.Equal(60.0, row["ounce"])
	as.Equal(150.0, row["sale"])
	as.Equal("", row["notes"])
	as.NotContains(row, "profitMargin")
	as.Equal(`"Carpet X" has been added to the table.`, g.Message())

	bare, err := grid.New([]grid.ColumnSpec{{Label: "Title"}, {Label: "Qty", Numeric: true}}, []grid.Row{}, grid.Options{})
	require.NoError(t, err)
	_, err = bare.AddRow()
	require.NoError(t, err)
	as.Equal(grid.Row{"title": "", "qty": 0.0}, bare.Rows()[0])
	as.Equal(`"Row" has been added to the table.`, bare.Message())
}

func TestAddRowCapacity(t *testing.T) {
	as := assert.New(t)

	g, err := grid.New(nil, numberedRows(1000), grid.Options{})
	require.NoError(t, err)

	_, err = g.AddRow()
	as.ErrorIs(err, grid.ErrCapacity)
	as.Equal("You have reached the maximum number of rows (1000).", err.Error())
	as.Equal(1000, g.Len())
}

func TestCustomColumnBackfillAndDelete(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	cc, err := g.AddCustomColumn("  Notes  ")
	require.NoError(t, err)
	as.Equal(grid.CustomColumn{Label: "Notes", Key: "notes"}, cc)
	as.Equal(`Column "Notes" has been added.`, g.Message())

	for _, r := range g.Rows() {
		as.Equal("", r["notes"])
	}

	require.NoError(t, g.SetHidden("Notes", true))
	_, err = g.DeleteCustomColumn("Notes")
	require.NoError(t, err)
	as.Equal(`Column "Notes" has been removed.`, g.Message())
	as.Empty(g.CustomColumns())
	as.Empty(g.Hidden())
	for _, r := range g.Rows() {
		as.NotContains(r, "notes")
	}

	_, err = g.DeleteCustomColumn("Notes")
	as.ErrorIs(err, grid.ErrUnknownColumn)
}

func TestAddCustomColumnRejects(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)

	tests := []struct {
		name  string
		label string
		err   error
		msg   string
	}{
		{"empty", "   ", grid.ErrInvalidColumnName, ""},
		{"duplicate custom", "Notes", grid.ErrDuplicateColumn, "This column already exists!"},
		{"duplicate fixed", "Supplier", grid.ErrDuplicateColumn, "This column already exists!"},
		{"too long", strings.Repeat("x", 31), grid.ErrColumnNameTooLong, "Column name must be under 30 characters."},
		{"all-columns filter value", "All", grid.ErrInvalidColumnName, `"All" is reserved for searching every column. Please choose another name.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddCustomColumn(tt.label)
			assert.ErrorIs(t, err, tt.err)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}

	_, err = g.AddCustomColumn(strings.Repeat("y", 30))
	assert.NoError(t, err, "thirty characters is allowed")
}

func TestCustomColumnCap(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	for i := 1; i <= 10; i++ {
		_, err := g.AddCustomColumn(fmt.Sprintf("Extra %d", i))
		require.NoError(t, err)
	}

	_, err := g.AddCustomColumn("Extra 11")
	as.ErrorIs(err, grid.ErrTooManyColumns)
	as.Equal("There are too many columns added!", err.Error())
	as.Len(g.CustomColumns(), 10)
}

func TestCustomColumnKeyAvoidsFixedKeys(t *testing.T) {
	g := newCarpetGrid(t, grid.Options{})

	cc, err := g.AddCustomColumn("Name")
	require.NoError(t, err)
	assert.Equal(t, "name2", cc.Key)
	assert.Equal(t, "Carpet 1", g.Rows()[0]["name"], "fixed data is untouched")
}

func TestRenameCustomColumn(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)

	row := g.Rows()[1]
	row["notes"] = "seconds"
	require.NoError(t, g.UpdateRow(1, row))
	require.NoError(t, g.SetHidden("Notes", true))

	cc, changed, err := g.RenameCustomColumn("Notes", " Remarks ")
	require.NoError(t, err)
	as.True(changed)
	as.Equal(grid.CustomColumn{Label: "Remarks", Key: "remarks"}, cc)

	rows := g.Rows()
	as.Equal("seconds", rows[1]["remarks"])
	as.Equal("", rows[0]["remarks"])
	for _, r := range rows {
		as.NotContains(r, "notes")
	}
	as.Equal([]string{"Remarks"}, g.Hidden())
	as.Equal(`Column "Notes" has been renamed to "Remarks".`, g.Message())
}

func TestRenameCustomColumnEdgeCases(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})
	_, err := g.AddCustomColumn("Notes")
	require.NoError(t, err)
	_, err = g.AddCustomColumn("Colour")
	require.NoError(t, err)
	before := g.Version()

	_, changed, err := g.RenameCustomColumn("", "")
	as.NoError(err)
	as.False(changed)

	_, _, err = g.RenameCustomColumn("Notes", "  ")
	as.ErrorIs(err, grid.ErrRenameIncomplete)
	as.Equal("Please enter a new name for the selected column.", err.Error())

	_, _, err = g.RenameCustomColumn("", "Remarks")
	as.ErrorIs(err, grid.ErrRenameIncomplete)

	_, _, err = g.RenameCustomColumn("Notes", "Colour")
	as.ErrorIs(err, grid.ErrDuplicateColumn)

	_, _, err = g.RenameCustomColumn("Notes", "All")
	as.ErrorIs(err, grid.ErrInvalidColumnName)

	_, _, err = g.RenameCustomColumn("Missing", "Remarks")
	as.ErrorIs(err, grid.ErrUnknownColumn)

	_, changed, err = g.RenameCustomColumn("Notes", "Notes")
	as.NoError(err)
	as.False(changed)

	as.Equal(before, g.Version(), "failed and no-op renames do not touch rows")
}

func TestHiddenColumns(t *testing.T) {
	as := assert.New(t)

	g := newCarpetGrid(t, grid.Options{})

	hidden, err := g.ToggleHidden("Supplier")
	require.NoError(t, err)
	as.True(hidden)
	as.True(g.IsHidden("Supplier"))

	for _, c := range g.View().Columns {
		as.NotEqual("Supplier", c.Label)
	}
	as.Equal("Supplier 1", g.Rows()[0]["supplier"], "hidden data is retained")

	hidden, err = g.ToggleHidden("Supplier")
	require.NoError(t, err)
	as.False(hidden)

	as.ErrorIs(g.SetHidden("Nope", true), grid.ErrUnknownColumn)
}

func TestRowsChangeNotification(t *testing.T) {
	as := assert.New(t)

	var calls [][]grid.Row
	g := newCarpetGrid(t, grid.Options{OnRowsChange: func(rows []grid.Row) {
		calls = append(calls, rows)
	}})
	require.Len(t, calls, 1, "seeding notifies")
	as.Len(calls[0], 3)

	_, err := g.AddRow()
	require.NoError(t, err)
	require.Len(t, calls, 2)
	as.Len(calls[1], 4)

	calls[1][0]["name"] = "mutated"
	as.Equal("Carpet 1", g.Rows()[0]["name"], "callbacks receive copies")

	_, err = g.ToggleHidden("Supplier")
	require.NoError(t, err)
	as.Len(calls, 2, "visibility changes do not touch rows")
}
