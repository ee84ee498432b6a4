package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

func page(key, group string, order int) catalog.PageDefinition {
	return catalog.PageDefinition{
		Info:    catalog.PageInfo{Key: key, Group: group, Label: key, Order: order},
		Columns: []grid.ColumnSpec{{Label: "Name"}, {Label: "Qty", Numeric: true}},
		Seed:    []grid.Row{},
	}
}

func TestRegistryOrdering(t *testing.T) {
	catalog.Clear()
	t.Cleanup(catalog.Clear)
	as := assert.New(t)

	catalog.Register(page("sales", "Sales", 20))
	catalog.Register(page("products", "Inventory", 10))
	catalog.Register(page("rugs", "Inventory", 10))
	catalog.Register(page("home", "Dashboard", 0))

	var keys []string
	for _, def := range catalog.All() {
		keys = append(keys, def.Info.Key)
	}
	as.Equal([]string{"home", "products", "rugs", "sales"}, keys)
	as.Equal([]string{"Dashboard", "Inventory", "Sales"}, catalog.Groups())
	as.Len(catalog.ByGroup("Inventory"), 2)
	as.Equal(4, catalog.Count())

	def, ok := catalog.Get("rugs")
	as.True(ok)
	as.Equal("rugs", def.Info.Title())

	_, ok = catalog.Get("missing")
	as.False(ok)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	catalog.Clear()
	t.Cleanup(catalog.Clear)

	catalog.Register(page("home", "Dashboard", 0))
	assert.Panics(t, func() { catalog.Register(page("home", "Dashboard", 0)) })
}

func TestPutReplacesAndValidates(t *testing.T) {
	catalog.Clear()
	t.Cleanup(catalog.Clear)
	as := assert.New(t)

	catalog.Register(page("home", "Dashboard", 0))

	replacement := page("home", "Dashboard", 5)
	replacement.Info.Label = "Overview"
	require.NoError(t, catalog.Put(replacement))

	def, _ := catalog.Get("home")
	as.Equal("Overview", def.Info.Title())
	as.Equal(1, catalog.Count())

	bad := page("broken", "Dashboard", 0)
	bad.Columns = []grid.ColumnSpec{{Label: "Name"}, {Label: "Name"}}
	err := catalog.Put(bad)
	as.ErrorIs(err, grid.ErrConfig)
	_, ok := catalog.Get("broken")
	as.False(ok)

	as.Error(catalog.Put(catalog.PageDefinition{}))
}

func TestValidateChecksSortOptions(t *testing.T) {
	def := page("rugs", "Inventory", 0)
	def.SortOptions = []grid.SortOption{{Label: "By Width", ColumnLabel: "Width"}}
	assert.ErrorIs(t, def.Validate(), grid.ErrConfig)

	def.SortOptions = []grid.SortOption{{Label: "By Qty", ColumnLabel: "Qty", Direction: "desc"}}
	assert.NoError(t, def.Validate())
}
