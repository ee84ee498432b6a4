package pages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	_ "github.com/JonMunkholm/carpetgrid/internal/catalog/pages"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func TestBuiltinPagesRegistered(t *testing.T) {
	var keys []string
	for _, def := range catalog.All() {
		keys = append(keys, def.Info.Key)
		assert.NoError(t, def.Validate(), def.Info.Key)
	}
	assert.Equal(t, []string{"home", "products", "sales"}, keys)
}

func TestProductsPage(t *testing.T) {
	def, ok := catalog.Get("products")
	require.True(t, ok)

	g, err := grid.New(def.Columns, def.Seed, grid.Options{SortOptions: def.SortOptions})
	require.NoError(t, err)
	defer g.Close()

	idx, err := g.AddRow()
	require.NoError(t, err)
	row := g.Rows()[idx]
	assert.Equal(t, "New Product", row["productName"])
	assert.Equal(t, 0.0, row["stockLevel"])

	s := metrics.Summarize(def.Summary, g.Rows())
	assert.Equal(t, []string{"Velvet Touch", "New Product"}, s.LowStock)
}

func TestSalesPage(t *testing.T) {
	def, ok := catalog.Get("sales")
	require.True(t, ok)

	g, err := grid.New(def.Columns, def.Seed, grid.Options{SortOptions: def.SortOptions})
	require.NoError(t, err)
	defer g.Close()

	v := g.View()
	assert.Equal(t, "Qty Sold /lm", v.Columns[4].Header)
	assert.Equal(t, "$45", v.Rows[0].Cells[5])
	assert.Equal(t, "", v.Rows[0].Cells[8], "missing discount type shows empty")

	require.NoError(t, g.SetSort("Total (High-Low)"))
	assert.Equal(t, "S-1001", g.View().Rows[0].Cells[0])

	s := metrics.Summarize(def.Summary, g.Rows())
	assert.Equal(t, "11587.5", s.Total.String())
	assert.Equal(t, "Carpet 3", s.BestSeller)
}

func TestHomePageUsesCarpetSchema(t *testing.T) {
	def, ok := catalog.Get("home")
	require.True(t, ok)

	g, err := grid.New(def.Columns, def.Seed, grid.Options{SortOptions: def.SortOptions})
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.SetSort("Profit Margin (High-Low)"))
	v := g.View()
	assert.Equal(t, "Carpet 3", v.Rows[0].Cells[0])
	assert.Equal(t, "20.0%", v.Rows[0].Cells[6])
}
