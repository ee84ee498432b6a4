package pages

import (
	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

func init() {
	registerHome()
}

func registerHome() {
	catalog.Register(catalog.PageDefinition{
		Info: catalog.PageInfo{
			Key:         "home",
			Group:       "Dashboard",
			Label:       "Home",
			Description: "Carpet pricing at a glance.",
			Order:       0,
		},
		Columns: grid.DefaultColumns(),
		Seed:    grid.DefaultRows(),
		SortOptions: []grid.SortOption{
			{Label: "Sale Price (Low-High)", ColumnLabel: "Sale Price", Direction: "asc"},
			{Label: "Sale Price (High-Low)", ColumnLabel: "Sale Price", Direction: "desc"},
			{Label: "Profit Margin (High-Low)", ColumnLabel: "Profit Margin", Direction: "desc", Numeric: boolPtr(true)},
		},
	})
}

func boolPtr(b bool) *bool { return &b }
