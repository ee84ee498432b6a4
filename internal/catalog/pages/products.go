package pages

import (
	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func init() {
	registerProducts()
}

func registerProducts() {
	catalog.Register(catalog.PageDefinition{
		Info: catalog.PageInfo{
			Key:         "products",
			Group:       "Inventory",
			Label:       "Products",
			Description: "Track supplier information, stock levels, and product attributes in one place.",
			Order:       10,
		},
		Columns: []grid.ColumnSpec{
			{Key: "productName", Label: "Product Name", Default: "New Product"},
			{Key: "supplier", Label: "Supplier"},
			{Key: "id", Label: "ID"},
			{Key: "type", Label: "Type"},
			{Key: "colour", Label: "Colour"},
			{Key: "stockLevel", Label: "Stock Level", Numeric: true},
		},
		Seed: []grid.Row{
			{"productName": "Aurora Twist", "supplier": "FloorCo", "id": "AUR-001", "type": "Twist", "colour": "Ocean Blue", "stockLevel": 24.0},
			{"productName": "Heritage Loop", "supplier": "Textile Hub", "id": "HER-214", "type": "Loop", "colour": "Stone Grey", "stockLevel": 12.0},
			{"productName": "Velvet Touch", "supplier": "CarpetWorks", "id": "VEL-532", "type": "Plush", "colour": "Autumn Red", "stockLevel": 8.0},
		},
		SortOptions: []grid.SortOption{
			{Label: "Stock Level (Low-High)", ColumnLabel: "Stock Level", Direction: "asc"},
			{Label: "Stock Level (High-Low)", ColumnLabel: "Stock Level", Direction: "desc"},
			{Label: "Supplier (A-Z)", ColumnLabel: "Supplier", Direction: "asc"},
		},
		Summary: metrics.Spec{StockKeys: []string{"stockLevel"}},
	})
}
