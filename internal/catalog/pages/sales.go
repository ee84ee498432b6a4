package pages

import (
	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func init() {
	registerSales()
}

func registerSales() {
	catalog.Register(catalog.PageDefinition{
		Info: catalog.PageInfo{
			Key:         "sales",
			Group:       "Sales",
			Label:       "Sales Records",
			Description: "Track recent transactions and analyse revenue performance.",
			Order:       20,
		},
		Columns: []grid.ColumnSpec{
			{Key: "saleId", Label: "Sale ID"},
			{Key: "productId", Label: "Product ID"},
			{Key: "productName", Label: "Product Name"},
			{Key: "date", Label: "Date"},
			{Key: "quantitySold", Label: "Qty Sold", HeaderSuffix: " /lm", Numeric: true, Default: 0},
			{Key: "priceLm", Label: "Price", HeaderSuffix: " /lm", Numeric: true, Format: grid.FormatCurrency, Default: 0},
			{Key: "totalLm", Label: "Total $", Numeric: true, Default: 0},
			{Key: "discount", Label: "Discount", Default: "0%"},
			{Key: "discount Type", Label: "Discount Type", Default: ""},
		},
		Seed: []grid.Row{
			{"saleId": "S-1001", "productId": "P-211234", "productName": "Carpet 1", "date": "2024-07-01", "quantitySold": 120.0, "priceLm": 45.0, "totalLm": 5400.0, "discount": "5%"},
			{"saleId": "S-1002", "productId": "P-211234", "productName": "Carpet 2", "date": "2024-07-03", "quantitySold": 75.0, "priceLm": 32.5, "totalLm": 2437.5, "discount": "0%"},
			{"saleId": "S-1003", "productId": "P-211234", "productName": "Carpet 3", "date": "2024-07-05", "quantitySold": 200.0, "priceLm": 18.75, "totalLm": 3750.0, "discount": "10%"},
		},
		SortOptions: []grid.SortOption{
			{Label: "Date (Newest)", ColumnLabel: "Date", Direction: "desc"},
			{Label: "Date (Oldest)", ColumnLabel: "Date", Direction: "asc"},
			{Label: "Total (High-Low)", ColumnLabel: "Total $", Direction: "desc"},
			{Label: "Qty Sold (High-Low)", ColumnLabel: "Qty Sold", Direction: "desc"},
		},
		Summary: metrics.Spec{TotalKeys: []string{"totalLm"}, QuantityKeys: []string{"quantitySold"}},
	})
}
