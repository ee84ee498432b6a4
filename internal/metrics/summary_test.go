package metrics_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func TestSummarizeProducts(t *testing.T) {
	as := assert.New(t)

	rows := []grid.Row{
		{"productName": "Aurora Twist", "stockLevel": 24.0},
		{"productName": "Heritage Loop", "stockLevel": 12.0},
		{"productName": "Velvet Touch", "stockLevel": 8.0},
		{"productName": "", "Stock Level": "3"},
		{"productName": "Unknown", "stockLevel": "n/a"},
	}

	s := metrics.Summarize(metrics.Spec{}, rows)
	as.Equal(5, s.Rows)
	as.True(s.HasStock)
	as.Equal([]string{"Velvet Touch", "Row 4"}, s.LowStock)
	as.False(s.HasTotal)
	as.Empty(s.BestSeller)

	s = metrics.Summarize(metrics.Spec{LowStockThreshold: 15}, rows)
	as.Equal([]string{"Heritage Loop", "Velvet Touch", "Row 4"}, s.LowStock)
}

func TestSummarizeSales(t *testing.T) {
	as := assert.New(t)

	rows := []grid.Row{
		{"productName": "Carpet 1", "quantitySold": 120.0, "totalLm": 5400.0},
		{"productName": "Carpet 2", "quantitySold": 75.0, "totalLm": 2437.5},
		{"productName": "Carpet 3", "quantitySold": 200.0, "totalLm": 3750.0},
		{"productName": "Carpet 2", "quantitySold": 130.0, "totalLm": ""},
	}

	s := metrics.Summarize(metrics.Spec{}, rows)
	as.True(s.HasTotal)
	as.True(decimal.NewFromFloat(11587.5).Equal(s.Total), s.Total.String())
	as.Equal("Carpet 2", s.BestSeller)
	as.True(decimal.NewFromInt(205).Equal(s.BestSellerQty))
	as.False(s.HasStock)
	as.Empty(s.LowStock)
}

func TestSummarizeNameKey(t *testing.T) {
	rows := []grid.Row{
		{"name": "Carpet 1", "sku": "C1", "stock": 2.0},
		{"sku": "C2", "stock": 3.0},
	}

	s := metrics.Summarize(metrics.Spec{}.WithFallbackNameKey("sku"), rows)
	assert.Equal(t, []string{"Carpet 1", "C2"}, s.LowStock)
}

func TestMoneyAndNumber(t *testing.T) {
	as := assert.New(t)

	as.Equal("$554,500", metrics.Money(decimal.NewFromInt(554500)))
	as.Equal("$11,588", metrics.Money(decimal.NewFromFloat(11587.5)))
	as.Equal("-$20", metrics.Money(decimal.NewFromInt(-20)))
	as.Equal("1,234.5", metrics.Number(decimal.NewFromFloat(1234.5)))
	as.Equal("205", metrics.Number(decimal.NewFromInt(205)))
}
