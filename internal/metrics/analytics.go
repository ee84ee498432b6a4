package metrics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MonthlySales is one point of the sales trend.
type MonthlySales struct {
	Month string          `yaml:"month" json:"month"`
	Sales decimal.Decimal `yaml:"sales" json:"sales"`
}

// Chart geometry of the trend line, in SVG viewBox units.
const (
	ChartWidth   = 100
	ChartHeight  = 100
	ChartPadding = 10
)

// Analytics is the aggregate view of the monthly sales series.
type Analytics struct {
	Months     []MonthlySales  `json:"months"`
	YTD        decimal.Decimal `json:"ytd"`
	Average    decimal.Decimal `json:"average"`
	Busiest    MonthlySales    `json:"busiest"`
	Quietest   MonthlySales    `json:"quietest"`
	LinePoints string          `json:"linePoints"`
	AreaPoints string          `json:"areaPoints"`
}

// SampleMonthlySales is the static trend shown on the analytics page.
func SampleMonthlySales() []MonthlySales {
	data := []struct {
		month string
		sales int64
	}{
		{"Jan", 32000}, {"Feb", 36000}, {"Mar", 45500}, {"Apr", 51000},
		{"May", 47000}, {"Jun", 43000}, {"Jul", 39000}, {"Aug", 42000},
		{"Sep", 46000}, {"Oct", 54000}, {"Nov", 58000}, {"Dec", 61000},
	}
	out := make([]MonthlySales, len(data))
	for i, d := range data {
		out[i] = MonthlySales{Month: d.month, Sales: decimal.NewFromInt(d.sales)}
	}
	return out
}

// Analyze computes the year-to-date total, the rounded monthly average, the
// busiest and quietest months (earliest wins a tie) and the chart points.
func Analyze(months []MonthlySales) Analytics {
	a := Analytics{Months: months}
	if len(months) == 0 {
		return a
	}

	a.Busiest, a.Quietest = months[0], months[0]
	maxSales := months[0].Sales
	for _, m := range months {
		a.YTD = a.YTD.Add(m.Sales)
		if m.Sales.GreaterThan(a.Busiest.Sales) {
			a.Busiest = m
		}
		if m.Sales.LessThan(a.Quietest.Sales) {
			a.Quietest = m
		}
		if m.Sales.GreaterThan(maxSales) {
			maxSales = m.Sales
		}
	}
	a.Average = a.YTD.Div(decimal.NewFromInt(int64(len(months)))).Round(0)

	a.LinePoints = linePoints(months, maxSales)
	a.AreaPoints = fmt.Sprintf("%s %d,%d %d,%d", a.LinePoints,
		ChartWidth-ChartPadding, ChartHeight-ChartPadding,
		ChartPadding, ChartHeight-ChartPadding)
	return a
}

func linePoints(months []MonthlySales, maxSales decimal.Decimal) string {
	span := float64(len(months) - 1)
	if span < 1 {
		span = 1
	}
	top, _ := maxSales.Float64()
	if top < 1 {
		top = 1
	}

	pts := make([]string, len(months))
	for i, m := range months {
		sales, _ := m.Sales.Float64()
		x := ChartPadding + (ChartWidth-ChartPadding*2)*float64(i)/span
		y := ChartHeight - ChartPadding - (ChartHeight-ChartPadding*2)*sales/top
		pts[i] = fmt.Sprintf("%.2f,%.2f", x, y)
	}
	return strings.Join(pts, " ")
}
