package grid

// DefaultColumns is the carpet pricing schema used when a page supplies no
// columns of its own.
func DefaultColumns() []ColumnSpec {
	return []ColumnSpec{
		{Key: "name", Label: "Carpet Name", Default: "Carpet X"},
		{Key: "supplier", Label: "Supplier", Default: "Supplier X"},
		{Key: "ounce", Label: "Ounce", Numeric: true, Default: 60},
		{Key: "cost", Label: "Cost", Numeric: true, HeaderSuffix: " /lm", Format: FormatCurrency, Default: 120},
		{Key: "rrp", Label: "RRP", Numeric: true, HeaderSuffix: " /lm", Format: FormatCurrency, Default: 180},
		{Key: "sale", Label: "Sale Price", Numeric: true, HeaderSuffix: " /lm", Format: FormatCurrency, Default: 150},
		{Key: "profitMargin", Label: "Profit Margin", Format: FormatPercent, DeriveFunc: Ratio("sale", "cost", "sale")},
		{Key: "discount", Label: "Discount", Format: FormatPercent, DeriveFunc: Ratio("rrp", "sale", "rrp")},
	}
}

// DefaultRows is the sample data used when a page supplies no seed.
func DefaultRows() []Row {
	return []Row{
		{"name": "Carpet 1", "supplier": "Supplier 1", "ounce": 99.0, "cost": 100.0, "rrp": 150.0, "sale": 120.0},
		{"name": "Carpet 2", "supplier": "Supplier 2", "ounce": 40.0, "cost": 90.0, "rrp": 140.0, "sale": 110.0},
		{"name": "Carpet 3", "supplier": "Supplier 3", "ounce": 60.0, "cost": 120.0, "rrp": 180.0, "sale": 150.0},
	}
}
