// Package metrics aggregates grid rows into the dashboard figures and
// exports them, with request metrics, to Prometheus.
package metrics

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

// DefaultLowStockThreshold is the stock level below which an item is
// reported as low.
const DefaultLowStockThreshold = 10

// Spec lists the candidate field names tried, in order, for each figure.
// Matching ignores case and anything outside [a-z0-9], so "Stock Level",
// "stock_level" and "stockLevel" all match.
type Spec struct {
	NameKeys          []string `yaml:"nameKeys,omitempty" json:"nameKeys,omitempty"`
	TotalKeys         []string `yaml:"totalKeys,omitempty" json:"totalKeys,omitempty"`
	StockKeys         []string `yaml:"stockKeys,omitempty" json:"stockKeys,omitempty"`
	QuantityKeys      []string `yaml:"quantityKeys,omitempty" json:"quantityKeys,omitempty"`
	LowStockThreshold float64  `yaml:"lowStockThreshold,omitempty" json:"lowStockThreshold,omitempty"`
}

// DefaultSpec covers the field names used by the built-in pages.
func DefaultSpec() Spec {
	return Spec{
		NameKeys:          []string{"productName", "name", "carpetName", "title"},
		TotalKeys:         []string{"totalLm", "total", "totalSales", "amount", "revenue"},
		StockKeys:         []string{"stockLevel", "stock", "quantity", "qty", "onHand", "inventory"},
		QuantityKeys:      []string{"quantitySold", "qtySold", "unitsSold", "sold"},
		LowStockThreshold: DefaultLowStockThreshold,
	}
}

// Merge fills empty fields of s from d.
func (s Spec) Merge(d Spec) Spec {
	if len(s.NameKeys) == 0 {
		s.NameKeys = d.NameKeys
	}
	if len(s.TotalKeys) == 0 {
		s.TotalKeys = d.TotalKeys
	}
	if len(s.StockKeys) == 0 {
		s.StockKeys = d.StockKeys
	}
	if len(s.QuantityKeys) == 0 {
		s.QuantityKeys = d.QuantityKeys
	}
	if s.LowStockThreshold <= 0 {
		s.LowStockThreshold = d.LowStockThreshold
	}
	return s
}

// WithFallbackNameKey appends key to the name candidates, after the
// defaults. Pages pass their primary column key so rows are always named.
func (s Spec) WithFallbackNameKey(key string) Spec {
	if key == "" {
		return s
	}
	s = s.Merge(DefaultSpec())
	names := make([]string, 0, len(s.NameKeys)+1)
	names = append(names, s.NameKeys...)
	s.NameKeys = append(names, key)
	return s
}

// Summary holds the figures shown above a page's table.
type Summary struct {
	Rows          int             `json:"rows"`
	HasTotal      bool            `json:"hasTotal"`
	Total         decimal.Decimal `json:"total"`
	HasStock      bool            `json:"hasStock"`
	LowStock      []string        `json:"lowStock"`
	BestSeller    string          `json:"bestSeller,omitempty"`
	BestSellerQty decimal.Decimal `json:"bestSellerQty"`
}

// Summarize aggregates rows: count, total over the first total field found,
// items whose stock is below the threshold, and the name with the highest
// summed quantity sold.
func Summarize(spec Spec, rows []grid.Row) Summary {
	spec = spec.Merge(DefaultSpec())
	sum := Summary{Rows: len(rows), LowStock: []string{}}

	type seller struct {
		name  string
		qty   decimal.Decimal
		order int
	}
	sellers := map[string]*seller{}

	for i, r := range rows {
		name := grid.Stringify(lookup(r, spec.NameKeys))
		if name == "" {
			name = "Row " + strconv.Itoa(i+1)
		}

		if v, ok := number(lookup(r, spec.TotalKeys)); ok {
			sum.HasTotal = true
			sum.Total = sum.Total.Add(v)
		}

		if raw := lookup(r, spec.StockKeys); raw != nil {
			sum.HasStock = true
			if v, ok := number(raw); ok && v.LessThan(decimal.NewFromFloat(spec.LowStockThreshold)) {
				sum.LowStock = append(sum.LowStock, name)
			}
		}

		if v, ok := number(lookup(r, spec.QuantityKeys)); ok {
			s := sellers[name]
			if s == nil {
				s = &seller{name: name, order: len(sellers)}
				sellers[name] = s
			}
			s.qty = s.qty.Add(v)
		}
	}

	var best *seller
	for _, s := range sellers {
		if best == nil || s.qty.GreaterThan(best.qty) || (s.qty.Equal(best.qty) && s.order < best.order) {
			best = s
		}
	}
	if best != nil {
		sum.BestSeller = best.name
		sum.BestSellerQty = best.qty
	}
	return sum
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lookup returns the value of the first candidate present in r.
func lookup(r grid.Row, candidates []string) any {
	if len(r) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, c := range candidates {
		want := normalizeKey(c)
		for _, k := range keys {
			if normalizeKey(k) == want {
				return r[k]
			}
		}
	}
	return nil
}

func number(v any) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return decimal.Zero, false
	}
	f := grid.ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

var printer = message.NewPrinter(language.English)

// Money formats d as whole US dollars with thousands separators.
func Money(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// Number formats d with thousands separators and at most two decimals.
func Number(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	frac := d.Sub(whole).Abs()
	s := printer.Sprintf("%d", whole.IntPart())
	if d.IsNegative() && whole.IsZero() {
		s = "-" + s
	}
	if !frac.IsZero() {
		s += strings.TrimPrefix(frac.String(), "0")
	}
	return s
}
