package grid

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// FormatFunc renders a column value for display.
type FormatFunc func(any) string

// FormatKind names a built-in formatter usable from page files.
type FormatKind string

const (
	FormatPlain    FormatKind = ""
	FormatCurrency FormatKind = "currency"
	FormatPercent  FormatKind = "percent"
)

func resolveFormat(spec ColumnSpec) (FormatFunc, error) {
	if spec.FormatFunc != nil {
		return spec.FormatFunc, nil
	}
	switch spec.Format {
	case FormatPlain:
		return Stringify, nil
	case FormatCurrency:
		return Currency, nil
	case FormatPercent:
		return Percent, nil
	default:
		return nil, fmt.Errorf("unknown format %q", spec.Format)
	}
}

// Currency prefixes the value with a dollar sign: 120 -> "$120".
// Empty values stay empty.
func Currency(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if val == "" {
			return ""
		}
		return "$" + val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "$" + formatNumber(val)
		}
		return "$" + decimal.NewFromFloat(val).String()
	default:
		return "$" + Stringify(val)
	}
}

// Percent renders a number with one decimal and a percent sign:
// 16.666 -> "16.7%".
func Percent(v any) string {
	if s, ok := v.(string); ok && s == "" {
		return ""
	}
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatNumber(f) + "%"
	}
	return decimal.NewFromFloat(f).StringFixed(1) + "%"
}
