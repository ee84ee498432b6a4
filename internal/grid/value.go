package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row is a single record keyed by column key. Values are loosely typed
// scalars: string or float64 after normalization. Rows may hold keys that no
// column declares and may lack keys that were added later.
type Row map[string]any

// Clone returns a shallow copy of the row. Values are scalars, so a shallow
// copy is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value stored under key, or nil when the key is absent.
func (r Row) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// CloneRows deep-copies a row slice.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// NormalizeValue converts decoded scalars into the two shapes rows hold.
// Integers of any width become float64; time values become ISO dates; nil
// stays nil; anything else is kept.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return val
	}
}

// NormalizeRow returns a copy of r with every value normalized.
func NormalizeRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = NormalizeValue(v)
	}
	return out
}

// Stringify renders a scalar the way it is searched and displayed.
// nil renders as the empty string; whole numbers have no decimal point.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		switch n := NormalizeValue(val).(type) {
		case string:
			return n
		case float64:
			return formatNumber(n)
		default:
			return fmt.Sprint(n)
		}
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber coerces a scalar to float64. Missing values and blank strings are
// zero; strings that are not numbers yield NaN.
func ToNumber(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		if f, ok := NormalizeValue(val).(float64); ok {
			return f
		}
		return math.NaN()
	}
}

// parseFinite parses a trimmed edit-form value as a finite number.
func parseFinite(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
