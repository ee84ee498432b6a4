package grid

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortNone is the sort value meaning "keep filter order".
const SortNone = "None"

// SortOption declares one entry of the sort menu. The value to compare is
// resolved in order from Accessor, ColumnLabel (through the schema), Key, and
// finally the primary column's key.
type SortOption struct {
	Label       string `yaml:"label" json:"label"`
	Value       string `yaml:"value,omitempty" json:"value,omitempty"` // defaults to Label
	ColumnLabel string `yaml:"column,omitempty" json:"column,omitempty"`
	Key         string `yaml:"key,omitempty" json:"key,omitempty"`
	Direction   string `yaml:"direction,omitempty" json:"direction,omitempty"` // "asc" or "desc"
	Numeric     *bool  `yaml:"numeric,omitempty" json:"numeric,omitempty"`

	Accessor func(Row) any      `yaml:"-" json:"-"`
	Compare  func(a, b Row) int `yaml:"-" json:"-"`
}

// SortChoice is a sort menu entry as presented to callers.
type SortChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type sortDef struct {
	choice  SortChoice
	compare func(a, b Row) int
}

// baseSortOptions are always offered ahead of page supplied options.
func baseSortOptions(primaryKey string) []SortOption {
	return []SortOption{
		{Label: "Name (A-Z)", Key: primaryKey, Direction: "asc"},
		{Label: "Name (Z-A)", Key: primaryKey, Direction: "desc"},
	}
}

func newCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.Loose, collate.Numeric)
}

func buildSorts(schema *Schema, opts []SortOption, col *collate.Collator) ([]sortDef, error) {
	primaryKey := ""
	if p, ok := schema.Primary(); ok {
		primaryKey = p.Key
	}

	all := append(baseSortOptions(primaryKey), opts...)
	defs := make([]sortDef, 0, len(all))
	seen := make(map[string]bool, len(all))

	for _, opt := range all {
		if opt.Label == "" {
			return nil, configError("sort options must include a label")
		}
		value := opt.Value
		if value == "" {
			value = opt.Label
		}
		if value == SortNone || seen[value] {
			return nil, configError("duplicate sort option %q", value)
		}
		seen[value] = true

		cmp, err := sortComparator(schema, opt, primaryKey, col)
		if err != nil {
			return nil, err
		}
		defs = append(defs, sortDef{
			choice:  SortChoice{Value: value, Label: opt.Label},
			compare: cmp,
		})
	}
	return defs, nil
}

func sortComparator(schema *Schema, opt SortOption, primaryKey string, col *collate.Collator) (func(a, b Row) int, error) {
	if opt.Compare != nil {
		return opt.Compare, nil
	}

	var (
		column    Column
		hasColumn bool
	)
	if opt.ColumnLabel != "" {
		column, hasColumn = schema.ByLabel(opt.ColumnLabel)
		if !hasColumn {
			return nil, configError("sort option %q: unknown column %q", opt.Label, opt.ColumnLabel)
		}
	}

	var accessor func(Row) any
	switch {
	case opt.Accessor != nil:
		accessor = opt.Accessor
	case hasColumn:
		accessor = column.Value
	case opt.Key != "":
		key := opt.Key
		accessor = func(r Row) any { return r.Get(key) }
	default:
		key := primaryKey
		accessor = func(r Row) any { return r.Get(key) }
	}

	numeric := hasColumn && column.Numeric
	if opt.Numeric != nil {
		numeric = *opt.Numeric
	}

	direction := 1
	switch opt.Direction {
	case "", "asc":
	case "desc":
		direction = -1
	default:
		return nil, configError("sort option %q: direction must be asc or desc", opt.Label)
	}

	if numeric {
		return func(a, b Row) int {
			return compareNumbers(ToNumber(accessor(a)), ToNumber(accessor(b)), direction)
		}, nil
	}
	return func(a, b Row) int {
		return direction * col.CompareString(Stringify(accessor(a)), Stringify(accessor(b)))
	}, nil
}

// compareNumbers orders by direction with NaN after every number in both
// directions.
func compareNumbers(a, b float64, direction int) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -direction
	case a > b:
		return direction
	}
	return 0
}

// sortIndexes stably orders store indexes by compare.
func sortIndexes(idx []int, rows []Row, compare func(a, b Row) int) {
	sort.SliceStable(idx, func(i, j int) bool {
		return compare(rows[idx[i]], rows[idx[j]]) < 0
	})
}
