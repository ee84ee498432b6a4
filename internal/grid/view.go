package grid

import (
	"math"
	"strconv"
	"strings"
)

// FilterAll is the filter value that searches every stored field.
const FilterAll = "All"

// ViewColumn describes one visible column of the view.
type ViewColumn struct {
	Label   string `json:"label"`
	Header  string `json:"header"`
	Key     string `json:"key"`
	Numeric bool   `json:"numeric,omitempty"`
	Derived bool   `json:"derived,omitempty"`
	Custom  bool   `json:"custom,omitempty"`
}

// ViewRow is one displayed row. Position is the row's index in the full
// filtered and sorted list; StoreIndex is its index in the store.
type ViewRow struct {
	Position   int      `json:"position"`
	StoreIndex int      `json:"storeIndex"`
	Cells      []string `json:"cells"`
}

// View is the filtered, sorted and paginated projection of the store.
type View struct {
	Columns       []ViewColumn `json:"columns"`
	Rows          []ViewRow    `json:"rows"`
	Search        string       `json:"search"`
	FilterColumn  string       `json:"filterColumn"`
	Sort          string       `json:"sort"`
	Page          int          `json:"page"`
	PageInput     string       `json:"pageInput"`
	PageSize      int          `json:"pageSize"`
	TotalPages    int          `json:"totalPages"`
	Matched       int          `json:"matched"`
	TotalRows     int          `json:"totalRows"`
	FilterChoices []string     `json:"filterChoices"`
	SortChoices   []SortChoice `json:"sortChoices"`
	Message       string       `json:"message,omitempty"`
	Version       uint64       `json:"version"`
}

// ViewState is the user-controlled part of the view.
type ViewState struct {
	Search       string `json:"search"`
	FilterColumn string `json:"filterColumn"`
	Sort         string `json:"sort"`
	Page         int    `json:"page"`
	PageInput    string `json:"pageInput"`
}

// State returns the current view state.
func (g *Grid) State() ViewState {
	return ViewState{
		Search:       g.search,
		FilterColumn: g.filter,
		Sort:         g.sortValue,
		Page:         g.page,
		PageInput:    g.pageInput,
	}
}

// SetSearch sets the search text and returns to page 1.
func (g *Grid) SetSearch(q string) {
	if q == g.search {
		return
	}
	g.search = q
	g.resetPage()
}

// SetFilterColumn selects the column the search applies to. FilterAll,
// any fixed label and any custom label are accepted; a hidden column
// selects FilterAll instead.
func (g *Grid) SetFilterColumn(label string) error {
	if label == "" {
		label = FilterAll
	}
	if label != FilterAll && !g.store.knownLabel(label) {
		return alert(ErrUnknownColumn, "Unknown filter column %q.", label)
	}
	if label != FilterAll && g.store.IsHidden(label) {
		label = FilterAll
	}
	if label == g.filter {
		return nil
	}
	g.filter = label
	g.resetPage()
	return nil
}

// SetSort selects a sort option by value. SortNone and "" restore filter
// order.
func (g *Grid) SetSort(value string) error {
	if value == "" {
		value = SortNone
	}
	if value != SortNone && g.findSort(value) == nil {
		return alert(ErrUnknownColumn, "Unknown sort option %q.", value)
	}
	if value == g.sortValue {
		return nil
	}
	g.sortValue = value
	g.resetPage()
	return nil
}

func (g *Grid) findSort(value string) *sortDef {
	for i := range g.sorts {
		if g.sorts[i].choice.Value == value {
			return &g.sorts[i]
		}
	}
	return nil
}

// SetPage moves to page n clamped to [1, TotalPages].
func (g *Grid) SetPage(n int) int {
	g.page = clampPage(n, g.totalPages(len(g.ordered())))
	g.pageInput = strconv.Itoa(g.page)
	return g.page
}

// SetPageInput stores the raw contents of the page number box.
func (g *Grid) SetPageInput(raw string) {
	g.pageInput = raw
}

// GoToPage parses the page box, floors and clamps it, and moves there.
// Input that is not a finite number leaves the page unchanged.
func (g *Grid) GoToPage(raw string) int {
	raw = strings.TrimSpace(raw)
	n := 0.0
	if raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			g.pageInput = strconv.Itoa(g.page)
			return g.page
		}
		n = math.Floor(f)
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < math.MinInt32 {
		n = math.MinInt32
	}
	return g.SetPage(int(n))
}

func (g *Grid) resetPage() {
	g.page = 1
	g.pageInput = "1"
}

// syncFilter drops a filter on a column that is now hidden or gone.
func (g *Grid) syncFilter() {
	if g.filter == FilterAll {
		return
	}
	if !g.store.knownLabel(g.filter) || g.store.IsHidden(g.filter) {
		g.filter = FilterAll
		g.resetPage()
	}
}

func (g *Grid) totalPages(n int) int {
	return (n + g.pageSize - 1) / g.pageSize
}

func clampPage(n, total int) int {
	if total < 1 {
		return 1
	}
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// matcher returns the search predicate for the current query and filter.
func (g *Grid) matcher() func(Row) bool {
	if g.search == "" {
		return func(Row) bool { return true }
	}
	q := strings.ToLower(g.search)

	if g.filter == FilterAll {
		return func(r Row) bool {
			for _, v := range r {
				if strings.Contains(strings.ToLower(Stringify(v)), q) {
					return true
				}
			}
			return false
		}
	}

	var value func(Row) any
	if c, ok := g.schema.ByLabel(g.filter); ok {
		value = c.Value
	} else if cc, ok := g.store.Custom(g.filter); ok {
		key := cc.Key
		value = func(r Row) any { return r.Get(key) }
	} else {
		return func(Row) bool { return false }
	}
	return func(r Row) bool {
		return strings.Contains(strings.ToLower(Stringify(value(r))), q)
	}
}

// ordered returns the store indexes of matching rows in display order.
func (g *Grid) ordered() []int {
	rows := g.store.rows
	match := g.matcher()

	idx := make([]int, 0, len(rows))
	for i, r := range rows {
		if match(r) {
			idx = append(idx, i)
		}
	}
	if s := g.findSort(g.sortValue); s != nil {
		sortIndexes(idx, rows, s.compare)
	}
	return idx
}

// Ordered returns the store indexes of every row the view matches, in
// display order.
func (g *Grid) Ordered() []int {
	return g.ordered()
}

// StoreIndex maps a position in the filtered and sorted list to a store
// index.
func (g *Grid) StoreIndex(position int) (int, error) {
	idx := g.ordered()
	if position < 0 || position >= len(idx) {
		return -1, alert(ErrRowNotFound, "Row %d is not in the current view.", position+1)
	}
	return idx[position], nil
}

// VisibleColumns returns the fixed then custom columns that are not hidden.
func (g *Grid) VisibleColumns() []ViewColumn {
	var out []ViewColumn
	for _, c := range g.schema.columns {
		if g.store.IsHidden(c.Label) {
			continue
		}
		out = append(out, ViewColumn{
			Label:   c.Label,
			Header:  c.Header(),
			Key:     c.Key,
			Numeric: c.Numeric,
			Derived: c.Derived(),
		})
	}
	for _, cc := range g.store.custom {
		if g.store.IsHidden(cc.Label) {
			continue
		}
		out = append(out, ViewColumn{Label: cc.Label, Header: cc.Label, Key: cc.Key, Custom: true})
	}
	return out
}

// FilterChoices lists the visible, non-derived fixed column labels. The
// FilterAll entry is implied.
func (g *Grid) FilterChoices() []string {
	var out []string
	for _, c := range g.schema.columns {
		if c.Derived() || g.store.IsHidden(c.Label) {
			continue
		}
		out = append(out, c.Label)
	}
	return out
}

// View recomputes the projection from the full store: search, column
// filter, stable sort, then the page slice. The current page is clamped to
// the new page count.
func (g *Grid) View() View {
	g.syncFilter()

	idx := g.ordered()
	total := g.totalPages(len(idx))
	if clamped := clampPage(g.page, total); clamped != g.page {
		g.page = clamped
	}
	g.pageInput = strconv.Itoa(g.page)

	cols := g.VisibleColumns()
	start := (g.page - 1) * g.pageSize
	end := start + g.pageSize
	if end > len(idx) {
		end = len(idx)
	}
	if start > end {
		start = end
	}

	rows := make([]ViewRow, 0, end-start)
	for pos := start; pos < end; pos++ {
		si := idx[pos]
		rows = append(rows, ViewRow{
			Position:   pos,
			StoreIndex: si,
			Cells:      g.cells(cols, g.store.rows[si]),
		})
	}

	return View{
		Columns:       cols,
		Rows:          rows,
		Search:        g.search,
		FilterColumn:  g.filter,
		Sort:          g.sortValue,
		Page:          g.page,
		PageInput:     g.pageInput,
		PageSize:      g.pageSize,
		TotalPages:    total,
		Matched:       len(idx),
		TotalRows:     g.store.Len(),
		FilterChoices: g.FilterChoices(),
		SortChoices:   g.SortChoices(),
		Message:       g.banner.Current(),
		Version:       g.store.Version(),
	}
}

func (g *Grid) cells(cols []ViewColumn, r Row) []string {
	out := make([]string, len(cols))
	for i, vc := range cols {
		if vc.Custom {
			out[i] = Stringify(r.Get(vc.Key))
			continue
		}
		c, _ := g.schema.ByLabel(vc.Label)
		out[i] = c.Display(r)
	}
	return out
}
