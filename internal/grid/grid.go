package grid

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DefaultPageSize is the number of rows on one page of the view.
const DefaultPageSize = 20

// Options configures a Grid. Zero values select the defaults.
type Options struct {
	Limits
	PageSize    int
	MessageTTL  time.Duration
	SortOptions []SortOption
	Language    language.Tag

	// OnRowsChange receives a copy of every row after seeding and after
	// every change to the row collection.
	OnRowsChange func([]Row)

	// Now replaces time.Now for the banner.
	Now func() time.Time

	// Version is the first row-set version. A grid that replaces another
	// starts past the old one's version so references into the old rows
	// are rejected.
	Version uint64
}

// Grid is the data-grid engine for one table: schema, rows, view state, the
// edit session, modal state and the confirmation banner.
type Grid struct {
	schema   *Schema
	store    *Store
	sorts    []sortDef
	pageSize int
	banner   *Banner
	onChange func([]Row)

	search    string
	filter    string
	sortValue string
	page      int
	pageInput string
	editing   *editSession
	modals    ModalState
}

// New normalizes specs and seeds a grid. Empty specs select DefaultColumns.
// A nil seed selects DefaultRows; a non-nil empty seed starts with no rows.
func New(specs []ColumnSpec, seed []Row, opts Options) (*Grid, error) {
	if len(specs) == 0 {
		specs = DefaultColumns()
	}
	schema, err := Normalize(specs)
	if err != nil {
		return nil, err
	}
	return NewWithSchema(schema, seed, opts)
}

// NewWithSchema seeds a grid over an already normalized schema.
func NewWithSchema(schema *Schema, seed []Row, opts Options) (*Grid, error) {
	if seed == nil {
		seed = DefaultRows()
	}

	store, err := NewStore(schema, opts.Limits, seed)
	if err != nil {
		return nil, err
	}
	if opts.Version > store.version {
		store.version = opts.Version
	}

	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	collator := newCollator(tag)

	sorts, err := buildSorts(schema, opts.SortOptions, collator)
	if err != nil {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	g := &Grid{
		schema:    schema,
		store:     store,
		sorts:     sorts,
		pageSize:  pageSize,
		banner:    NewBanner(opts.MessageTTL, opts.Now),
		onChange:  opts.OnRowsChange,
		filter:    FilterAll,
		sortValue: SortNone,
		page:      1,
		pageInput: "1",
	}
	g.notify()
	return g, nil
}

// Schema returns the fixed column schema.
func (g *Grid) Schema() *Schema { return g.schema }

// Limits returns the effective store limits.
func (g *Grid) Limits() Limits { return g.store.Limits() }

// PageSize returns the number of rows per page.
func (g *Grid) PageSize() int { return g.pageSize }

// Rows returns a copy of every row in store order.
func (g *Grid) Rows() []Row { return g.store.Rows() }

// Len returns the number of rows in the store.
func (g *Grid) Len() int { return g.store.Len() }

// Version changes whenever the row collection changes.
func (g *Grid) Version() uint64 { return g.store.Version() }

// CustomColumns returns the custom columns in insertion order.
func (g *Grid) CustomColumns() []CustomColumn { return g.store.CustomColumns() }

// Hidden returns the hidden column labels.
func (g *Grid) Hidden() []string { return g.store.Hidden() }

// Banner returns the confirmation banner.
func (g *Grid) Banner() *Banner { return g.banner }

// Message returns the current banner text.
func (g *Grid) Message() string { return g.banner.Current() }

// SortChoices lists the sort menu, excluding SortNone.
func (g *Grid) SortChoices() []SortChoice {
	out := make([]SortChoice, len(g.sorts))
	for i, s := range g.sorts {
		out[i] = s.choice
	}
	return out
}

// Close stops the banner timer.
func (g *Grid) Close() {
	g.banner.Clear()
}

// rowsChanged resets pagination and notifies the host after any change to
// the row collection.
func (g *Grid) rowsChanged() {
	g.resetPage()
	g.notify()
}

func (g *Grid) notify() {
	if g.onChange != nil {
		g.onChange(g.store.Rows())
	}
}

// rowLabel names a row in messages: the primary column's value, or "Row N".
func (g *Grid) rowLabel(r Row, storeIndex int) string {
	if p, ok := g.schema.Primary(); ok {
		if s := Stringify(p.Value(r)); s != "" {
			return s
		}
	}
	return "Row " + strconv.Itoa(storeIndex+1)
}

// AddRow appends a defaulted row and announces it.
func (g *Grid) AddRow() (int, error) {
	idx, err := g.store.AddRow()
	if err != nil {
		return -1, err
	}
	label := "Row"
	if p, ok := g.schema.Primary(); ok {
		if s := Stringify(p.Value(g.store.row(idx))); s != "" {
			label = s
		}
	}
	g.banner.Set(UserMessage(MsgRowAdded, label))
	g.rowsChanged()
	return idx, nil
}

// UpdateRow replaces the row at a store index.
func (g *Grid) UpdateRow(storeIndex int, patch Row) error {
	if err := g.store.UpdateRow(storeIndex, patch); err != nil {
		return err
	}
	g.rowsChanged()
	return nil
}

// AddCustomColumn adds a custom column and announces it.
func (g *Grid) AddCustomColumn(label string) (CustomColumn, error) {
	cc, err := g.store.AddCustomColumn(label)
	if err != nil {
		return CustomColumn{}, err
	}
	g.banner.Set(UserMessage(MsgColumnAdded, cc.Label))
	g.rowsChanged()
	return cc, nil
}

// DeleteCustomColumn removes a custom column and announces it.
func (g *Grid) DeleteCustomColumn(label string) (CustomColumn, error) {
	cc, err := g.store.DeleteCustomColumn(label)
	if err != nil {
		return CustomColumn{}, err
	}
	if g.filter == cc.Label {
		g.filter = FilterAll
	}
	g.banner.Set(UserMessage(MsgColumnDeleted, cc.Label))
	g.rowsChanged()
	return cc, nil
}

// RenameCustomColumn renames a custom column. The returned bool is false
// when the call was a no-op.
func (g *Grid) RenameCustomColumn(oldLabel, newLabel string) (CustomColumn, bool, error) {
	cc, changed, err := g.store.RenameCustomColumn(oldLabel, newLabel)
	if err != nil || !changed {
		return cc, changed, err
	}
	if g.filter == strings.TrimSpace(oldLabel) {
		g.filter = cc.Label
	}
	g.banner.Set(UserMessage(MsgColumnRenamed, strings.TrimSpace(oldLabel), cc.Label))
	g.rowsChanged()
	return cc, true, nil
}

// SetHidden hides or shows a column. Hiding the filtered column resets the
// filter to FilterAll.
func (g *Grid) SetHidden(label string, hidden bool) error {
	if err := g.store.SetHidden(label, hidden); err != nil {
		return err
	}
	g.syncFilter()
	return nil
}

// ToggleHidden flips a column's visibility and returns the new state.
func (g *Grid) ToggleHidden(label string) (bool, error) {
	hidden, err := g.store.ToggleHidden(label)
	if err != nil {
		return false, err
	}
	g.syncFilter()
	return hidden, nil
}

// IsHidden reports whether a column label is hidden.
func (g *Grid) IsHidden(label string) bool { return g.store.IsHidden(label) }
