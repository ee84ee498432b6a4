// Package grid implements the in-memory data-grid engine behind every table
// in the dashboard.
//
// A Grid is built from a column schema and a set of seed rows supplied by a
// hosting page. It owns the row store, the custom and hidden column sets, the
// view state (search, filter column, sort option, page) and the transient UI
// state of the modals and the confirmation banner.
//
// # Column schema
//
// Columns are declared with [ColumnSpec] values, either as a bare label or as
// an object, and normalized by [Normalize] into a [Schema]:
//
//	schema, err := grid.Normalize([]grid.ColumnSpec{
//	    {Label: "Carpet Name", Default: "Carpet X"},
//	    {Label: "Cost", Numeric: true, Format: grid.FormatCurrency},
//	    {Label: "Sale Price", Key: "sale", Numeric: true},
//	    {Label: "Profit Margin", Derive: "num(sale) == 0 ? 0 : (num(sale) - num(cost)) / num(sale) * 100"},
//	})
//
// Keys are generated from labels with [ToKey] when not given. Labels are the
// external identity used by filter and sort selections; keys are the only
// storage identifiers.
//
// # View pipeline
//
// [Grid.View] recomputes the displayed rows from the full store on every
// call: search, then column filter, then a stable sort, then a page slice.
// Each [ViewRow] carries the store index of the row it shows, so actions
// addressed by view position always reach the right store entry.
//
// # Concurrency
//
// A Grid is not safe for concurrent use. Callers serving several goroutines
// must serialize access, as internal/core does with a per-page mutex. The
// [Banner] is the only type with its own lock, because its clear action runs
// on a timer goroutine.
package grid
