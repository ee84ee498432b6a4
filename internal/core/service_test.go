package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/JonMunkholm/carpetgrid/internal/catalog/pages"
	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func newService(t *testing.T, opts core.Options) *core.Service {
	t.Helper()
	if opts.Grid.MessageTTL == 0 {
		opts.Grid.MessageTTL = time.Minute
	}
	svc, err := core.NewService(testCtx(t), opts)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func strPtr(s string) *string { return &s }

func TestNewServiceBuildsEveryPage(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	var keys []string
	for _, info := range svc.ListPages() {
		keys = append(keys, info.Key)
	}
	as.Equal([]string{"home", "products", "sales"}, keys)
	as.Len(svc.ListPagesByGroup()["Inventory"], 1)

	v, err := svc.View("home")
	require.NoError(t, err)
	as.Equal(3, v.TotalRows)
	as.Equal("Carpet 1", v.Rows[0].Cells[0])
}

func TestUnknownPage(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	_, err := svc.View("rugs")
	as.ErrorIs(err, core.ErrPageNotFound)
	as.Equal("PAGE001", core.MapError(err).Code)

	_, err = svc.AddRow(testCtx(t), "rugs")
	as.ErrorIs(err, core.ErrPageNotFound)
}

func TestAddRow(t *testing.T) {
	as := assert.New(t)
	collector := metrics.NewCollector("test")
	svc := newService(t, core.Options{Metrics: collector})

	idx, err := svc.AddRow(testCtx(t), "products")
	require.NoError(t, err)
	as.Equal(3, idx)

	msg, err := svc.Message("products")
	require.NoError(t, err)
	as.Equal(`"New Product" has been added to the table.`, msg)

	sum, err := svc.Summary("products")
	require.NoError(t, err)
	as.Equal(4, sum.Rows)
	as.Equal([]string{"Velvet Touch", "New Product"}, sum.LowStock)

	entries := svc.GetAuditLog(testCtx(t), core.AuditLogFilter{PageKey: "products"})
	require.Len(t, entries, 1)
	as.Equal(core.ActionRowAdd, entries[0].Action)
	as.Equal("New Product", entries[0].RowData["productName"])

	as.Equal(1.0, testutil.ToFloat64(collector.Mutations.WithLabelValues("products", core.OpAddRow, "ok")))
	as.Equal(4.0, testutil.ToFloat64(collector.GridRows.WithLabelValues("products")))
	as.Equal(2.0, testutil.ToFloat64(collector.LowStockItems.WithLabelValues("products")))
}

func TestColumnLifecycle(t *testing.T) {
	as := assert.New(t)
	collector := metrics.NewCollector("test")
	svc := newService(t, core.Options{Metrics: collector})
	ctx := testCtx(t)

	cc, err := svc.AddColumn(ctx, "products", "Notes")
	require.NoError(t, err)
	as.Equal("notes", cc.Key)

	_, err = svc.AddColumn(ctx, "products", "Supplier")
	as.ErrorIs(err, grid.ErrDuplicateColumn)
	as.Equal(1.0, testutil.ToFloat64(collector.Mutations.WithLabelValues("products", core.OpAddColumn, "COL002")))

	cc, changed, err := svc.RenameColumn(ctx, "products", "Notes", "Comments")
	require.NoError(t, err)
	as.True(changed)
	as.Equal("Comments", cc.Label)

	_, changed, err = svc.RenameColumn(ctx, "products", "Comments", "Comments")
	require.NoError(t, err)
	as.False(changed)

	set, err := svc.Columns("products")
	require.NoError(t, err)
	require.Len(t, set.Custom, 1)
	as.Equal("Comments", set.Custom[0].Label)
	as.Len(set.Fixed, 6)

	_, err = svc.DeleteColumn(ctx, "products", "Comments")
	require.NoError(t, err)

	set, err = svc.Columns("products")
	require.NoError(t, err)
	as.Empty(set.Custom)

	entries := svc.GetAuditLog(ctx, core.AuditLogFilter{PageKey: "products"})
	require.Len(t, entries, 3)
	as.Equal(core.ActionColumnDelete, entries[0].Action)
	as.Equal(core.SeverityHigh, entries[0].Severity)
	as.Equal(core.ActionColumnRename, entries[1].Action)
	as.Equal("Notes", entries[1].OldValue)
	as.Equal("Comments", entries[1].NewValue)
}

func TestHiddenColumns(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	_, err := svc.UpdateView("products", core.ViewUpdate{FilterColumn: strPtr("Supplier")})
	require.NoError(t, err)

	require.NoError(t, svc.SetHidden(ctx, "products", "Supplier", true))
	require.NoError(t, svc.SetHidden(ctx, "products", "Supplier", true))

	v, err := svc.View("products")
	require.NoError(t, err)
	as.Equal(grid.FilterAll, v.FilterColumn)
	for _, c := range v.Columns {
		as.NotEqual("Supplier", c.Label)
	}

	hidden, err := svc.ToggleHidden(ctx, "products", "Supplier")
	require.NoError(t, err)
	as.False(hidden)

	err = svc.SetHidden(ctx, "products", "Nope", true)
	as.ErrorIs(err, grid.ErrUnknownColumn)

	as.Equal(2, svc.CountAuditLog(ctx, core.AuditLogFilter{PageKey: "products"}))
}

func TestEditFlow(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	_, err := svc.SaveEdit(ctx, "products", nil)
	as.ErrorIs(err, grid.ErrNoEditInProgress)

	form, err := svc.StartEdit("products", grid.RowRef{Index: 2})
	require.NoError(t, err)
	as.Equal("Velvet Touch", form.RowLabel)

	_, err = svc.SaveEdit(ctx, "products", map[string]string{"Stock Level": "abc"})
	var ve *grid.ValidationError
	require.True(t, errors.As(err, &ve))
	as.Equal("Please enter a valid number for Stock Level.", core.MapError(err).Message)

	_, open, err := svc.Editing("products")
	require.NoError(t, err)
	as.True(open, "form stays open after a validation error")

	msg, err := svc.SaveEdit(ctx, "products", map[string]string{"Stock Level": "30"})
	require.NoError(t, err)
	as.Equal(`Changes to "Velvet Touch" were saved successfully.`, msg)

	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Equal(30.0, rows[2]["stockLevel"])

	sum, err := svc.Summary("products")
	require.NoError(t, err)
	as.Empty(sum.LowStock)

	entries := svc.GetAuditLog(ctx, core.AuditLogFilter{Action: core.ActionRowEdit})
	require.Len(t, entries, 1)
	as.Equal("Velvet Touch", entries[0].RowLabel)
}

func TestCancelEdit(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	_, err := svc.StartEdit("home", grid.RowRef{Index: 0})
	require.NoError(t, err)
	require.NoError(t, svc.SetEditValues("home", map[string]string{"Carpet Name": "Changed"}))
	require.NoError(t, svc.CancelEdit("home"))

	rows, err := svc.Rows("home")
	require.NoError(t, err)
	as.Equal("Carpet 1", rows[0]["name"])

	_, open, err := svc.Editing("home")
	require.NoError(t, err)
	as.False(open)
}

func TestDeleteRow(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	c, err := svc.DeletePrompt("products", grid.RowRef{Index: 0})
	require.NoError(t, err)
	as.Equal(`Are you sure you want to delete "Aurora Twist"?`, c.Prompt)
	as.NotZero(c.Version)

	deleted, err := svc.DeleteRow(ctx, "products", c.RowRef, false)
	require.NoError(t, err)
	as.False(deleted)

	deleted, err = svc.DeleteRow(ctx, "products", c.RowRef, true)
	require.NoError(t, err)
	as.True(deleted)

	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 2)

	_, err = svc.DeleteRow(ctx, "products", grid.RowRef{Index: 9}, true)
	as.ErrorIs(err, grid.ErrRowNotFound)

	entries := svc.GetAuditLog(ctx, core.AuditLogFilter{Action: core.ActionRowDelete})
	require.Len(t, entries, 1)
	as.Equal("Aurora Twist", entries[0].RowLabel)
}

func TestDeleteRowRejectsStalePrompt(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	c, err := svc.DeletePrompt("home", grid.RowRef{Index: 1})
	require.NoError(t, err)
	as.Equal(`Are you sure you want to delete "Carpet 2"?`, c.Prompt)

	// another client removes the first row; "Carpet 3" moves to index 1
	other, err := svc.DeletePrompt("home", grid.RowRef{Index: 0})
	require.NoError(t, err)
	deleted, err := svc.DeleteRow(ctx, "home", other.RowRef, true)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = svc.DeleteRow(ctx, "home", c.RowRef, true)
	as.ErrorIs(err, grid.ErrRowsChanged)
	as.False(deleted)
	as.Equal("ROW003", core.MapError(err).Code)

	rows, err := svc.Rows("home")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	as.Equal("Carpet 2", rows[0]["name"])
	as.Equal("Carpet 3", rows[1]["name"])

	_, err = svc.StartEdit("home", c.RowRef)
	as.ErrorIs(err, grid.ErrRowsChanged)

	_, err = svc.DeletePrompt("home", c.RowRef)
	as.ErrorIs(err, grid.ErrRowsChanged)
}

func TestResetInvalidatesRowRefs(t *testing.T) {
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	c, err := svc.DeletePrompt("products", grid.RowRef{Index: 0})
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "products"))

	_, err = svc.DeleteRow(ctx, "products", c.RowRef, true)
	assert.ErrorIs(t, err, grid.ErrRowsChanged)
}

func TestDeleteEditingRow(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	_, err := svc.StartEdit("sales", grid.RowRef{Index: 1})
	require.NoError(t, err)

	deleted, err := svc.DeleteEditingRow(ctx, "sales", true)
	require.NoError(t, err)
	as.True(deleted)

	_, open, err := svc.Editing("sales")
	require.NoError(t, err)
	as.False(open)

	msg, err := svc.Message("sales")
	require.NoError(t, err)
	as.Equal(`"S-1002" has been deleted from the table.`, msg)
}

func TestUpdateView(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	v, err := svc.UpdateView("products", core.ViewUpdate{Search: strPtr("velvet")})
	require.NoError(t, err)
	as.Equal(1, v.Matched)

	v, err = svc.UpdateView("products", core.ViewUpdate{
		Search: strPtr(""),
		Sort:   strPtr("Stock Level (Low-High)"),
	})
	require.NoError(t, err)
	as.Equal("Velvet Touch", v.Rows[0].Cells[0])

	_, err = svc.UpdateView("products", core.ViewUpdate{
		Search: strPtr("aurora"),
		Sort:   strPtr("Nope"),
	})
	as.ErrorIs(err, grid.ErrUnknownColumn)

	v, err = svc.View("products")
	require.NoError(t, err)
	as.Equal("", v.Search, "rejected update leaves the view unchanged")
	as.Equal("Stock Level (Low-High)", v.Sort)
}

func TestModalFlows(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	err := svc.OpenModal("home", "delete-column")
	as.ErrorIs(err, grid.ErrNoCustomColumns)

	err = svc.OpenModal("home", "bogus")
	as.ErrorIs(err, core.ErrBadRequest)

	require.NoError(t, svc.OpenModal("home", "add-column"))
	_, err = svc.SubmitAddColumn(ctx, "home", "  ")
	as.ErrorIs(err, grid.ErrInvalidColumnName)

	m, err := svc.Modals("home")
	require.NoError(t, err)
	as.True(m.AddColumnOpen, "modal stays open on error")

	_, err = svc.SubmitAddColumn(ctx, "home", "Width")
	require.NoError(t, err)
	m, err = svc.Modals("home")
	require.NoError(t, err)
	as.False(m.AddColumnOpen)

	require.NoError(t, svc.OpenModal("home", "manage-columns"))
	_, changed, err := svc.SubmitManageColumns(ctx, "home", "Width", "Roll Width")
	require.NoError(t, err)
	as.True(changed)

	require.NoError(t, svc.OpenModal("home", "delete-column"))
	cc, err := svc.SubmitDeleteColumn(ctx, "home", "")
	require.NoError(t, err)
	as.Empty(cc.Label)

	cc, err = svc.SubmitDeleteColumn(ctx, "home", "Roll Width")
	require.NoError(t, err)
	as.Equal("Roll Width", cc.Label)

	m, err = svc.Modals("home")
	require.NoError(t, err)
	as.False(m.DeleteColumnOpen)
}

func TestSubscribe(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	events, cancel, err := svc.Subscribe("products")
	require.NoError(t, err)
	as.Equal(1, svc.SubscriberCount("products"))

	_, err = svc.AddRow(testCtx(t), "products")
	require.NoError(t, err)

	select {
	case ev := <-events:
		as.Equal(core.EventRows, ev.Kind)
		as.Equal("products", ev.Page)
		as.Equal(4, ev.Rows)
		as.NotEmpty(ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	require.NoError(t, svc.SetHidden(testCtx(t), "products", "Colour", true))
	ev := <-events
	as.Equal(core.EventColumns, ev.Kind)

	cancel()
	cancel()
	_, ok := <-events
	as.False(ok)
	as.Equal(0, svc.SubscriberCount("products"))

	_, _, err = svc.Subscribe("rugs")
	as.ErrorIs(err, core.ErrPageNotFound)
}

func TestBannerClearPublishes(t *testing.T) {
	svc := newService(t, core.Options{Grid: grid.Options{MessageTTL: 10 * time.Millisecond}})

	events, cancel, err := svc.Subscribe("home")
	require.NoError(t, err)
	defer cancel()

	_, err = svc.AddRow(testCtx(t), "home")
	require.NoError(t, err)
	<-events

	select {
	case ev := <-events:
		assert.Equal(t, core.EventMessage, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("banner expiry was not published")
	}
}

func TestDashboard(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})

	d := svc.Dashboard()
	as.Equal(3, d.Products)
	as.Equal([]string{"Velvet Touch"}, d.LowStock)
	as.True(d.HasSales)
	as.Equal("11587.5", d.TotalSales.String())
	as.Equal("Carpet 3", d.BestSeller)
	as.Equal("200", d.BestSellerQty.String())
	as.Len(d.Pages, 3)

	a := svc.Analytics()
	as.Len(a.Months, 12)
}

func TestLowStockThresholdOption(t *testing.T) {
	svc := newService(t, core.Options{LowStockThreshold: 15})

	sum, err := svc.Summary("products")
	require.NoError(t, err)
	assert.Equal(t, []string{"Heritage Loop", "Velvet Touch"}, sum.LowStock)
}

func TestReset(t *testing.T) {
	as := assert.New(t)
	svc := newService(t, core.Options{})
	ctx := testCtx(t)

	_, err := svc.AddColumn(ctx, "home", "Width")
	require.NoError(t, err)
	_, err = svc.AddRow(ctx, "home")
	require.NoError(t, err)

	events, cancel, err := svc.Subscribe("home")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, svc.Reset(ctx, "home"))

	set, err := svc.Columns("home")
	require.NoError(t, err)
	as.Empty(set.Custom)

	rows, err := svc.Rows("home")
	require.NoError(t, err)
	as.Len(rows, 3)

	var kinds []core.EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	as.Contains(kinds, core.EventReset)

	entries := svc.GetAuditLog(ctx, core.AuditLogFilter{Action: core.ActionPageReset})
	require.Len(t, entries, 1)
	as.Equal(core.SeverityHigh, entries[0].Severity)
}

type fakeSeeds struct {
	rows []grid.Row
	err  error
}

func (f *fakeSeeds) Has(page string) bool { return page == "products" }

func (f *fakeSeeds) Load(ctx context.Context, page string, schema *grid.Schema) ([]grid.Row, error) {
	return f.rows, f.err
}

func TestSeedSource(t *testing.T) {
	as := assert.New(t)

	svc := newService(t, core.Options{Seeds: &fakeSeeds{rows: []grid.Row{
		{"productName": "From DB", "stockLevel": 2.0},
	}}})
	rows, err := svc.Rows("products")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	as.Equal("From DB", rows[0]["productName"])

	homeRows, err := svc.Rows("home")
	require.NoError(t, err)
	as.Len(homeRows, 3, "pages without a table keep their seed")

	svc = newService(t, core.Options{Seeds: &fakeSeeds{err: errors.New("connection refused")}})
	rows, err = svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 3, "failed load falls back to built-in rows")
}
