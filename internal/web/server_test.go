package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/JonMunkholm/carpetgrid/internal/catalog/pages"
	"github.com/JonMunkholm/carpetgrid/internal/config"
	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

func newTestServer(t *testing.T, configure func(*config.Config), collector *metrics.Collector) (*Server, *core.Service) {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	if configure != nil {
		configure(cfg)
	}

	svc, err := core.NewService(testCtx(t), core.Options{
		Grid:    grid.Options{MessageTTL: time.Minute},
		Metrics: collector,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	s := NewServer(svc, Options{Config: cfg, Metrics: collector})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, svc
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set("Content-Type", "application/json")
	case body != "":
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func form(values map[string]string) string {
	v := url.Values{}
	for k, val := range values {
		v.Set(k, val)
	}
	return v.Encode()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootRedirectsHome(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/pages/home", rec.Header().Get("Location"))
}

func TestHealthAndStatic(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/healthz", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(float64(3), decode[map[string]any](t, rec)["pages"])

	rec = do(s, http.MethodGet, "/static/app.js", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "EventSource")
}

func TestSecurityHeaders(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/products", "")
	as.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
	as.Equal("DENY", rec.Header().Get("X-Frame-Options"))
	as.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'")

	s, _ = newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false }, nil)
	rec = do(s, http.MethodGet, "/pages/products", "")
	as.Empty(rec.Header().Get("Content-Security-Policy"))
}

func TestPageRendersGrid(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/products", "")
	as.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	as.Contains(body, "<h1>Products</h1>")
	as.Contains(body, "Aurora Twist")
	as.Contains(body, "Stock Level (Low-High)")
	as.Contains(body, `data-page="products"`)

	rec = do(s, http.MethodGet, "/pages/home", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "Carpet 1")
}

func TestPageQueryUpdatesView(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/products?q=loop&sort="+url.QueryEscape("Stock Level (Low-High)"), "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "Heritage Loop")
	as.NotContains(rec.Body.String(), "Aurora Twist")

	v, err := svc.View("products")
	require.NoError(t, err)
	as.Equal("loop", v.Search)
	as.Equal(1, v.Matched)

	// The view is kept between requests
	rec = do(s, http.MethodGet, "/pages/products", "")
	as.NotContains(rec.Body.String(), "Aurora Twist")
}

func TestPageRejectsUnknownFilter(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/products?filter=Nope", "")
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
	as.Contains(rec.Body.String(), "alert-error")

	v, err := svc.View("products")
	require.NoError(t, err)
	as.Equal(grid.FilterAll, v.FilterColumn)

	rec = do(s, http.MethodGet, "/pages/products?page=abc", "")
	as.Equal(http.StatusBadRequest, rec.Code)
}

func TestUnknownPage(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/rugs", "")
	as.Equal(http.StatusNotFound, rec.Code)
	as.Contains(rec.Header().Get("Content-Type"), "text/html")
	as.Contains(rec.Body.String(), "Page not found")

	rec = do(s, http.MethodGet, "/api/pages/rugs/view", "")
	as.Equal(http.StatusNotFound, rec.Code)
	as.Equal("PAGE001", decode[ErrorResponse](t, rec).Code)

	rec = do(s, http.MethodPost, "/pages/rugs/rows", "")
	as.Equal(http.StatusNotFound, rec.Code)
}

func TestFormAddRow(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/pages/products/rows", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	as.Equal("/pages/products", rec.Header().Get("Location"))

	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 4)

	entries := svc.GetAuditLog(testCtx(t), core.AuditLogFilter{PageKey: "products"})
	require.Len(t, entries, 1)
	as.Equal(core.ActionRowAdd, entries[0].Action)
	as.Equal("192.0.2.1", entries[0].IPAddress)

	rec = do(s, http.MethodGet, "/pages/products", "")
	as.Contains(rec.Body.String(), "has been added to the table.")
}

func TestFormAddColumn(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/pages/products/modals/add-column/open", "")
	as.Equal(http.StatusSeeOther, rec.Code)

	rec = do(s, http.MethodPost, "/pages/products/columns", form(map[string]string{"name": "Supplier"}))
	as.Equal(http.StatusConflict, rec.Code)
	as.Contains(rec.Body.String(), "This column already exists!")

	m, err := svc.Modals("products")
	require.NoError(t, err)
	as.True(m.AddColumnOpen, "modal stays open after a rejected name")
	as.Equal("Supplier", m.NewColumnName)

	rec = do(s, http.MethodPost, "/pages/products/columns", form(map[string]string{"name": "Notes"}))
	as.Equal(http.StatusSeeOther, rec.Code)

	cols, err := svc.Columns("products")
	require.NoError(t, err)
	require.Len(t, cols.Custom, 1)
	as.Equal("Notes", cols.Custom[0].Label)

	rec = do(s, http.MethodPost, "/pages/products/columns/toggle", form(map[string]string{"label": "Notes"}))
	as.Equal(http.StatusSeeOther, rec.Code)
	cols, err = svc.Columns("products")
	require.NoError(t, err)
	as.True(cols.Custom[0].Hidden)

	rec = do(s, http.MethodPost, "/pages/products/modals/manage-columns/open", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	rec = do(s, http.MethodPost, "/pages/products/columns/manage", form(map[string]string{"selection": "Notes", "value": "Comments"}))
	as.Equal(http.StatusSeeOther, rec.Code)

	rec = do(s, http.MethodPost, "/pages/products/modals/delete-column/open", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	rec = do(s, http.MethodPost, "/pages/products/columns/delete", form(map[string]string{"column": "Comments"}))
	as.Equal(http.StatusSeeOther, rec.Code)

	cols, err = svc.Columns("products")
	require.NoError(t, err)
	as.Empty(cols.Custom)
}

func TestFormModalErrors(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/pages/products/modals/bogus/open", "")
	as.Equal(http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/pages/products/modals/delete-column/open", "")
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
	as.Contains(rec.Body.String(), "There are no custom columns to delete.")
}

func TestFormEditFlow(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/pages/products/rows/0/edit", "")
	as.Equal(http.StatusSeeOther, rec.Code)

	rec = do(s, http.MethodGet, "/pages/products", "")
	as.Contains(rec.Body.String(), `name="f.Stock Level"`)

	rec = do(s, http.MethodPost, "/pages/products/edit", form(map[string]string{"f.Stock Level": "abc"}))
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
	as.Contains(rec.Body.String(), "Please enter a valid number for Stock Level.")

	rec = do(s, http.MethodPost, "/pages/products/edit", form(map[string]string{"f.Stock Level": "30"}))
	as.Equal(http.StatusSeeOther, rec.Code)

	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Equal(30.0, grid.ToNumber(rows[0]["stockLevel"]))

	_, open, err := svc.Editing("products")
	require.NoError(t, err)
	as.False(open)

	rec = do(s, http.MethodPost, "/pages/products/rows/1/edit", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	rec = do(s, http.MethodPost, "/pages/products/edit/cancel", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	_, open, err = svc.Editing("products")
	require.NoError(t, err)
	as.False(open)

	rec = do(s, http.MethodPost, "/pages/products/rows/99/edit", "")
	as.Equal(http.StatusNotFound, rec.Code)
}

func TestFormDeleteRow(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/pages/products?delete=0", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "Are you sure you want to delete")

	// Without confirmation nothing is removed
	rec = do(s, http.MethodPost, "/pages/products/rows/0/delete", "")
	as.Equal(http.StatusSeeOther, rec.Code)
	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 3)

	rec = do(s, http.MethodPost, "/pages/products/rows/0/delete", form(map[string]string{"confirm": "yes"}))
	as.Equal(http.StatusSeeOther, rec.Code)
	rows, err = svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 2)

	rec = do(s, http.MethodGet, "/pages/products?delete=x", "")
	as.Equal(http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/pages/products?delete=0&version=x", "")
	as.Equal(http.StatusBadRequest, rec.Code)
}

func TestFormRowActionsRejectStaleVersion(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	view, err := svc.View("home")
	require.NoError(t, err)
	version := strconv.FormatUint(view.Version, 10)

	rec := do(s, http.MethodGet, "/pages/home?delete=1&version="+version, "")
	as.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	as.Contains(body, "Carpet 2")
	as.Contains(body, `<input type="hidden" name="version" value="`+version+`">`)

	// a second client deletes the first row before the prompt is answered
	rec = do(s, http.MethodDelete, "/api/pages/home/rows/0?confirm=true&version="+version, "")
	as.Equal(http.StatusOK, rec.Code)

	rec = do(s, http.MethodPost, "/pages/home/rows/1/delete", form(map[string]string{"confirm": "yes", "version": version}))
	as.Equal(http.StatusConflict, rec.Code)
	as.Contains(rec.Body.String(), "The table changed since this row was shown.")

	rec = do(s, http.MethodPost, "/pages/home/rows/1/edit", form(map[string]string{"version": version}))
	as.Equal(http.StatusConflict, rec.Code)

	rows, err := svc.Rows("home")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	as.Equal("Carpet 2", rows[0]["name"])
	as.Equal("Carpet 3", rows[1]["name"])

	_, open, err := svc.Editing("home")
	require.NoError(t, err)
	as.False(open)
}

func TestFormReset(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	do(s, http.MethodPost, "/pages/products/rows", "")
	rec := do(s, http.MethodPost, "/pages/products/reset", "")
	as.Equal(http.StatusSeeOther, rec.Code)

	rows, err := svc.Rows("products")
	require.NoError(t, err)
	as.Len(rows, 3)
}

func TestAPIPagesAndDashboard(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/api/pages", "")
	as.Equal(http.StatusOK, rec.Code)
	pages := decode[map[string]json.RawMessage](t, rec)
	as.Contains(pages, "groups")

	rec = do(s, http.MethodGet, "/api/dashboard", "")
	as.Equal(http.StatusOK, rec.Code)
	d := decode[core.Dashboard](t, rec)
	as.Equal(3, d.Products)
	as.Equal([]string{"Velvet Touch"}, d.LowStock)

	rec = do(s, http.MethodGet, "/api/analytics", "")
	as.Equal(http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/pages/products", "")
	as.Equal(http.StatusOK, rec.Code)
	page := decode[PageResponse](t, rec)
	as.Equal("products", page.Info.Key)
	as.Equal(3, page.View.TotalRows)
	as.Nil(page.Edit)
}

func TestAPIView(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/api/pages/products/view", `{"search":"loop"}`)
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(1, decode[grid.View](t, rec).Matched)

	rec = do(s, http.MethodPost, "/api/pages/products/view", `{"sort":"Nope"}`)
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
	as.Equal("COL005", decode[ErrorResponse](t, rec).Code)

	rec = do(s, http.MethodPost, "/api/pages/products/view", `{"bogus":1}`)
	as.Equal(http.StatusBadRequest, rec.Code)
	as.Equal("REQ001", decode[ErrorResponse](t, rec).Code)
}

func TestAPIRows(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/api/pages/products/rows", "")
	as.Equal(http.StatusCreated, rec.Code)
	added := decode[map[string]any](t, rec)
	as.Equal(float64(3), added["storeIndex"])
	as.Equal(`"New Product" has been added to the table.`, added["message"])

	rec = do(s, http.MethodGet, "/api/pages/products/rows", "")
	as.Len(decode[[]grid.Row](t, rec), 4)

	rec = do(s, http.MethodDelete, "/api/pages/products/rows/0", "")
	as.Equal(http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	as.Equal(false, res["deleted"])
	as.Equal(`Are you sure you want to delete "Aurora Twist"?`, res["prompt"])

	rec = do(s, http.MethodDelete, "/api/pages/products/rows/0?confirm=true", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(true, decode[map[string]any](t, rec)["deleted"])

	rec = do(s, http.MethodGet, "/api/pages/products/rows/9/delete-prompt", "")
	as.Equal(http.StatusNotFound, rec.Code)
	as.Equal("ROW002", decode[ErrorResponse](t, rec).Code)
}

func TestAPIDeleteRowWithStaleVersion(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/api/pages/home/rows/1/delete-prompt", "")
	as.Equal(http.StatusOK, rec.Code)
	prompt := decode[grid.DeleteConfirmation](t, rec)
	as.Equal(1, prompt.Index)
	as.NotZero(prompt.Version)
	version := strconv.FormatUint(prompt.Version, 10)

	rec = do(s, http.MethodPost, "/api/pages/home/rows", "")
	as.Equal(http.StatusCreated, rec.Code)

	rec = do(s, http.MethodDelete, "/api/pages/home/rows/1?confirm=true&version="+version, "")
	as.Equal(http.StatusConflict, rec.Code)
	as.Equal("ROW003", decode[ErrorResponse](t, rec).Code)

	rec = do(s, http.MethodPost, "/api/pages/home/edit", `{"storeIndex":1,"version":`+version+`}`)
	as.Equal(http.StatusConflict, rec.Code)

	rec = do(s, http.MethodGet, "/api/pages/home/view", "")
	as.NotEqual(prompt.Version, decode[grid.View](t, rec).Version)
}

func TestAPIColumns(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/api/pages/products/columns", `{"label":"Notes"}`)
	as.Equal(http.StatusCreated, rec.Code)
	as.Equal("Notes", decode[grid.CustomColumn](t, rec).Label)

	rec = do(s, http.MethodPost, "/api/pages/products/columns", `{"label":""}`)
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
	as.Equal("COL001", decode[ErrorResponse](t, rec).Code)

	rec = do(s, http.MethodPut, "/api/pages/products/columns/Notes", `{"label":"Shop Notes"}`)
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(true, decode[map[string]any](t, rec)["changed"])

	rec = do(s, http.MethodPut, "/api/pages/products/columns/Shop%20Notes/hidden", `{"hidden":true}`)
	as.Equal(http.StatusOK, rec.Code)
	hidden := decode[map[string]any](t, rec)
	as.Equal("Shop Notes", hidden["label"])
	as.Equal(true, hidden["hidden"])

	// No body toggles
	rec = do(s, http.MethodPut, "/api/pages/products/columns/Supplier/hidden", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(true, decode[map[string]any](t, rec)["hidden"])

	rec = do(s, http.MethodGet, "/api/pages/products/columns", "")
	cols := decode[core.ColumnSet](t, rec)
	require.Len(t, cols.Custom, 1)
	as.True(cols.Custom[0].Hidden)

	rec = do(s, http.MethodDelete, "/api/pages/products/columns/Shop%20Notes", "")
	as.Equal(http.StatusOK, rec.Code)

	rec = do(s, http.MethodDelete, "/api/pages/products/columns/Shop%20Notes", "")
	as.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func TestAPIEdit(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/api/pages/products/edit/save", `{}`)
	as.Equal(http.StatusConflict, rec.Code)
	as.Equal("EDT001", decode[ErrorResponse](t, rec).Code)

	rec = do(s, http.MethodPost, "/api/pages/products/edit", `{}`)
	as.Equal(http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/api/pages/products/edit", `{"storeIndex":1}`)
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(1, decode[grid.EditForm](t, rec).StoreIndex)

	rec = do(s, http.MethodPut, "/api/pages/products/edit", `{"values":{"Stock Level":"5"}}`)
	as.Equal(http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/pages/products/edit", "")
	as.Equal(true, decode[map[string]any](t, rec)["open"])

	rec = do(s, http.MethodPost, "/api/pages/products/edit/save", `{}`)
	as.Equal(http.StatusOK, rec.Code)
	as.NotEmpty(decode[MessageResponse](t, rec).Message)

	rec = do(s, http.MethodGet, "/api/pages/products/summary", "")
	as.Equal([]string{"Heritage Loop", "Velvet Touch"}, decode[metrics.Summary](t, rec).LowStock)

	rec = do(s, http.MethodPost, "/api/pages/products/edit", `{"storeIndex":2}`)
	as.Equal(http.StatusOK, rec.Code)
	rec = do(s, http.MethodPost, "/api/pages/products/edit/delete?confirm=true", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(true, decode[map[string]any](t, rec)["deleted"])

	rec = do(s, http.MethodDelete, "/api/pages/products/edit", "")
	as.Equal(http.StatusNoContent, rec.Code)
}

func TestAPIModals(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodPost, "/api/pages/products/modals/manage-columns", "")
	as.Equal(http.StatusOK, rec.Code)
	as.True(decode[grid.ModalState](t, rec).ManageColumnsOpen)

	rec = do(s, http.MethodDelete, "/api/pages/products/modals/manage-columns", "")
	as.Equal(http.StatusOK, rec.Code)
	as.False(decode[grid.ModalState](t, rec).ManageColumnsOpen)

	rec = do(s, http.MethodPost, "/api/pages/products/modals/nope", "")
	as.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPIReset(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, nil, nil)

	do(s, http.MethodPost, "/api/pages/products/columns", `{"label":"Notes"}`)
	rec := do(s, http.MethodPost, "/api/pages/products/reset", "")
	as.Equal(http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/pages/products/columns", "")
	as.Empty(decode[core.ColumnSet](t, rec).Custom)
}

func TestAuditLogEndpoints(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)

	do(s, http.MethodPost, "/api/pages/products/rows", "")
	do(s, http.MethodPost, "/api/pages/sales/columns", `{"label":"Notes"}`)

	rec := do(s, http.MethodGet, "/api/audit-log", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(float64(2), decode[map[string]any](t, rec)["totalCount"])

	rec = do(s, http.MethodGet, "/api/audit-log?page_key=sales", "")
	as.Equal(float64(1), decode[map[string]any](t, rec)["totalCount"])

	today := time.Now().UTC().Format(time.DateOnly)
	rec = do(s, http.MethodGet, "/api/audit-log?from="+today+"&to="+today, "")
	as.Equal(float64(2), decode[map[string]any](t, rec)["totalCount"])

	entries := svc.GetAuditLog(testCtx(t), core.AuditLogFilter{})
	require.Len(t, entries, 2)
	rec = do(s, http.MethodGet, "/api/audit-log/"+entries[0].ID, "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal(core.ActionColumnAdd, decode[core.AuditEntry](t, rec).Action)

	rec = do(s, http.MethodGet, "/api/audit-log/missing", "")
	as.Equal(http.StatusNotFound, rec.Code)

	rec = do(s, http.MethodGet, "/api/audit-log/export", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Equal("text/csv", rec.Header().Get("Content-Type"))
	as.Contains(rec.Header().Get("Content-Disposition"), "audit_log_")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	as.Len(lines, 3)
	as.True(strings.HasPrefix(lines[0], "ID,Timestamp,Action"))

	rec = do(s, http.MethodGet, "/audit-log?action=row_add", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "1 entries")
}

func TestAnalyticsPage(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, http.MethodGet, "/analytics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestPageEvents(t *testing.T) {
	as := assert.New(t)
	s, svc := newTestServer(t, nil, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(testCtx(t))
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/pages/products/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	as.Equal(http.StatusOK, resp.StatusCode)
	as.Equal("text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return svc.SubscriberCount("products") == 1 }, time.Second, 5*time.Millisecond)

	_, err = svc.AddRow(testCtx(t), "products")
	require.NoError(t, err)

	scanner := bufio.NewScanner(resp.Body)
	var kind, data string
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			kind = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok && kind != "" {
			data = v
			break
		}
	}
	as.Equal("rows", kind)

	var ev core.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	as.Equal("products", ev.Page)
	as.Equal(4, ev.Rows)
	as.NotEmpty(ev.ID)

	rec := do(s, http.MethodGet, "/api/pages/rugs/events", "")
	as.Equal(http.StatusNotFound, rec.Code)
}

func TestMutationRateLimit(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.MutationLimit = 2
	}, nil)

	as.Equal(http.StatusCreated, do(s, http.MethodPost, "/api/pages/products/rows", "").Code)
	as.Equal(http.StatusCreated, do(s, http.MethodPost, "/api/pages/products/rows", "").Code)

	rec := do(s, http.MethodPost, "/api/pages/products/rows", "")
	as.Equal(http.StatusTooManyRequests, rec.Code)
	as.NotEmpty(rec.Header().Get("Retry-After"))

	// Reads are only held to the general limit
	as.Equal(http.StatusOK, do(s, http.MethodGet, "/api/pages/products/rows", "").Code)
}

func TestRequestMetrics(t *testing.T) {
	as := assert.New(t)
	collector := metrics.NewCollector("test")
	s, _ := newTestServer(t, nil, collector)

	do(s, http.MethodGet, "/healthz", "")
	do(s, http.MethodGet, "/healthz", "")
	do(s, http.MethodGet, "/nowhere", "")

	as.Equal(2.0, testutil.ToFloat64(collector.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
	as.Equal(1.0, testutil.ToFloat64(collector.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	rec := do(s, http.MethodGet, "/metrics", "")
	as.Equal(http.StatusOK, rec.Code)
	as.Contains(rec.Body.String(), "test_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"page", core.ErrPageNotFound, http.StatusNotFound},
		{"row", grid.ErrRowNotFound, http.StatusNotFound},
		{"bad request", core.ErrBadRequest, http.StatusBadRequest},
		{"duplicate", grid.ErrDuplicateColumn, http.StatusConflict},
		{"stale edit", grid.ErrStaleEdit, http.StatusConflict},
		{"rows changed", grid.ErrRowsChanged, http.StatusConflict},
		{"validation", &grid.ValidationError{Field: "Ounce", Err: grid.ErrEmptyNumericField}, http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
