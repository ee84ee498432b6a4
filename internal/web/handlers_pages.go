package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/web/templates"
)

// homePage is the page that shows the dashboard cards.
const homePage = "home"

// sidebar builds the navigation for the active page.
func (s *Server) sidebar(active string) templates.SidebarParams {
	return templates.SidebarParams{
		Pages:      s.service.ListPages(),
		ActivePage: active,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.PageInfo(homePage); err == nil {
		http.Redirect(w, r, templates.PagePath(homePage), http.StatusFound)
		return
	}
	pages := s.service.ListPages()
	if len(pages) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no pages registered", core.ErrPageNotFound))
		return
	}
	http.Redirect(w, r, templates.PagePath(pages[0].Key), http.StatusFound)
}

// handlePage renders a grid page. Query parameters q, filter, sort, page
// and goto update the view first; delete=N shows the delete prompt for
// store index N as of row-set version "version".
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "pageKey")
	if _, err := s.service.PageInfo(key); err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	var pageErr error
	if u, err := viewUpdateFromQuery(q); err != nil {
		pageErr = err
	} else if u != (core.ViewUpdate{}) {
		if _, err := s.service.UpdateView(key, u); err != nil {
			if errors.Is(err, core.ErrPageNotFound) {
				s.respondError(w, r, err)
				return
			}
			pageErr = err
		}
	}

	var confirm *grid.DeleteConfirmation
	if raw := q.Get("delete"); raw != "" && pageErr == nil {
		ref, err := rowRef(raw, q.Get("version"))
		if err == nil {
			var c grid.DeleteConfirmation
			c, err = s.service.DeletePrompt(key, ref)
			if err == nil {
				confirm = &c
			}
		}
		pageErr = err
	}

	s.renderPage(w, r, key, pageErr, confirm)
}

// renderPage renders the current state of a page. A non-nil pageErr is
// shown as an alert and sets the status code.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, key string, pageErr error, confirm *grid.DeleteConfirmation) {
	params, err := s.pageParams(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	params.Delete = confirm

	status := http.StatusOK
	if pageErr != nil {
		msg := core.MapError(pageErr)
		params.Error = &msg
		status = statusFor(pageErr)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.GridPage(s.sidebar(key), params).Render(r.Context(), w)
}

func (s *Server) pageParams(key string) (templates.PageParams, error) {
	var p templates.PageParams
	var err error

	if p.Info, err = s.service.PageInfo(key); err != nil {
		return p, err
	}
	if p.View, err = s.service.View(key); err != nil {
		return p, err
	}
	if p.Columns, err = s.service.Columns(key); err != nil {
		return p, err
	}
	if p.Modals, err = s.service.Modals(key); err != nil {
		return p, err
	}
	if p.Summary, err = s.service.Summary(key); err != nil {
		return p, err
	}
	form, open, err := s.service.Editing(key)
	if err != nil {
		return p, err
	}
	if open {
		p.Edit = &form
	}
	if key == homePage {
		d := s.service.Dashboard()
		p.Dashboard = &d
	}
	return p, nil
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.AnalyticsPage(s.sidebar(templates.NavAnalytics), s.service.Analytics()).Render(r.Context(), w)
}

// viewUpdateFromQuery maps the page query string onto a view update.
// Absent parameters leave the view alone.
func viewUpdateFromQuery(q url.Values) (core.ViewUpdate, error) {
	var u core.ViewUpdate
	if q.Has("q") {
		v := q.Get("q")
		u.Search = &v
	}
	if q.Has("filter") {
		v := q.Get("filter")
		u.FilterColumn = &v
	}
	if q.Has("sort") {
		v := q.Get("sort")
		u.Sort = &v
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return core.ViewUpdate{}, fmt.Errorf("%w: page %q", core.ErrBadRequest, raw)
		}
		u.Page = &n
	}
	if q.Has("goto") {
		v := q.Get("goto")
		u.PageInput = &v
		u.GoToPage = &v
	}
	return u, nil
}

// parseIndex parses a store index from a path or form value.
func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: invalid row index %q", core.ErrBadRequest, raw)
	}
	return n, nil
}

// parseVersion parses a row-set version. Empty means unpinned.
func parseVersion(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid version %q", core.ErrBadRequest, raw)
	}
	return v, nil
}

// rowRef parses a store index and the version it was read at.
func rowRef(index, version string) (grid.RowRef, error) {
	idx, err := parseIndex(index)
	if err != nil {
		return grid.RowRef{}, err
	}
	v, err := parseVersion(version)
	if err != nil {
		return grid.RowRef{}, err
	}
	return grid.RowRef{Index: idx, Version: v}, nil
}

// labelParam returns a column label from the URL, undoing path escaping
// when the router matched on the raw path.
func labelParam(r *http.Request) string {
	raw := chi.URLParam(r, "label")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
