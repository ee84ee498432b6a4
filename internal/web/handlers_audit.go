package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/web/templates"
)

const auditPageSize = 50

// auditFilter reads the activity filters from the query string. Dates are
// whole days; the end date is inclusive.
func auditFilter(r *http.Request) (templates.AuditFilter, core.AuditLogFilter) {
	q := r.URL.Query()
	filter := templates.AuditFilter{
		Page:      q.Get("page_key"),
		Action:    q.Get("action"),
		StartDate: q.Get("from"),
		EndDate:   q.Get("to"),
	}

	coreFilter := core.AuditLogFilter{
		PageKey: filter.Page,
		Action:  core.AuditAction(filter.Action),
	}
	if filter.StartDate != "" {
		if t, err := time.Parse(time.DateOnly, filter.StartDate); err == nil {
			coreFilter.StartTime = t
		}
	}
	if filter.EndDate != "" {
		if t, err := time.Parse(time.DateOnly, filter.EndDate); err == nil {
			coreFilter.EndTime = t.Add(24 * time.Hour)
		}
	}
	return filter, coreFilter
}

// parseIntParam reads a positive integer query parameter.
func parseIntParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) auditLogParams(r *http.Request) templates.AuditLogViewParams {
	page := parseIntParam(r, "page", 1)
	filter, coreFilter := auditFilter(r)

	totalCount := s.service.CountAuditLog(r.Context(), coreFilter)
	coreFilter.Limit = auditPageSize
	coreFilter.Offset = (page - 1) * auditPageSize

	pages := make([]string, 0)
	for _, info := range s.service.ListPages() {
		pages = append(pages, info.Key)
	}

	return templates.AuditLogViewParams{
		Entries:    s.service.GetAuditLog(r.Context(), coreFilter),
		TotalCount: totalCount,
		Page:       page,
		PageSize:   auditPageSize,
		TotalPages: (totalCount + auditPageSize - 1) / auditPageSize,
		Filter:     filter,
		Pages:      pages,
	}
}

// handleAuditLog renders the activity page with filtering and pagination.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	params := s.auditLogParams(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") == "true" {
		templates.AuditLogPartial(params).Render(r.Context(), w)
		return
	}
	templates.AuditLogPage(s.sidebar(templates.NavAudit), params).Render(r.Context(), w)
}

func (s *Server) handleAuditLogJSON(w http.ResponseWriter, r *http.Request) {
	params := s.auditLogParams(r)
	writeJSON(w, map[string]any{
		"entries":    params.Entries,
		"totalCount": params.TotalCount,
		"page":       params.Page,
		"pageSize":   params.PageSize,
		"totalPages": params.TotalPages,
	})
}

// handleAuditLogEntry returns a single activity entry.
func (s *Server) handleAuditLogEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := s.service.GetAuditLogByID(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "audit entry not found")
		return
	}
	writeJSON(w, entry)
}

// handleAuditLogExport downloads matching activity entries as CSV.
func (s *Server) handleAuditLogExport(w http.ResponseWriter, r *http.Request) {
	_, filter := auditFilter(r)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("audit_log_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	// Headers are sent with the first write, so errors can only be logged
	if err := s.service.ExportAuditLog(r.Context(), w, filter); err != nil {
		slog.Warn("audit export failed", "error", err)
	}
}
