package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

// maxJSONSize bounds JSON request bodies.
const maxJSONSize = 1 << 20

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	return nil
}

// confirmed reads the confirm query parameter of delete endpoints.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func pageKey(r *http.Request) string {
	return chi.URLParam(r, "pageKey")
}

// MessageResponse carries the banner message after a change.
type MessageResponse struct {
	Message string `json:"message"`
}

// PageResponse is the full state of one page.
type PageResponse struct {
	core.PageSummary
	View    grid.View       `json:"view"`
	Columns core.ColumnSet  `json:"columns"`
	Modals  grid.ModalState `json:"modals"`
	Edit    *grid.EditForm  `json:"edit,omitempty"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"pages":  s.service.ListPages(),
		"groups": s.service.ListPagesByGroup(),
	})
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Dashboard())
}

func (s *Server) handleAnalyticsJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Analytics())
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.pageParams(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, PageResponse{
		PageSummary: core.PageSummary{Info: p.Info, Summary: p.Summary},
		View:        p.View,
		Columns:     p.Columns,
		Modals:      p.Modals,
		Edit:        p.Edit,
	})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.View(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	var u core.ViewUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.respondError(w, r, err)
		return
	}
	v, err := s.service.UpdateView(pageKey(r), u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleGetRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.Rows(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleGetColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.service.Columns(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, cols)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.service.Summary(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.service.Message(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, MessageResponse{Message: msg})
}

func (s *Server) handleGetModals(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.Modals(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, m)
}

func (s *Server) handleGetEdit(w http.ResponseWriter, r *http.Request) {
	form, open, err := s.service.Editing(pageKey(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := map[string]any{"open": open}
	if open {
		resp["form"] = form
	}
	writeJSON(w, resp)
}

// handleDeletePrompt returns the delete question with the version to send
// back when confirming.
func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	ref, err := rowRef(chi.URLParam(r, "index"), r.URL.Query().Get("version"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.service.DeletePrompt(pageKey(r), ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	key := pageKey(r)
	idx, err := s.service.AddRow(ctx, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	msg, _ := s.service.Message(key)
	writeJSONStatus(w, http.StatusCreated, map[string]any{"storeIndex": idx, "message": msg})
}

// handleDeleteRow deletes a row when called with confirm=true; otherwise
// it reports deleted=false with the prompt that would have been shown and
// its version. A version query parameter that is no longer current is
// rejected with 409.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	key := pageKey(r)
	ref, err := rowRef(chi.URLParam(r, "index"), r.URL.Query().Get("version"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !confirmed(r) {
		c, err := s.service.DeletePrompt(key, ref)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, map[string]any{"deleted": false, "prompt": c.Prompt, "version": c.Version})
		return
	}
	deleted, err := s.service.DeleteRow(ctx, key, ref, true)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	msg, _ := s.service.Message(key)
	writeJSON(w, map[string]any{"deleted": deleted, "message": msg})
}

type columnRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	cc, err := s.service.AddColumn(WithRequestMetadata(r.Context(), r), pageKey(r), req.Label)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, cc)
}

func (s *Server) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	cc, changed, err := s.service.RenameColumn(WithRequestMetadata(r.Context(), r), pageKey(r), labelParam(r), req.Label)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"column": cc, "changed": changed})
}

func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	cc, err := s.service.DeleteColumn(WithRequestMetadata(r.Context(), r), pageKey(r), labelParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, cc)
}

// handleSetHidden sets a column's visibility. A body without "hidden"
// toggles it.
func (s *Server) handleSetHidden(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hidden *bool `json:"hidden"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)
	key, label := pageKey(r), labelParam(r)

	hidden := false
	var err error
	if req.Hidden == nil {
		hidden, err = s.service.ToggleHidden(ctx, key, label)
	} else {
		hidden = *req.Hidden
		err = s.service.SetHidden(ctx, key, label, hidden)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"label": label, "hidden": hidden})
}

type editRequest struct {
	StoreIndex *int              `json:"storeIndex,omitempty"`
	Version    uint64            `json:"version,omitempty"`
	Values     map[string]string `json:"values,omitempty"`
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.StoreIndex == nil {
		s.respondError(w, r, fmt.Errorf("%w: storeIndex is required", core.ErrBadRequest))
		return
	}
	form, err := s.service.StartEdit(pageKey(r), grid.RowRef{Index: *req.StoreIndex, Version: req.Version})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, form)
}

// handleStageEdit stages values in the open form without saving.
func (s *Server) handleStageEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	key := pageKey(r)
	if err := s.service.SetEditValues(key, req.Values); err != nil {
		s.respondError(w, r, err)
		return
	}
	form, open, err := s.service.Editing(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !open {
		s.respondError(w, r, grid.ErrNoEditInProgress)
		return
	}
	writeJSON(w, form)
}

func (s *Server) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	msg, err := s.service.SaveEdit(WithRequestMetadata(r.Context(), r), pageKey(r), req.Values)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, MessageResponse{Message: msg})
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelEdit(pageKey(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEditingRow(w http.ResponseWriter, r *http.Request) {
	key := pageKey(r)
	deleted, err := s.service.DeleteEditingRow(WithRequestMetadata(r.Context(), r), key, confirmed(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	msg, _ := s.service.Message(key)
	writeJSON(w, map[string]any{"deleted": deleted, "message": msg})
}

func (s *Server) handleOpenModal(w http.ResponseWriter, r *http.Request) {
	key := pageKey(r)
	if err := s.service.OpenModal(key, chi.URLParam(r, "modal")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.handleGetModals(w, r)
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	key := pageKey(r)
	if err := s.service.CloseModal(key, chi.URLParam(r, "modal")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.handleGetModals(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(WithRequestMetadata(r.Context(), r), pageKey(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.handleGetView(w, r)
}
