package web

// Form handlers back the HTML page. Each one applies a single change and
// redirects to the page (post/redirect/get). A rejected change re-renders
// the page with the error alert instead, so modal inputs survive.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/web/templates"
)

// maxFormSize bounds form bodies.
const maxFormSize = 64 << 10

// formAction parses the form, runs fn for the page and finishes the
// request.
func (s *Server) formAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, key string) error) {
	key := chi.URLParam(r, "pageKey")

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrBadRequest, err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := fn(ctx, key); err != nil {
		if errors.Is(err, core.ErrPageNotFound) {
			s.respondError(w, r, err)
			return
		}
		s.renderPage(w, r, key, err, nil)
		return
	}
	http.Redirect(w, r, templates.PagePath(key), http.StatusSeeOther)
}

func (s *Server) handleFormAddRow(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, err := s.service.AddRow(ctx, key)
		return err
	})
}

func (s *Server) handleFormStartEdit(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		ref, err := rowRef(chi.URLParam(r, "index"), r.PostForm.Get("version"))
		if err != nil {
			return err
		}
		_, err = s.service.StartEdit(key, ref)
		return err
	})
}

// handleFormDeleteRow deletes a row once the prompt has been confirmed.
// Without confirm=yes nothing is removed; a prompt answered after the rows
// changed is rejected.
func (s *Server) handleFormDeleteRow(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		ref, err := rowRef(chi.URLParam(r, "index"), r.PostForm.Get("version"))
		if err != nil {
			return err
		}
		_, err = s.service.DeleteRow(ctx, key, ref, r.PostForm.Get("confirm") == "yes")
		return err
	})
}

func (s *Server) handleFormSaveEdit(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, err := s.service.SaveEdit(ctx, key, editValues(r))
		return err
	})
}

// editValues collects the prefixed edit inputs keyed by column label.
func editValues(r *http.Request) map[string]string {
	values := make(map[string]string)
	for name, v := range r.PostForm {
		label, ok := strings.CutPrefix(name, templates.EditFieldPrefix)
		if !ok || len(v) == 0 {
			continue
		}
		values[label] = v[0]
	}
	return values
}

func (s *Server) handleFormCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		return s.service.CancelEdit(key)
	})
}

func (s *Server) handleFormOpenModal(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		return s.service.OpenModal(key, chi.URLParam(r, "modal"))
	})
}

func (s *Server) handleFormCloseModal(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		return s.service.CloseModal(key, chi.URLParam(r, "modal"))
	})
}

func (s *Server) handleFormAddColumn(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, err := s.service.SubmitAddColumn(ctx, key, r.PostForm.Get("name"))
		return err
	})
}

func (s *Server) handleFormDeleteColumn(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, err := s.service.SubmitDeleteColumn(ctx, key, r.PostForm.Get("column"))
		return err
	})
}

func (s *Server) handleFormManageColumns(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, _, err := s.service.SubmitManageColumns(ctx, key, r.PostForm.Get("selection"), r.PostForm.Get("value"))
		return err
	})
}

func (s *Server) handleFormToggleColumn(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		_, err := s.service.ToggleHidden(ctx, key, r.PostForm.Get("label"))
		return err
	})
}

func (s *Server) handleFormReset(w http.ResponseWriter, r *http.Request) {
	s.formAction(w, r, func(ctx context.Context, key string) error {
		return s.service.Reset(ctx, key)
	})
}
