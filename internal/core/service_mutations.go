package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/logging"
)

// Mutation operation names used in metrics and logs.
const (
	OpAddRow        = "add_row"
	OpEditRow       = "edit_row"
	OpDeleteRow     = "delete_row"
	OpAddColumn     = "add_column"
	OpDeleteColumn  = "delete_column"
	OpRenameColumn  = "rename_column"
	OpHideColumn    = "hide_column"
	OpResetPage     = "reset_page"
	statusOK        = "ok"
	statusUnchanged = "noop"
)

// mutate runs fn with the page locked, then records the outcome. fn returns
// nil params when nothing changed.
func (s *Service) mutate(ctx context.Context, key, op string, fn func(p *page) (*AuditLogParams, error)) error {
	p, err := s.page(key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	params, err := fn(p)
	p.mu.Unlock()

	log := logging.WithFields(ctx, "page", key, "operation", op)
	if err != nil {
		code := MapError(err).Code
		s.metrics.RecordMutation(key, op, code)
		log.Warn("grid mutation rejected", "code", code, "error", err)
		return err
	}
	if params == nil {
		s.metrics.RecordMutation(key, op, statusUnchanged)
		return nil
	}

	s.metrics.RecordMutation(key, op, statusOK)
	params.PageKey = key
	s.LogAudit(ctx, *params)
	log.Info("grid mutation applied", "action", params.Action)
	return nil
}

// AddRow appends a defaulted row and returns its store index.
func (s *Service) AddRow(ctx context.Context, key string) (int, error) {
	idx := -1
	err := s.mutate(ctx, key, OpAddRow, func(p *page) (*AuditLogParams, error) {
		i, err := p.grid.AddRow()
		if err != nil {
			return nil, err
		}
		idx = i
		return &AuditLogParams{
			Action:  ActionRowAdd,
			RowData: p.rows[i],
			Message: p.grid.Message(),
		}, nil
	})
	return idx, err
}

// AddColumn adds a custom column.
func (s *Service) AddColumn(ctx context.Context, key, label string) (grid.CustomColumn, error) {
	var cc grid.CustomColumn
	err := s.mutate(ctx, key, OpAddColumn, func(p *page) (*AuditLogParams, error) {
		var err error
		if cc, err = p.grid.AddCustomColumn(label); err != nil {
			return nil, err
		}
		return columnAudit(ActionColumnAdd, cc, p), nil
	})
	return cc, err
}

// DeleteColumn removes a custom column and its values from every row.
func (s *Service) DeleteColumn(ctx context.Context, key, label string) (grid.CustomColumn, error) {
	var cc grid.CustomColumn
	err := s.mutate(ctx, key, OpDeleteColumn, func(p *page) (*AuditLogParams, error) {
		var err error
		if cc, err = p.grid.DeleteCustomColumn(label); err != nil {
			return nil, err
		}
		return columnAudit(ActionColumnDelete, cc, p), nil
	})
	return cc, err
}

// RenameColumn renames a custom column. The bool is false when nothing
// changed.
func (s *Service) RenameColumn(ctx context.Context, key, oldLabel, newLabel string) (grid.CustomColumn, bool, error) {
	var (
		cc      grid.CustomColumn
		changed bool
	)
	err := s.mutate(ctx, key, OpRenameColumn, func(p *page) (*AuditLogParams, error) {
		var err error
		cc, changed, err = p.grid.RenameCustomColumn(oldLabel, newLabel)
		if err != nil || !changed {
			return nil, err
		}
		params := columnAudit(ActionColumnRename, cc, p)
		params.OldValue = oldLabel
		params.NewValue = cc.Label
		return params, nil
	})
	return cc, changed, err
}

func columnAudit(action AuditAction, cc grid.CustomColumn, p *page) *AuditLogParams {
	return &AuditLogParams{
		Action:     action,
		ColumnName: cc.Label,
		Message:    p.grid.Message(),
	}
}

// SetHidden hides or shows a fixed or custom column.
func (s *Service) SetHidden(ctx context.Context, key, label string, hidden bool) error {
	return s.mutate(ctx, key, OpHideColumn, func(p *page) (*AuditLogParams, error) {
		was := p.grid.IsHidden(label)
		if err := p.grid.SetHidden(label, hidden); err != nil {
			return nil, err
		}
		if was == hidden {
			return nil, nil
		}
		return s.visibilityChanged(p, label, hidden), nil
	})
}

// ToggleHidden flips a column's visibility and returns the new state.
func (s *Service) ToggleHidden(ctx context.Context, key, label string) (bool, error) {
	var hidden bool
	err := s.mutate(ctx, key, OpHideColumn, func(p *page) (*AuditLogParams, error) {
		var err error
		if hidden, err = p.grid.ToggleHidden(label); err != nil {
			return nil, err
		}
		return s.visibilityChanged(p, label, hidden), nil
	})
	return hidden, err
}

func (s *Service) visibilityChanged(p *page, label string, hidden bool) *AuditLogParams {
	p.publish(Event{
		Page:    p.def.Info.Key,
		Kind:    EventColumns,
		Version: p.grid.Version(),
		Rows:    len(p.rows),
	})
	action := ActionColumnShow
	if hidden {
		action = ActionColumnHide
	}
	return &AuditLogParams{Action: action, ColumnName: label}
}

// StartEdit opens the edit form for the row ref points at. A ref with a
// version fails with grid.ErrRowsChanged once the rows have moved on.
func (s *Service) StartEdit(key string, ref grid.RowRef) (grid.EditForm, error) {
	var form grid.EditForm
	err := s.withPage(key, func(p *page) error {
		var err error
		form, err = p.grid.StartEditRef(ref)
		return err
	})
	return form, err
}

// SetEditValues stages form values by column label.
func (s *Service) SetEditValues(key string, values map[string]string) error {
	return s.withPage(key, func(p *page) error {
		return p.grid.SetEditValues(values)
	})
}

// SaveEdit stages values, if any, and saves the open form. The returned
// string is the confirmation message.
func (s *Service) SaveEdit(ctx context.Context, key string, values map[string]string) (string, error) {
	var msg string
	err := s.mutate(ctx, key, OpEditRow, func(p *page) (*AuditLogParams, error) {
		form, open := p.grid.Editing()
		if !open {
			return nil, grid.ErrNoEditInProgress
		}
		if len(values) > 0 {
			if err := p.grid.SetEditValues(values); err != nil {
				return nil, err
			}
		}
		var before grid.Row
		if form.StoreIndex < len(p.rows) {
			before = p.rows[form.StoreIndex]
		}

		var err error
		if msg, err = p.grid.SaveEdit(); err != nil {
			return nil, err
		}
		params := &AuditLogParams{
			Action:   ActionRowEdit,
			RowLabel: form.RowLabel,
			Message:  msg,
		}
		if form.StoreIndex < len(p.rows) {
			params.RowData = p.rows[form.StoreIndex]
			params.OldValue = rowSummary(before)
			params.NewValue = rowSummary(params.RowData)
		}
		return params, nil
	})
	return msg, err
}

func rowSummary(r grid.Row) string {
	if r == nil {
		return ""
	}
	return fmt.Sprint(map[string]any(r))
}

// CancelEdit closes the edit form without saving.
func (s *Service) CancelEdit(key string) error {
	return s.withPage(key, func(p *page) error {
		p.grid.CancelEdit()
		return nil
	})
}

// DeletePrompt returns the confirmation question for a row, pinned to the
// current row-set version.
func (s *Service) DeletePrompt(key string, ref grid.RowRef) (grid.DeleteConfirmation, error) {
	var c grid.DeleteConfirmation
	err := s.withPage(key, func(p *page) error {
		var err error
		c, err = p.grid.ConfirmDelete(ref)
		return err
	})
	return c, err
}

// DeleteRow deletes the row ref points at when confirmed is true. A
// declined delete returns false and changes nothing. A ref whose version
// is no longer current is rejected with grid.ErrRowsChanged, so a prompt
// answered after other changes never deletes a different row.
func (s *Service) DeleteRow(ctx context.Context, key string, ref grid.RowRef, confirmed bool) (bool, error) {
	var deleted bool
	err := s.mutate(ctx, key, OpDeleteRow, func(p *page) (*AuditLogParams, error) {
		var before grid.Row
		if ref.Index >= 0 && ref.Index < len(p.rows) {
			before = p.rows[ref.Index]
		}
		var err error
		deleted, err = p.grid.DeleteRowRef(ref, confirmer(confirmed))
		if err != nil || !deleted {
			return nil, err
		}
		return rowDeleteAudit(p, before, ref.Index), nil
	})
	return deleted, err
}

// DeleteEditingRow deletes the row of the open edit form when confirmed.
func (s *Service) DeleteEditingRow(ctx context.Context, key string, confirmed bool) (bool, error) {
	var deleted bool
	err := s.mutate(ctx, key, OpDeleteRow, func(p *page) (*AuditLogParams, error) {
		form, open := p.grid.Editing()
		if !open {
			return nil, grid.ErrNoEditInProgress
		}
		var before grid.Row
		if form.StoreIndex < len(p.rows) {
			before = p.rows[form.StoreIndex]
		}
		var err error
		deleted, err = p.grid.DeleteEditingRow(confirmer(confirmed))
		if err != nil || !deleted {
			return nil, err
		}
		return rowDeleteAudit(p, before, form.StoreIndex), nil
	})
	return deleted, err
}

func confirmer(confirmed bool) grid.Confirmer {
	return grid.ConfirmFunc(func(string) bool { return confirmed })
}

func rowDeleteAudit(p *page, before grid.Row, storeIndex int) *AuditLogParams {
	label := "Row " + strconv.Itoa(storeIndex+1)
	if primary, ok := p.grid.Schema().Primary(); ok {
		if v := grid.Stringify(primary.Value(before)); v != "" {
			label = v
		}
	}
	return &AuditLogParams{
		Action:   ActionRowDelete,
		RowLabel: label,
		RowData:  before,
		Message:  p.grid.Message(),
	}
}

// OpenModal shows a modal by name.
func (s *Service) OpenModal(key, name string) error {
	m, err := grid.ParseModal(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.withPage(key, func(p *page) error {
		return p.grid.OpenModal(m)
	})
}

// CloseModal hides a modal by name and resets its inputs.
func (s *Service) CloseModal(key, name string) error {
	m, err := grid.ParseModal(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.withPage(key, func(p *page) error {
		p.grid.CloseModal(m)
		return nil
	})
}

// SubmitAddColumn stages name in the add-column modal and confirms it. On
// error the modal stays open with the name kept.
func (s *Service) SubmitAddColumn(ctx context.Context, key, name string) (grid.CustomColumn, error) {
	var cc grid.CustomColumn
	err := s.mutate(ctx, key, OpAddColumn, func(p *page) (*AuditLogParams, error) {
		p.grid.SetNewColumnName(name)
		var err error
		if cc, err = p.grid.ConfirmAddColumn(); err != nil {
			return nil, err
		}
		return columnAudit(ActionColumnAdd, cc, p), nil
	})
	return cc, err
}

// SubmitDeleteColumn stages label in the delete-column modal and confirms
// it. An empty label leaves the modal open and changes nothing.
func (s *Service) SubmitDeleteColumn(ctx context.Context, key, label string) (grid.CustomColumn, error) {
	var cc grid.CustomColumn
	err := s.mutate(ctx, key, OpDeleteColumn, func(p *page) (*AuditLogParams, error) {
		p.grid.SelectColumnToDelete(label)
		var err error
		if cc, err = p.grid.ConfirmDeleteColumn(); err != nil || cc.Label == "" {
			return nil, err
		}
		return columnAudit(ActionColumnDelete, cc, p), nil
	})
	return cc, err
}

// SubmitManageColumns applies a staged rename and closes the modal. An
// empty selection with an empty value just closes it.
func (s *Service) SubmitManageColumns(ctx context.Context, key, selection, value string) (grid.CustomColumn, bool, error) {
	var (
		cc      grid.CustomColumn
		changed bool
	)
	err := s.mutate(ctx, key, OpRenameColumn, func(p *page) (*AuditLogParams, error) {
		p.grid.SelectRenameColumn(selection)
		p.grid.SetRenameValue(value)
		var err error
		cc, changed, err = p.grid.ConfirmManageColumns()
		if err != nil || !changed {
			return nil, err
		}
		params := columnAudit(ActionColumnRename, cc, p)
		params.OldValue = selection
		params.NewValue = cc.Label
		return params, nil
	})
	return cc, changed, err
}

// Reset rebuilds a page from its seed, dropping custom columns, hidden
// columns and view state.
func (s *Service) Reset(ctx context.Context, key string) error {
	return s.mutate(ctx, key, OpResetPage, func(p *page) (*AuditLogParams, error) {
		before := len(p.rows)
		if err := s.build(ctx, p); err != nil {
			return nil, err
		}
		p.publish(Event{
			Page:    p.def.Info.Key,
			Kind:    EventReset,
			Version: p.grid.Version(),
			Rows:    len(p.rows),
		})
		return &AuditLogParams{
			Action:  ActionPageReset,
			Message: fmt.Sprintf("%d rows replaced by %d seed rows", before, len(p.rows)),
		}, nil
	})
}
