package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the page size for audit queries without a limit.
const DefaultHistoryLimit = 50

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionRowAdd       AuditAction = "row_add"
	ActionRowEdit      AuditAction = "row_edit"
	ActionRowDelete    AuditAction = "row_delete"
	ActionColumnAdd    AuditAction = "column_add"
	ActionColumnDelete AuditAction = "column_delete"
	ActionColumnRename AuditAction = "column_rename"
	ActionColumnHide   AuditAction = "column_hide"
	ActionColumnShow   AuditAction = "column_show"
	ActionPageReset    AuditAction = "page_reset"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     AuditAction    `json:"action"`
	Severity   AuditSeverity  `json:"severity"`
	PageKey    string         `json:"pageKey"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	RequestID  string         `json:"requestId,omitempty"`
	RowLabel   string         `json:"rowLabel,omitempty"`
	ColumnName string         `json:"columnName,omitempty"`
	OldValue   string         `json:"oldValue,omitempty"`
	NewValue   string         `json:"newValue,omitempty"`
	RowData    map[string]any `json:"rowData,omitempty"`
	Message    string         `json:"message,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
// Request details are taken from the context.
type AuditLogParams struct {
	Action     AuditAction
	PageKey    string
	RowLabel   string
	ColumnName string
	OldValue   string
	NewValue   string
	RowData    map[string]any
	Message    string
}

// AuditLogFilter contains filtering options for querying audit logs.
type AuditLogFilter struct {
	PageKey   string
	Action    AuditAction
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

func (f AuditLogFilter) matches(e *AuditEntry) bool {
	if f.PageKey != "" && e.PageKey != f.PageKey {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.StartTime.IsZero() && e.CreatedAt.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && !e.CreatedAt.Before(f.EndTime) {
		return false
	}
	return true
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionRowDelete, ActionColumnDelete, ActionPageReset:
		return SeverityHigh
	case ActionColumnHide, ActionColumnShow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditLog is a bounded in-memory activity log. The oldest entries are
// dropped once MaxEntries is reached.
type AuditLog struct {
	mu         sync.RWMutex
	entries    []AuditEntry // oldest first
	maxEntries int
	now        func() time.Time
}

// NewAuditLog creates an audit log holding at most maxEntries entries.
func NewAuditLog(maxEntries int, now func() time.Time) *AuditLog {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if now == nil {
		now = time.Now
	}
	return &AuditLog{maxEntries: maxEntries, now: now}
}

// Add records an entry and returns it.
func (l *AuditLog) Add(ctx context.Context, params AuditLogParams) AuditEntry {
	entry := AuditEntry{
		ID:         uuid.NewString(),
		Action:     params.Action,
		Severity:   determineSeverity(params.Action),
		PageKey:    params.PageKey,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		RequestID:  GetRequestIDFromContext(ctx),
		RowLabel:   params.RowLabel,
		ColumnName: params.ColumnName,
		OldValue:   params.OldValue,
		NewValue:   params.NewValue,
		RowData:    params.RowData,
		Message:    params.Message,
		CreatedAt:  l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.maxEntries; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return entry
}

// List returns matching entries, newest first.
func (l *AuditLog) List(filter AuditLogFilter) []AuditEntry {
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AuditEntry, 0, filter.Limit)
	skipped := 0
	for i := len(l.entries) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		e := &l.entries[i]
		if !filter.matches(e) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *e)
	}
	return out
}

// Get returns a single entry by ID.
func (l *AuditLog) Get(id string) (AuditEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return AuditEntry{}, false
}

// Count returns the number of entries matching the filter.
func (l *AuditLog) Count(filter AuditLogFilter) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for i := range l.entries {
		if filter.matches(&l.entries[i]) {
			n++
		}
	}
	return n
}

// Prune removes entries created before cutoff and returns how many were
// removed.
func (l *AuditLog) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	// entries are appended in time order, so the expired ones are a prefix
	n := sort.Search(len(l.entries), func(i int) bool {
		return !l.entries[i].CreatedAt.Before(cutoff)
	})
	if n > 0 {
		l.entries = append(l.entries[:0:0], l.entries[n:]...)
	}
	return n
}

// LogAudit creates a new audit log entry.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) AuditEntry {
	return s.audit.Add(ctx, params)
}

// GetAuditLog retrieves audit log entries with optional filtering.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) []AuditEntry {
	return s.audit.List(filter)
}

// GetAuditLogByID retrieves a single audit log entry by ID.
func (s *Service) GetAuditLogByID(ctx context.Context, id string) (AuditEntry, bool) {
	return s.audit.Get(id)
}

// CountAuditLog returns the total count of audit log entries matching the filter.
func (s *Service) CountAuditLog(ctx context.Context, filter AuditLogFilter) int {
	return s.audit.Count(filter)
}

// ExportLimit caps the number of entries in one export.
const ExportLimit = 10000

// ExportAuditLog writes matching entries as CSV, newest first.
func (s *Service) ExportAuditLog(ctx context.Context, w io.Writer, filter AuditLogFilter) error {
	filter.Limit = ExportLimit
	filter.Offset = 0

	if _, err := io.WriteString(w, "ID,Timestamp,Action,Severity,Page,IP Address,Request ID,Row,Column,Old Value,New Value,Message\n"); err != nil {
		return err
	}
	for _, e := range s.audit.List(filter) {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscapeField(e.ID),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			csvEscapeField(string(e.Action)),
			csvEscapeField(string(e.Severity)),
			csvEscapeField(e.PageKey),
			csvEscapeField(e.IPAddress),
			csvEscapeField(e.RequestID),
			csvEscapeField(e.RowLabel),
			csvEscapeField(e.ColumnName),
			csvEscapeField(e.OldValue),
			csvEscapeField(e.NewValue),
			csvEscapeField(e.Message),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// csvEscapeField escapes a string for CSV output.
func csvEscapeField(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
