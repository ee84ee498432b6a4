package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

var (
	// ErrPageNotFound is returned for an unregistered page key.
	ErrPageNotFound = errors.New("page not found")

	// ErrBadRequest wraps malformed input from a caller.
	ErrBadRequest = errors.New("bad request")
)

// EventKind identifies what changed on a page.
type EventKind string

const (
	EventRows    EventKind = "rows"    // row set or custom columns changed
	EventColumns EventKind = "columns" // column visibility changed
	EventMessage EventKind = "message" // banner cleared by its timer
	EventReset   EventKind = "reset"   // page rebuilt from its seed
)

// Event is published to page subscribers after a change.
type Event struct {
	ID      string    `json:"id"`
	Page    string    `json:"page"`
	Kind    EventKind `json:"kind"`
	Version uint64    `json:"version"`
	Rows    int       `json:"rows"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// ViewUpdate changes the view state of a page. Nil fields are left alone.
// Fields apply in declaration order; GoToPage runs last.
type ViewUpdate struct {
	Search       *string `json:"search,omitempty"`
	FilterColumn *string `json:"filterColumn,omitempty"`
	Sort         *string `json:"sort,omitempty"`
	Page         *int    `json:"page,omitempty"`
	PageInput    *string `json:"pageInput,omitempty"`
	GoToPage     *string `json:"goToPage,omitempty"`
}

// ColumnInfo describes a fixed or custom column with its visibility.
type ColumnInfo struct {
	Label   string `json:"label"`
	Key     string `json:"key"`
	Header  string `json:"header"`
	Numeric bool   `json:"numeric,omitempty"`
	Derived bool   `json:"derived,omitempty"`
	Custom  bool   `json:"custom,omitempty"`
	Hidden  bool   `json:"hidden"`
}

// ColumnSet lists a page's fixed then custom columns.
type ColumnSet struct {
	Fixed  []ColumnInfo `json:"fixed"`
	Custom []ColumnInfo `json:"custom"`
	Limits grid.Limits  `json:"limits"`
}

// PageSummary pairs page metadata with its row figures.
type PageSummary struct {
	Info    catalog.PageInfo `json:"info"`
	Summary metrics.Summary  `json:"summary"`
}

// Dashboard aggregates every page's figures for the home page cards.
type Dashboard struct {
	Products      int             `json:"products"`
	HasSales      bool            `json:"hasSales"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	LowStock      []string        `json:"lowStock"`
	BestSeller    string          `json:"bestSeller,omitempty"`
	BestSellerQty decimal.Decimal `json:"bestSellerQty"`
	Pages         []PageSummary   `json:"pages"`
}
