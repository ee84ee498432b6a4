// Package seed loads initial grid rows from an external source. The only
// source is PostgreSQL; it is read-only and grid edits are never written
// back.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

// ErrNoTable is returned by Load for a page with no configured table.
var ErrNoTable = errors.New("no seed table configured for page")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Querier is the subset of pgxpool.Pool used to read seed rows.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Config configures the Postgres seed source.
type Config struct {
	URL      string
	Tables   map[string]string // page key -> table name
	MaxRows  int
	MaxConns int
	Timeout  time.Duration
}

// Postgres reads seed rows for pages from database tables.
type Postgres struct {
	db      Querier
	pool    *pgxpool.Pool
	tables  map[string]string
	maxRows int
	timeout time.Duration
}

// ParseTables parses "page:table" pairs separated by commas. A bare name
// uses the same value for page and table.
func ParseTables(spec string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		page, table, found := strings.Cut(part, ":")
		if !found {
			table = page
		}
		page, table = strings.TrimSpace(page), strings.TrimSpace(table)
		if page == "" || !identRe.MatchString(table) {
			return nil, fmt.Errorf("invalid seed table %q", part)
		}
		if _, dup := out[page]; dup {
			return nil, fmt.Errorf("duplicate seed table for page %q", page)
		}
		out[page] = table
	}
	return out, nil
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse seed database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect seed database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping seed database: %w", err)
	}

	p := New(pool, cfg)
	p.pool = pool
	return p, nil
}

// New wraps an existing querier.
func New(db Querier, cfg Config) *Postgres {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Postgres{db: db, tables: cfg.Tables, maxRows: cfg.MaxRows, timeout: timeout}
}

// Close releases the pool opened by Connect.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Has reports whether a table is configured for the page.
func (p *Postgres) Has(page string) bool {
	_, ok := p.tables[page]
	return ok
}

// Load reads every row of the page's table. Database column names are
// matched to grid keys first exactly and then through grid.ToKey, so
// stock_level fills stockLevel. Unmatched columns are kept under their own
// name.
func (p *Postgres) Load(ctx context.Context, page string, schema *grid.Schema) ([]grid.Row, error) {
	table, ok := p.tables[page]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, page)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := "SELECT * FROM " + pgx.Identifier(strings.Split(table, ".")).Sanitize()
	if p.maxRows > 0 {
		query += fmt.Sprintf(" LIMIT %d", p.maxRows)
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = columnKey(schema, f.Name)
	}

	var out []grid.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		r := make(grid.Row, len(values))
		for i, v := range values {
			r[keys[i]] = Convert(v)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	slog.Info("seed rows loaded", "page", page, "table", table, "rows", len(out))
	if out == nil {
		out = []grid.Row{}
	}
	return out, nil
}

func columnKey(schema *grid.Schema, name string) string {
	if schema == nil {
		return name
	}
	if _, ok := schema.ByKey(name); ok {
		return name
	}
	if k := grid.ToKey(name); k != "" {
		if _, ok := schema.ByKey(k); ok {
			return k
		}
	}
	return name
}

// Convert turns a value decoded by pgx into a grid scalar: numbers become
// float64, dates become ISO strings, booleans "Yes" or "No", NULL nil.
func Convert(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		if !val.Valid || val.NaN {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Text:
		if !val.Valid {
			return nil
		}
		return val.String
	case pgtype.Date:
		if !val.Valid {
			return nil
		}
		return val.Time.Format("2006-01-02")
	case pgtype.Bool:
		if !val.Valid {
			return nil
		}
		return yesNo(val.Bool)
	case bool:
		return yesNo(val)
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format("2006-01-02")
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case string:
		return val
	}

	n := grid.NormalizeValue(v)
	switch n.(type) {
	case float64, string:
		return n
	}
	return fmt.Sprint(v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
