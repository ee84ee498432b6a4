package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/config"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

// SeedSource supplies initial rows for pages that have an external seed.
type SeedSource interface {
	Has(page string) bool
	Load(ctx context.Context, page string, schema *grid.Schema) ([]grid.Row, error)
}

// Options configures a Service.
type Options struct {
	Grid              grid.Options
	LowStockThreshold float64
	AuditMaxEntries   int
	Metrics           *metrics.Collector
	Seeds             SeedSource
	Now               func() time.Time
}

// OptionsFromConfig maps application configuration onto service options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	tag, err := language.Parse(cfg.Grid.Language)
	if err != nil {
		return Options{}, fmt.Errorf("grid language: %w", err)
	}
	return Options{
		Grid: grid.Options{
			Limits: grid.Limits{
				MaxRows:             cfg.Grid.MaxRows,
				MaxCustomColumns:    cfg.Grid.MaxCustomColumns,
				MaxColumnNameLength: cfg.Grid.MaxColumnNameLength,
			},
			PageSize:   cfg.Grid.PageSize,
			MessageTTL: cfg.Grid.MessageTTL,
			Language:   tag,
		},
		LowStockThreshold: cfg.Grid.LowStockThreshold,
		AuditMaxEntries:   cfg.Audit.MaxEntries,
	}, nil
}

// Service owns one grid per registered page. Grids are single-threaded, so
// every access goes through the page's mutex.
type Service struct {
	opts    Options
	metrics *metrics.Collector
	audit   *AuditLog
	now     func() time.Time

	mu    sync.RWMutex
	pages map[string]*page
	order []string
}

type page struct {
	def     catalog.PageDefinition
	summary metrics.Spec

	mu   sync.Mutex
	grid *grid.Grid
	rows []grid.Row // latest copy from OnRowsChange

	listenersMu sync.Mutex
	listeners   map[string]chan Event
}

// NewService builds a grid for every page in the catalog. Pages with an
// external seed load it first; a failed load falls back to the page's own
// seed rows.
func NewService(ctx context.Context, opts Options) (*Service, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Grid.Now == nil {
		opts.Grid.Now = opts.Now
	}

	s := &Service{
		opts:    opts,
		metrics: opts.Metrics,
		audit:   NewAuditLog(opts.AuditMaxEntries, opts.Now),
		now:     opts.Now,
		pages:   make(map[string]*page),
	}

	for _, def := range catalog.All() {
		p := &page{def: def, listeners: make(map[string]chan Event)}
		if err := s.build(ctx, p); err != nil {
			s.Close()
			return nil, fmt.Errorf("page %s: %w", def.Info.Key, err)
		}
		s.pages[def.Info.Key] = p
		s.order = append(s.order, def.Info.Key)
	}

	slog.Info("grid service ready", "pages", len(s.order))
	return s, nil
}

// build creates the page's grid from its definition. Caller holds p.mu or
// owns p exclusively.
func (s *Service) build(ctx context.Context, p *page) error {
	def := p.def
	schema, err := grid.Normalize(def.Columns)
	if err != nil {
		return err
	}

	seed := def.Seed
	if s.opts.Seeds != nil && s.opts.Seeds.Has(def.Info.Key) {
		rows, err := s.opts.Seeds.Load(ctx, def.Info.Key, schema)
		if err != nil {
			slog.Warn("seed load failed, using built-in rows", "page", def.Info.Key, "error", err)
		} else {
			seed = rows
		}
	}

	spec := def.Summary
	if spec.LowStockThreshold <= 0 {
		spec.LowStockThreshold = s.opts.LowStockThreshold
	}
	if primary, ok := schema.Primary(); ok {
		spec = spec.WithFallbackNameKey(primary.Key)
	}
	p.summary = spec

	opts := s.opts.Grid
	opts.SortOptions = def.SortOptions
	opts.OnRowsChange = func(rows []grid.Row) { s.rowsChanged(p, rows) }

	// the seeding notification arrives before p.grid is set
	prev := p.grid
	if prev != nil {
		opts.Version = prev.Version() + 1
	}
	p.grid = nil
	g, err := grid.NewWithSchema(schema, seed, opts)
	if err != nil {
		p.grid = prev
		return err
	}
	g.Banner().OnClear(func() {
		p.publish(Event{Page: def.Info.Key, Kind: EventMessage})
	})

	if prev != nil {
		prev.Close()
	}
	p.grid = g
	return nil
}

// rowsChanged runs inside grid mutations, with p.mu held.
func (s *Service) rowsChanged(p *page, rows []grid.Row) {
	p.rows = rows
	s.metrics.ObserveSummary(p.def.Info.Key, metrics.Summarize(p.summary, rows))

	ev := Event{Page: p.def.Info.Key, Kind: EventRows, Rows: len(rows)}
	if p.grid != nil {
		ev.Version = p.grid.Version()
		ev.Message = p.grid.Message()
	}
	p.publish(ev)
}

func (s *Service) page(key string) (*page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, key)
	}
	return p, nil
}

// withPage runs fn with the page locked.
func (s *Service) withPage(key string, fn func(p *page) error) error {
	p, err := s.page(key)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p)
}

// Subscribe returns a channel of events for a page. The returned function
// unsubscribes and closes the channel.
func (s *Service) Subscribe(key string) (<-chan Event, func(), error) {
	p, err := s.page(key)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.NewString()
	ch := make(chan Event, 16)

	p.listenersMu.Lock()
	p.listeners[id] = ch
	p.listenersMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.listenersMu.Lock()
			defer p.listenersMu.Unlock()
			if c, ok := p.listeners[id]; ok {
				delete(p.listeners, id)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// SubscriberCount returns the number of open subscriptions for a page.
func (s *Service) SubscriberCount(key string) int {
	p, err := s.page(key)
	if err != nil {
		return 0
	}
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	return len(p.listeners)
}

// publish sends ev to every listener without blocking.
func (p *page) publish(ev Event) {
	ev.ID = uuid.NewString()
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	for _, ch := range p.listeners {
		select {
		case ch <- ev:
		default:
			// Listener is slow, skip this update
		}
	}
}

// Close stops banner timers and closes every subscription.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pages {
		p.mu.Lock()
		if p.grid != nil {
			p.grid.Close()
		}
		p.mu.Unlock()

		p.listenersMu.Lock()
		for id, ch := range p.listeners {
			close(ch)
			delete(p.listeners, id)
		}
		p.listenersMu.Unlock()
	}
}
