package core

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

// ListPages returns information about all pages in display order.
func (s *Service) ListPages() []catalog.PageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]catalog.PageInfo, 0, len(s.order))
	for _, key := range s.order {
		infos = append(infos, s.pages[key].def.Info)
	}
	return infos
}

// ListPagesByGroup returns pages organized by group.
func (s *Service) ListPagesByGroup() map[string][]catalog.PageInfo {
	result := make(map[string][]catalog.PageInfo)
	for _, info := range s.ListPages() {
		result[info.Group] = append(result[info.Group], info)
	}
	return result
}

// PageInfo returns the metadata of one page.
func (s *Service) PageInfo(key string) (catalog.PageInfo, error) {
	p, err := s.page(key)
	if err != nil {
		return catalog.PageInfo{}, err
	}
	return p.def.Info, nil
}

// View returns the current filtered, sorted and paginated view of a page.
func (s *Service) View(key string) (grid.View, error) {
	var v grid.View
	err := s.withPage(key, func(p *page) error {
		v = p.grid.View()
		return nil
	})
	return v, err
}

// UpdateView applies view state changes and returns the resulting view.
// Nothing is applied when a filter or sort value is unknown.
func (s *Service) UpdateView(key string, u ViewUpdate) (grid.View, error) {
	var v grid.View
	err := s.withPage(key, func(p *page) error {
		g := p.grid
		prev := g.State()

		if u.Search != nil {
			g.SetSearch(*u.Search)
		}
		if u.FilterColumn != nil {
			if err := g.SetFilterColumn(*u.FilterColumn); err != nil {
				restoreView(g, prev)
				return err
			}
		}
		if u.Sort != nil {
			if err := g.SetSort(*u.Sort); err != nil {
				restoreView(g, prev)
				return err
			}
		}
		if u.Page != nil {
			g.SetPage(*u.Page)
		}
		if u.PageInput != nil {
			g.SetPageInput(*u.PageInput)
		}
		if u.GoToPage != nil {
			g.GoToPage(*u.GoToPage)
		}
		v = g.View()
		return nil
	})
	return v, err
}

func restoreView(g *grid.Grid, st grid.ViewState) {
	g.SetSearch(st.Search)
	_ = g.SetFilterColumn(st.FilterColumn)
	_ = g.SetSort(st.Sort)
	g.SetPage(st.Page)
	g.SetPageInput(st.PageInput)
}

// Rows returns a copy of every row of a page in store order.
func (s *Service) Rows(key string) ([]grid.Row, error) {
	var rows []grid.Row
	err := s.withPage(key, func(p *page) error {
		rows = grid.CloneRows(p.rows)
		return nil
	})
	return rows, err
}

// Columns lists a page's columns with their visibility.
func (s *Service) Columns(key string) (ColumnSet, error) {
	var set ColumnSet
	err := s.withPage(key, func(p *page) error {
		set = columnSet(p.grid)
		return nil
	})
	return set, err
}

func columnSet(g *grid.Grid) ColumnSet {
	set := ColumnSet{
		Fixed:  make([]ColumnInfo, 0, g.Schema().Len()),
		Custom: []ColumnInfo{},
		Limits: g.Limits(),
	}
	for _, c := range g.Schema().Columns() {
		set.Fixed = append(set.Fixed, ColumnInfo{
			Label:   c.Label,
			Key:     c.Key,
			Header:  c.Header(),
			Numeric: c.Numeric,
			Derived: c.Derived(),
			Hidden:  g.IsHidden(c.Label),
		})
	}
	for _, cc := range g.CustomColumns() {
		set.Custom = append(set.Custom, ColumnInfo{
			Label:  cc.Label,
			Key:    cc.Key,
			Header: cc.Label,
			Custom: true,
			Hidden: g.IsHidden(cc.Label),
		})
	}
	return set
}

// Modals returns the modal state of a page.
func (s *Service) Modals(key string) (grid.ModalState, error) {
	var m grid.ModalState
	err := s.withPage(key, func(p *page) error {
		m = p.grid.Modals()
		return nil
	})
	return m, err
}

// Editing returns the open edit form of a page, if any.
func (s *Service) Editing(key string) (grid.EditForm, bool, error) {
	var (
		form grid.EditForm
		open bool
	)
	err := s.withPage(key, func(p *page) error {
		form, open = p.grid.Editing()
		return nil
	})
	return form, open, err
}

// Message returns the page's current banner text.
func (s *Service) Message(key string) (string, error) {
	var msg string
	err := s.withPage(key, func(p *page) error {
		msg = p.grid.Message()
		return nil
	})
	return msg, err
}

// Summary aggregates a page's rows into its dashboard figures.
func (s *Service) Summary(key string) (metrics.Summary, error) {
	var sum metrics.Summary
	err := s.withPage(key, func(p *page) error {
		sum = metrics.Summarize(p.summary, p.rows)
		return nil
	})
	return sum, err
}

// Dashboard combines every page's figures. Products counts rows of pages
// that track stock; the best seller is the highest quantity across pages.
func (s *Service) Dashboard() Dashboard {
	d := Dashboard{LowStock: []string{}}

	for _, info := range s.ListPages() {
		sum, err := s.Summary(info.Key)
		if err != nil {
			continue
		}
		d.Pages = append(d.Pages, PageSummary{Info: info, Summary: sum})

		if sum.HasStock {
			d.Products += sum.Rows
			d.LowStock = append(d.LowStock, sum.LowStock...)
		}
		if sum.HasTotal {
			d.HasSales = true
			d.TotalSales = d.TotalSales.Add(sum.Total)
		}
		if sum.BestSeller != "" && (d.BestSeller == "" || sum.BestSellerQty.GreaterThan(d.BestSellerQty)) {
			d.BestSeller = sum.BestSeller
			d.BestSellerQty = sum.BestSellerQty
		}
	}
	if d.BestSeller == "" {
		d.BestSellerQty = decimal.Zero
	}
	return d
}

// Analytics returns the monthly sales trend.
func (s *Service) Analytics() metrics.Analytics {
	return metrics.Analyze(metrics.SampleMonthlySales())
}
