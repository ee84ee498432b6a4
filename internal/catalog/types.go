package catalog

import (
	"github.com/JonMunkholm/carpetgrid/internal/grid"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
)

// PageInfo contains display metadata for a page.
type PageInfo struct {
	Key         string `yaml:"key" json:"key"`     // Unique identifier: "products"
	Group       string `yaml:"group" json:"group"` // Sidebar section: "Inventory", "Sales"
	Label       string `yaml:"label" json:"label"` // Sidebar and title text: "Products"
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Order       int    `yaml:"order,omitempty" json:"order,omitempty"` // Sidebar position
}

// PageDefinition is everything a hosting page supplies to its grid.
type PageDefinition struct {
	Info        PageInfo          `yaml:",inline" json:"info"`
	Columns     []grid.ColumnSpec `yaml:"columns" json:"columns"`
	Seed        []grid.Row        `yaml:"seed" json:"seed"`
	SortOptions []grid.SortOption `yaml:"sortOptions,omitempty" json:"sortOptions,omitempty"`
	Summary     metrics.Spec      `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// Validate checks the definition can build a grid: columns normalize, the
// seed fits, and every sort option resolves.
func (d PageDefinition) Validate() error {
	if d.Info.Key == "" {
		return errMissingKey
	}
	g, err := grid.New(d.Columns, d.Seed, grid.Options{SortOptions: d.SortOptions})
	if err != nil {
		return err
	}
	g.Close()
	return nil
}

// Title returns the label, falling back to the key.
func (i PageInfo) Title() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Key
}
