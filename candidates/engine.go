// Package candidates adapts one or more table-candidate engines: it
// requests raw grids for a page, maps header cells to column families,
// decides where each candidate's body stops, and computes the feature
// vector the ranker scores.
package candidates

import (
	"context"
	"sort"
	"sync"

	"github.com/tablekit/itemfix/model"
)

// Source tags where a raw grid was requested from
const (
	SourceRegion = "region"
	SourcePage   = "page"
)

// GridCell is one rectangular cell of a raw grid
type GridCell struct {
	BBox model.BBox
	Text string
}

// RawGrid is one table proposal from a candidate engine: a rectangular
// arrangement of cells tagged with the extraction strategy that produced it.
type RawGrid struct {
	Strategy string
	Source   string
	Cells    [][]GridCell
	BBox     model.BBox
}

// RowText joins a grid row's cell text for keyword scans
func (g *RawGrid) RowText(row int) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	text := ""
	for _, c := range g.Cells[row] {
		if c.Text == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += c.Text
	}
	return text
}

// RowBBox returns the union box of a grid row
func (g *RawGrid) RowBBox(row int) model.BBox {
	if row < 0 || row >= len(g.Cells) || len(g.Cells[row]) == 0 {
		return model.BBox{}
	}
	box := g.Cells[row][0].BBox
	for _, c := range g.Cells[row][1:] {
		box = box.Union(c.BBox)
	}
	return box
}

// Engine proposes raw table grids for a page. Implementations are external
// table detectors; the builder treats them as black boxes and degrades an
// error from one engine to an empty result for that strategy. roi, when
// non-nil, constrains detection to the items region.
type Engine interface {
	Name() string
	Propose(ctx context.Context, page *model.TokenPage, roi *model.BBox) ([]RawGrid, error)
}

// Registry holds named candidate engines
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty engine registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine under its name
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// Get retrieves an engine by name, or nil
func (r *Registry) Get(name string) Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[name]
}

// List returns all registered engine names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engines returns the registered engines in name order
func (r *Registry) Engines() []Engine {
	var out []Engine
	for _, name := range r.List() {
		out = append(out, r.Get(name))
	}
	return out
}

var defaultRegistry = NewRegistry()

// RegisterEngine registers an engine in the default registry
func RegisterEngine(e Engine) {
	defaultRegistry.Register(e)
}

// DefaultRegistry returns the package-level registry
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func init() {
	RegisterEngine(NewGeometric())
}
