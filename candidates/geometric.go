package candidates

import (
	"context"
	"sort"

	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

// GeometricConfig controls the built-in geometric candidate engine
type GeometricConfig struct {
	// AlignmentTolerance is the normalized X distance within which token
	// left edges are considered the same column start
	AlignmentTolerance float64

	// ClusterGap is the normalized vertical gap that separates two blocks
	// of lines into distinct table candidates
	ClusterGap float64

	// LineTolerance is the normalized Y proximity for grouping tokens
	// into lines
	LineTolerance float64

	// MinRows and MinCols are the smallest grid worth proposing
	MinRows int
	MinCols int
}

// DefaultGeometricConfig returns the tuned defaults
func DefaultGeometricConfig() GeometricConfig {
	return GeometricConfig{
		AlignmentTolerance: 0.015,
		ClusterGap:         0.05,
		LineTolerance:      region.DefaultLineTolerance,
		MinRows:            2,
		MinCols:            2,
	}
}

// Geometric is the built-in candidate engine. It proposes grids purely from
// token positions: lines become rows and clustered token left edges become
// columns. It exists so the pipeline runs without an external detector; any
// detector implementing [Engine] can replace or accompany it.
type Geometric struct {
	config GeometricConfig
}

// NewGeometric creates a geometric engine with default configuration
func NewGeometric() *Geometric {
	return &Geometric{config: DefaultGeometricConfig()}
}

// NewGeometricWithConfig creates a geometric engine with custom configuration
func NewGeometricWithConfig(cfg GeometricConfig) *Geometric {
	return &Geometric{config: cfg}
}

// Name returns the engine's strategy tag ("geometric")
func (g *Geometric) Name() string {
	return "geometric"
}

// Propose detects table grids from token positions. When roi is non-nil,
// only tokens whose boxes intersect it are considered.
func (g *Geometric) Propose(_ context.Context, page *model.TokenPage, roi *model.BBox) ([]RawGrid, error) {
	tokens := page.Tokens
	source := SourcePage
	if roi != nil {
		source = SourceRegion
		tokens = tokensInside(tokens, *roi)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	lines := region.ClusterLines(tokens, g.config.LineTolerance)

	var grids []RawGrid
	for _, block := range g.splitBlocks(lines) {
		if grid, ok := g.gridFromBlock(block); ok {
			grid.Source = source
			grids = append(grids, grid)
		}
	}
	return grids, nil
}

// splitBlocks cuts the page's lines into contiguous blocks wherever the
// vertical gap between consecutive lines exceeds the cluster gap.
func (g *Geometric) splitBlocks(lines []region.Line) [][]region.Line {
	if len(lines) == 0 {
		return nil
	}
	var blocks [][]region.Line
	current := []region.Line{lines[0]}
	for _, line := range lines[1:] {
		prev := current[len(current)-1]
		if line.BBox.Y0-prev.BBox.Y1 > g.config.ClusterGap {
			blocks = append(blocks, current)
			current = []region.Line{line}
		} else {
			current = append(current, line)
		}
	}
	blocks = append(blocks, current)
	return blocks
}

// gridFromBlock builds a raw grid from one block of lines: each line is a
// row, and column starts come from clustering token left edges.
func (g *Geometric) gridFromBlock(block []region.Line) (RawGrid, bool) {
	if len(block) < g.config.MinRows {
		return RawGrid{}, false
	}

	var lefts []float64
	maxRight := 0.0
	for _, line := range block {
		for _, tok := range line.Tokens {
			lefts = append(lefts, tok.BBox.X0)
			if tok.BBox.X1 > maxRight {
				maxRight = tok.BBox.X1
			}
		}
	}
	sort.Float64s(lefts)
	starts := clusterValues(lefts, g.config.AlignmentTolerance)
	if len(starts) < g.config.MinCols {
		return RawGrid{}, false
	}

	grid := RawGrid{Strategy: g.Name()}
	for _, line := range block {
		row := make([]GridCell, len(starts))
		for col := range row {
			right := maxRight
			if col+1 < len(starts) {
				right = starts[col+1]
			}
			row[col].BBox = model.NewBBox(starts[col], line.BBox.Y0, right, line.BBox.Y1)
		}
		for _, tok := range line.Tokens {
			col := columnFor(starts, tok.BBox.X0, g.config.AlignmentTolerance)
			if row[col].Text != "" {
				row[col].Text += " "
			}
			row[col].Text += tok.Text
		}
		grid.Cells = append(grid.Cells, row)
		if grid.BBox.IsEmpty() {
			grid.BBox = line.BBox
		} else {
			grid.BBox = grid.BBox.Union(line.BBox)
		}
	}
	return grid, true
}

// columnFor returns the index of the last column start at or before x,
// allowing the alignment tolerance for slightly-left tokens.
func columnFor(starts []float64, x, tol float64) int {
	col := 0
	for i, s := range starts {
		if x >= s-tol {
			col = i
		}
	}
	return col
}

// clusterValues merges sorted values lying within tolerance of the running
// cluster center, returning one representative per cluster.
func clusterValues(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	clustered := []float64{values[0]}
	for _, v := range values[1:] {
		if v-clustered[len(clustered)-1] > tol {
			clustered = append(clustered, v)
		} else {
			clustered[len(clustered)-1] = (clustered[len(clustered)-1] + v) / 2
		}
	}
	return clustered
}

func tokensInside(tokens []model.Token, box model.BBox) []model.Token {
	var out []model.Token
	for _, tok := range tokens {
		if box.Intersects(tok.BBox) {
			out = append(out, tok)
		}
	}
	return out
}
