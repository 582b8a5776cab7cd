package candidates

import (
	"context"
	"testing"

	"github.com/tablekit/itemfix/model"
)

func tok(text string, x0, y0, x1, y1 float64) model.Token {
	return model.Token{Page: 1, Text: text, BBox: model.NewBBox(x0, y0, x1, y1)}
}

func gridPage() *model.TokenPage {
	return &model.TokenPage{
		Info: model.PageInfo{Page: 1, Width: 612, Height: 792},
		Tokens: []model.Token{
			// Header row
			tok("Description", 0.10, 0.20, 0.25, 0.22),
			tok("Qty", 0.50, 0.20, 0.56, 0.22),
			tok("Amount", 0.78, 0.20, 0.88, 0.22),
			// Data rows
			tok("Widget", 0.10, 0.25, 0.22, 0.27),
			tok("10", 0.50, 0.25, 0.56, 0.27),
			tok("1,000.00", 0.78, 0.25, 0.88, 0.27),
			tok("Gadget", 0.10, 0.30, 0.20, 0.32),
			tok("2", 0.50, 0.30, 0.56, 0.32),
			tok("500.00", 0.78, 0.30, 0.88, 0.32),
		},
	}
}

func TestGeometric_Name(t *testing.T) {
	if name := NewGeometric().Name(); name != "geometric" {
		t.Errorf("Name() = %q, want geometric", name)
	}
}

func TestGeometric_ProposeGrid(t *testing.T) {
	g := NewGeometric()

	grids, err := g.Propose(context.Background(), gridPage(), nil)
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	if len(grids) != 1 {
		t.Fatalf("Propose() returned %d grids, want 1", len(grids))
	}

	grid := grids[0]
	if grid.Source != SourcePage {
		t.Errorf("Source = %q, want %q", grid.Source, SourcePage)
	}
	if len(grid.Cells) != 3 {
		t.Fatalf("grid has %d rows, want 3", len(grid.Cells))
	}
	if len(grid.Cells[0]) != 3 {
		t.Fatalf("grid has %d columns, want 3", len(grid.Cells[0]))
	}
	if grid.Cells[0][1].Text != "Qty" {
		t.Errorf("header cell (0,1) = %q, want Qty", grid.Cells[0][1].Text)
	}
	if grid.Cells[1][2].Text != "1,000.00" {
		t.Errorf("cell (1,2) = %q, want 1,000.00", grid.Cells[1][2].Text)
	}
}

func TestGeometric_ProposeWithROI(t *testing.T) {
	g := NewGeometric()
	page := gridPage()
	// Extra token far below; excluded by the region
	page.Tokens = append(page.Tokens, tok("Footer", 0.1, 0.9, 0.3, 0.92))

	roi := model.NewBBox(0, 0.18, 1, 0.40)
	grids, err := g.Propose(context.Background(), page, &roi)
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	if len(grids) != 1 {
		t.Fatalf("Propose() returned %d grids, want 1", len(grids))
	}
	if grids[0].Source != SourceRegion {
		t.Errorf("Source = %q, want %q", grids[0].Source, SourceRegion)
	}
	if len(grids[0].Cells) != 3 {
		t.Errorf("region grid has %d rows, want 3", len(grids[0].Cells))
	}
}

func TestGeometric_TooFewTokens(t *testing.T) {
	g := NewGeometric()
	page := &model.TokenPage{
		Info: model.PageInfo{Page: 1, Width: 612, Height: 792},
		Tokens: []model.Token{
			tok("only", 0.1, 0.1, 0.2, 0.12),
			tok("line", 0.3, 0.1, 0.4, 0.12),
		},
	}
	grids, err := g.Propose(context.Background(), page, nil)
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	if len(grids) != 0 {
		t.Errorf("Propose() returned %d grids from a single line, want 0", len(grids))
	}
}

func TestGeometric_BlocksSplitOnGap(t *testing.T) {
	g := NewGeometric()
	page := gridPage()
	// A second aligned block far below the first
	page.Tokens = append(page.Tokens,
		tok("Alpha", 0.10, 0.60, 0.20, 0.62),
		tok("1", 0.50, 0.60, 0.52, 0.62),
		tok("Beta", 0.10, 0.65, 0.20, 0.67),
		tok("2", 0.50, 0.65, 0.52, 0.67),
	)

	grids, err := g.Propose(context.Background(), page, nil)
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	if len(grids) != 2 {
		t.Errorf("Propose() returned %d grids, want 2 separate blocks", len(grids))
	}
}

func TestClusterValues(t *testing.T) {
	got := clusterValues([]float64{0.10, 0.105, 0.50, 0.51, 0.80}, 0.02)
	if len(got) != 3 {
		t.Fatalf("clusterValues() produced %d clusters, want 3", len(got))
	}
}

func TestColumnFor(t *testing.T) {
	starts := []float64{0.1, 0.5, 0.8}
	if col := columnFor(starts, 0.52, 0.015); col != 1 {
		t.Errorf("columnFor(0.52) = %d, want 1", col)
	}
	if col := columnFor(starts, 0.79, 0.015); col != 2 {
		t.Errorf("columnFor(0.79) = %d, want 2 (within tolerance)", col)
	}
	if col := columnFor(starts, 0.05, 0.015); col != 0 {
		t.Errorf("columnFor(0.05) = %d, want 0", col)
	}
}
