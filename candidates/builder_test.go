package candidates

import (
	"context"
	"errors"
	"testing"

	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	cfg := config.Default()
	cfg.HeaderAliases = map[string][]string{
		"DESCRIPTION": {"description"},
		"QTY":         {"qty"},
		"AMOUNT":      {"amount"},
	}
	cfg.TotalsKeywords = []string{"total"}
	cp, err := cfg.Compile()
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return NewBuilder(cfg, cp, []Engine{NewGeometric()}, 0)
}

// makeGrid lays out rows of cell text on a fixed three-column geometry, one
// row every 0.05 starting at y=0.20.
func makeGrid(rows [][]string) RawGrid {
	spans := [][2]float64{{0.10, 0.40}, {0.50, 0.60}, {0.70, 0.90}}
	grid := RawGrid{Strategy: "geometric", Source: SourcePage}
	for i, texts := range rows {
		y0 := 0.20 + 0.05*float64(i)
		row := make([]GridCell, len(texts))
		for col, text := range texts {
			row[col] = GridCell{
				Text: text,
				BBox: model.NewBBox(spans[col][0], y0, spans[col][1], y0+0.02),
			}
		}
		grid.Cells = append(grid.Cells, row)
		if grid.BBox.IsEmpty() {
			grid.BBox = grid.RowBBox(i)
		} else {
			grid.BBox = grid.BBox.Union(grid.RowBBox(i))
		}
	}
	return grid
}

func TestBuilder_HeaderHypothesis(t *testing.T) {
	b := testBuilder(t)
	grid := makeGrid([][]string{
		{"Description", "Qty", "Amount"},
		{"Widget", "10", "1,000.00"},
		{"Gadget", "2", "500.00"},
	})

	c := b.buildCandidate(grid, nil, nil, nil, nil)
	if c == nil {
		t.Fatal("buildCandidate() returned nil")
	}
	if c.HeaderRow != 0 {
		t.Errorf("HeaderRow = %d, want 0", c.HeaderRow)
	}
	if c.Features.HeaderHits != 3 {
		t.Errorf("HeaderHits = %f, want 3", c.Features.HeaderHits)
	}
	if c.Header[1].Family != "QTY" {
		t.Errorf("header col 1 family = %q, want QTY", c.Header[1].Family)
	}
	if c.Stop.Rule != model.StopNumericFallbak {
		t.Errorf("stop rule = %q, want numeric fallback", c.Stop.Rule)
	}
	if got := c.BodyRowCount(); got != 2 {
		t.Errorf("BodyRowCount() = %d, want 2", got)
	}
	if c.Features.NumericRows != 1.0 {
		t.Errorf("NumericRows = %f, want 1.0", c.Features.NumericRows)
	}
}

func TestBuilder_NumericFallbackStopsBeforeNotes(t *testing.T) {
	b := testBuilder(t)
	grid := makeGrid([][]string{
		{"No", "Description", "Amount"},
		{"1", "Widget", "1,000.00"},
		{"2", "Gadget", "500.00"},
		{"3", "Sprocket", "250.00"},
		{"Terms: net 30", "", ""},
	})

	c := b.buildCandidate(grid, nil, nil, nil, nil)
	if c.Stop.Rule != model.StopNumericFallbak {
		t.Errorf("stop rule = %q, want numeric fallback", c.Stop.Rule)
	}
	if c.Stop.StopRow != 4 {
		t.Errorf("StopRow = %d, want 4 (before the Terms row)", c.Stop.StopRow)
	}
	if got := c.BodyRowCount(); got != 3 {
		t.Errorf("BodyRowCount() = %d, want exactly 3 item rows", got)
	}
}

func TestBuilder_EndAnchorBeatsTotalsGuard(t *testing.T) {
	b := testBuilder(t)
	grid := makeGrid([][]string{
		{"Description", "Qty", "Amount"},
		{"Widget", "10", "1,000.00"},
		{"Gadget", "2", "500.00"},
	})

	endY := 0.35
	band := &region.Band{BBox: model.NewBBox(0, 0.195, 1, 0.40), EndAnchorY: &endY}
	segments := []model.Segment{
		{Kind: model.SegmentKindTotals, Page: 1, BBox: model.NewBBox(0, 0.31, 1, 0.33)},
	}

	c := b.buildCandidate(grid, band, segments, nil, nil)
	if c.Stop.Rule != model.StopEndAnchor {
		t.Errorf("stop rule = %q, want end anchor", c.Stop.Rule)
	}
	if c.Stop.StopRow != 3 {
		t.Errorf("StopRow = %d, want 3", c.Stop.StopRow)
	}
	if c.Stop.ClipY == nil || *c.Stop.ClipY != endY {
		t.Errorf("ClipY = %v, want %f", c.Stop.ClipY, endY)
	}
}

func TestBuilder_TotalsGuard(t *testing.T) {
	b := testBuilder(t)
	grid := makeGrid([][]string{
		{"Description", "Qty", "Amount"},
		{"Widget", "10", "1,000.00"},
		{"Gadget", "2", "500.00"},
	})

	segments := []model.Segment{
		{Kind: model.SegmentKindTotals, Page: 1, BBox: model.NewBBox(0, 0.31, 1, 0.33)},
	}

	c := b.buildCandidate(grid, nil, segments, nil, nil)
	if c.Stop.Rule != model.StopTotalsGuard {
		t.Errorf("stop rule = %q, want totals guard", c.Stop.Rule)
	}
	if c.Stop.StopRow != 2 {
		t.Errorf("StopRow = %d, want 2 (clipped at the totals segment)", c.Stop.StopRow)
	}
}

func TestBuilder_ContinuationPage(t *testing.T) {
	b := testBuilder(t)
	grid := makeGrid([][]string{
		{"Widget", "10", "1,000.00"},
		{"Gadget", "2", "500.00"},
	})
	prev := map[int]string{0: "DESCRIPTION", 1: "QTY", 2: "AMOUNT"}

	c := b.buildCandidate(grid, nil, nil, prev, nil)
	if c.HeaderRow != -1 {
		t.Errorf("HeaderRow = %d, want -1 on a continuation page", c.HeaderRow)
	}
	if c.Header[2].Family != "AMOUNT" {
		t.Errorf("header col 2 family = %q, want AMOUNT from the previous page", c.Header[2].Family)
	}
	if got := c.BodyRowCount(); got != 2 {
		t.Errorf("BodyRowCount() = %d, want 2", got)
	}
}

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }
func (failingEngine) Propose(context.Context, *model.TokenPage, *model.BBox) ([]RawGrid, error) {
	return nil, errors.New("engine unavailable")
}

func TestBuilder_EngineFailureDegrades(t *testing.T) {
	cfg := config.Default()
	cfg.HeaderAliases = map[string][]string{"QTY": {"qty"}}
	cfg.TotalsKeywords = []string{"total"}
	cp, err := cfg.Compile()
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	b := NewBuilder(cfg, cp, []Engine{failingEngine{}, NewGeometric()}, 0)

	page := gridPage()
	cands := b.BuildPage(context.Background(), page, nil, nil, nil)
	if len(cands) == 0 {
		t.Fatal("BuildPage() should still produce candidates from the healthy engine")
	}
	for _, c := range cands {
		if c.Strategy == "failing" {
			t.Error("failing engine should contribute no candidates")
		}
	}
}

func TestBuilder_RegionFallbackToFullPage(t *testing.T) {
	b := testBuilder(t)
	page := gridPage()

	// Region far away from any token: constrained detection is empty and
	// the builder retries over the full page.
	band := &region.Band{BBox: model.NewBBox(0, 0.7, 1, 0.8)}
	cands := b.BuildPage(context.Background(), page, band, nil, nil)
	if len(cands) == 0 {
		t.Fatal("BuildPage() should fall back to full-page detection")
	}
	if cands[0].Source != SourcePage {
		t.Errorf("Source = %q, want %q after fallback", cands[0].Source, SourcePage)
	}
}
