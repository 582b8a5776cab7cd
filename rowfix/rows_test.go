package rowfix

import (
	"math"
	"testing"

	"github.com/tablekit/itemfix/model"
)

func testBands() []model.ColumnBand {
	return []model.ColumnBand{
		{Index: 0, Family: "DESCRIPTION", Header: "Description", X0: 0.10, X1: 0.40},
		{Index: 1, Family: "QTY", Header: "Qty", X0: 0.50, X1: 0.56},
		{Index: 2, Family: "AMOUNT", Header: "Amount", X0: 0.70, X1: 0.88},
	}
}

func TestBuildRowBands_NumericAnchors(t *testing.T) {
	f := testFixer(t, nil, nil)
	tableBox := model.NewBBox(0.10, 0.24, 0.88, 0.40)
	tokens := []model.Token{
		tok("Widget", 0.10, 0.25, 0.22, 0.27),
		tok("1,000.00", 0.70, 0.25, 0.88, 0.27),
		tok("Gadget", 0.10, 0.32, 0.20, 0.34),
		tok("500.00", 0.72, 0.32, 0.88, 0.34),
	}

	rows := f.buildRowBands(tokens, tableBox, 0.24, 0.40, 0.009, 0.012)
	if len(rows) != 2 {
		t.Fatalf("buildRowBands() produced %d rows, want 2", len(rows))
	}
	if len(rows[0].Tokens) != 2 || len(rows[1].Tokens) != 2 {
		t.Errorf("token split = %d/%d, want 2/2", len(rows[0].Tokens), len(rows[1].Tokens))
	}
	// Interval boundary is the midpoint between anchor centers
	if math.Abs(rows[0].Y1-0.295) > 1e-9 || math.Abs(rows[1].Y0-0.295) > 1e-9 {
		t.Errorf("anchor boundary = %f/%f, want 0.295", rows[0].Y1, rows[1].Y0)
	}
}

func TestBuildRowBands_FallbackGapClustering(t *testing.T) {
	f := testFixer(t, nil, nil)
	tableBox := model.NewBBox(0.10, 0.24, 0.88, 0.40)
	// No bare numbers in the numeric zone: plain gap clustering applies
	tokens := []model.Token{
		tok("alpha", 0.10, 0.25, 0.20, 0.27),
		tok("beta", 0.25, 0.25, 0.35, 0.27),
		tok("gamma", 0.10, 0.32, 0.20, 0.34),
	}

	rows := f.buildRowBands(tokens, tableBox, 0.24, 0.40, 0.02, 0.012)
	if len(rows) != 2 {
		t.Fatalf("fallback produced %d rows, want 2", len(rows))
	}
	if len(rows[0].Tokens) != 2 {
		t.Errorf("first row has %d tokens, want 2", len(rows[0].Tokens))
	}
}

func TestBuildRowBands_Empty(t *testing.T) {
	f := testFixer(t, nil, nil)
	if rows := f.buildRowBands(nil, model.BBox{}, 0, 1, 0.01, 0.012); rows != nil {
		t.Errorf("buildRowBands(nil) = %v, want nil", rows)
	}
}

func makeRow(index int, y0, y1 float64, cols map[int][]model.Token, hasNumeric bool) model.RowBand {
	var all []model.Token
	for _, toks := range cols {
		all = append(all, toks...)
	}
	return model.RowBand{Index: index, Y0: y0, Y1: y1, Tokens: all, Columns: cols, HasNumeric: hasNumeric}
}

func TestMergeContinuations_WithinGap(t *testing.T) {
	f := testFixer(t, nil, nil)
	bands := testBands()
	gapTol := 0.0177 // 14pt on a 792pt page

	rows := []model.RowBand{
		makeRow(0, 0.25, 0.27, map[int][]model.Token{
			0: {tok("Widget", 0.10, 0.25, 0.22, 0.27)},
			2: {tok("1,000.00", 0.70, 0.25, 0.88, 0.27)},
		}, true),
		// Text-only row 0.01 below: inside 1.2x the gap tolerance
		makeRow(1, 0.28, 0.30, map[int][]model.Token{
			0: {tok("extra detail", 0.10, 0.28, 0.25, 0.30)},
		}, false),
	}

	kept, events := f.mergeContinuations(rows, bands, gapTol)
	if len(kept) != 1 {
		t.Fatalf("%d rows kept, want 1", len(kept))
	}
	if len(kept[0].Columns[0]) != 2 {
		t.Errorf("description column has %d tokens after merge, want 2", len(kept[0].Columns[0]))
	}
	if len(kept[0].MergedRows) != 1 || kept[0].MergedRows[0] != 1 {
		t.Errorf("MergedRows = %v, want [1]", kept[0].MergedRows)
	}
	if len(events) != 1 || events[0].Kind != EventContinuationMerged {
		t.Errorf("events = %v, want one continuation merge", events)
	}
}

func TestMergeContinuations_BeyondGapKept(t *testing.T) {
	f := testFixer(t, nil, nil)
	bands := testBands()
	gapTol := 0.01

	rows := []model.RowBand{
		makeRow(0, 0.25, 0.27, map[int][]model.Token{
			0: {tok("Widget", 0.10, 0.25, 0.22, 0.27)},
		}, true),
		// Gap 0.013 > 1.2 * 0.01: a separate row even without numerics
		makeRow(1, 0.283, 0.30, map[int][]model.Token{
			0: {tok("note text", 0.10, 0.283, 0.25, 0.30)},
		}, false),
	}

	kept, events := f.mergeContinuations(rows, bands, gapTol)
	if len(kept) != 2 {
		t.Fatalf("%d rows kept, want 2", len(kept))
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
}

func TestMergeContinuations_NumericRowNotMerged(t *testing.T) {
	f := testFixer(t, nil, nil)
	bands := testBands()

	rows := []model.RowBand{
		makeRow(0, 0.25, 0.27, map[int][]model.Token{
			0: {tok("Widget", 0.10, 0.25, 0.22, 0.27)},
		}, true),
		makeRow(1, 0.275, 0.29, map[int][]model.Token{
			0: {tok("Gadget", 0.10, 0.275, 0.20, 0.29)},
			2: {tok("500.00", 0.72, 0.275, 0.88, 0.29)},
		}, true),
	}

	kept, _ := f.mergeContinuations(rows, bands, 0.0177)
	if len(kept) != 2 {
		t.Fatalf("%d rows kept, want 2: numeric rows never merge", len(kept))
	}
}

func TestMergeContinuations_RepeatedHeaderDropped(t *testing.T) {
	f := testFixer(t, nil, nil)
	bands := testBands()

	rows := []model.RowBand{
		makeRow(0, 0.25, 0.27, map[int][]model.Token{
			0: {tok("Widget", 0.10, 0.25, 0.22, 0.27)},
			2: {tok("1,000.00", 0.70, 0.25, 0.88, 0.27)},
		}, true),
		// The header reprinted mid-body
		makeRow(1, 0.40, 0.42, map[int][]model.Token{
			0: {tok("Description", 0.10, 0.40, 0.25, 0.42)},
			1: {tok("Qty", 0.50, 0.40, 0.56, 0.42)},
			2: {tok("Amount", 0.70, 0.40, 0.80, 0.42)},
		}, false),
		makeRow(2, 0.45, 0.47, map[int][]model.Token{
			0: {tok("Gadget", 0.10, 0.45, 0.20, 0.47)},
			2: {tok("500.00", 0.72, 0.45, 0.88, 0.47)},
		}, true),
	}

	kept, events := f.mergeContinuations(rows, bands, 0.0177)
	if len(kept) != 2 {
		t.Fatalf("%d rows kept, want 2", len(kept))
	}
	dropped := false
	for _, ev := range events {
		if ev.Kind == EventHeaderDropped {
			dropped = true
		}
	}
	if !dropped {
		t.Error("repeated header row should be dropped with an event")
	}
}

func TestRowSpacingStats(t *testing.T) {
	rows := []model.RowBand{
		{Y0: 0.20, Y1: 0.22},
		{Y0: 0.25, Y1: 0.28},
		{Y0: 0.30, Y1: 0.32},
	}
	height, gap := rowSpacingStats(rows)
	if math.Abs(height-0.02) > 1e-9 {
		t.Errorf("median height = %f, want 0.02", height)
	}
	if math.Abs(gap-0.025) > 1e-9 {
		t.Errorf("median gap = %f, want 0.025", gap)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median(odd) = %f, want 2", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("median(even) = %f, want 2.5", got)
	}
	if got := median(nil); got != 0 {
		t.Errorf("median(nil) = %f, want 0", got)
	}
}
