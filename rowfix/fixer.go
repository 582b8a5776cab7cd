// Package rowfix rebuilds the winning table's column and row bands directly
// from page tokens, merges continuation rows, cleans and splits cell text,
// and cross-checks the result arithmetically. It is a linear multi-pass
// repair pipeline; every pass degrades gracefully and nothing here aborts a
// run.
package rowfix

import (
	"math"

	"github.com/tablekit/itemfix/cache"
	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

// Event kinds recorded while fixing a page
const (
	EventCacheApplied       = "cache_applied"
	EventColumnsRefined     = "columns_refined"
	EventContinuationMerged = "continuation_merged"
	EventHeaderDropped      = "repeated_header_dropped"
	EventPartNumberSplit    = "part_number_split"
	EventFragmentStitched   = "fragment_stitched"
)

// Event is one repair action taken during the fix pass
type Event struct {
	Kind string `json:"kind"`
	Row  int    `json:"row,omitempty"`
}

// DebugBundle carries the before/after cell text dump emitted when the
// debug flag is on.
type DebugBundle struct {
	Before [][]string `json:"before"`
	After  [][]string `json:"after"`
}

// Result is the outcome of fixing one page's table
type Result struct {
	Table       *model.BaseTable
	Columns     []model.ColumnBand
	RowBands    []model.RowBand
	Events      []Event
	Arithmetic  []RowCheck
	Subtotal    SubtotalCheck
	Fingerprint string
	Shadow      bool
	Debug       *DebugBundle
}

// Fixer runs the repair pipeline. The cache store is injected and may be
// nil, which disables template reuse.
type Fixer struct {
	cfg   *config.Config
	cp    *config.Compiled
	store cache.Store
}

// NewFixer creates a fixer from validated config and an optional cache
func NewFixer(cfg *config.Config, cp *config.Compiled, store cache.Store) *Fixer {
	return &Fixer{cfg: cfg, cp: cp, store: store}
}

// Fix repairs the winning table against the page's tokens. In shadow mode
// the full pipeline runs for diagnostics but the original table is
// returned unchanged.
func (f *Fixer) Fix(table *model.BaseTable, page *model.TokenPage) *Result {
	res := &Result{Table: table}

	if page.Info.Width <= 0 || page.Info.Height <= 0 {
		res.Table = &model.BaseTable{Page: page.Info.Page, Strategy: table.Strategy}
		return res
	}
	if !f.cfg.RowFix.Enabled || table.IsEmpty() {
		return res
	}

	// Step 1: column bands, cached spans, overrides
	bands := buildColumns(table)
	if len(bands) == 0 {
		return res
	}
	res.Fingerprint = fingerprintOf(bands)

	halfRow := defaultHalfRow
	if f.store != nil && f.cfg.RowFix.CacheEnabled {
		if entry, ok, err := f.store.Load(res.Fingerprint); err == nil && ok {
			if applyCachedSpans(bands, entry) {
				res.Events = append(res.Events, Event{Kind: EventCacheApplied})
			}
			if entry.MedianRowHeight > 0 {
				halfRow = entry.MedianRowHeight / 2
			}
		}
	}
	f.applyOverrides(bands)

	// Step 2: body vertical extent
	gapTol := page.Info.NormY(f.cfg.RowFix.ContinuationGapPts)
	headerMargin := page.Info.NormY(f.cfg.RowFix.HeaderMarginPts)
	xTol := page.Info.NormX(f.cfg.RowFix.NumericBandTolerancePts)

	bodyTop, bodyBottom := f.bodyExtent(table, headerMargin)
	if bodyBottom <= bodyTop {
		return res
	}

	tableBox := model.NewBBox(bands[0].X0, bodyTop, bands[len(bands)-1].X1, bodyBottom)
	idx := model.NewTokenIndex(page.Tokens)
	const xPad = 0.01
	bodyTokens := idx.SearchCentered(model.NewBBox(
		tableBox.X0-xPad, bodyTop, tableBox.X1+xPad, bodyBottom))

	// Step 3: row bands from numeric anchors
	anchorTol := gapTol / 2
	rows := f.buildRowBands(bodyTokens, tableBox, bodyTop, bodyBottom, anchorTol, halfRow)

	// Step 4: column assignment
	f.assignRowColumns(rows, bands)

	// Step 5: numeric column refinement
	if f.refineNumericColumns(bands, bodyTokens, tableBox, xTol) {
		f.assignRowColumns(rows, bands)
		res.Events = append(res.Events, Event{Kind: EventColumnsRefined})
	}

	// Step 6: continuation merge
	kept, mergeEvents := f.mergeContinuations(rows, bands, gapTol)
	res.Events = append(res.Events, mergeEvents...)

	// Steps 7-9: composition, part-number split, fragment stitching
	fixedRows := make([]fixedRow, len(kept))
	for i, row := range kept {
		fixedRows[i] = f.composeRow(row, bands, region.DefaultLineTolerance)
	}
	for i := range fixedRows {
		if f.splitPartNumber(&fixedRows[i], bands) {
			res.Events = append(res.Events, Event{Kind: EventPartNumberSplit, Row: i})
		}
	}
	res.Events = append(res.Events, f.stitchFragments(fixedRows, bands)...)

	// Steps 10-11: arithmetic and subtotal validation
	checks, sum := f.validateArithmetic(fixedRows, bands)
	res.Arithmetic = checks
	pageLines := region.ClusterLines(page.Tokens, region.DefaultLineTolerance)
	res.Subtotal = f.validateSubtotal(pageLines, sum)

	// Step 12: cache update
	if f.store != nil && f.cfg.RowFix.CacheEnabled {
		height, gap := rowSpacingStats(kept)
		_ = f.store.Save(res.Fingerprint, cache.FromBands(bands, height, gap))
	}

	res.Columns = bands
	res.RowBands = kept

	fixed := f.rebuildTable(table, bands, fixedRows)
	if f.cfg.RowFix.Debug {
		res.Debug = &DebugBundle{Before: cellTextGrid(table), After: cellTextGrid(fixed)}
	}

	// Step 13: shadow mode
	if f.cfg.RowFix.ShadowMode {
		res.Shadow = true
		return res
	}
	res.Table = fixed
	return res
}

// bodyExtent returns the vertical range the body rows may occupy: from the
// header row's bottom (less the header margin slack) to the table's bottom,
// clipped at the stop decision's clip line.
func (f *Fixer) bodyExtent(table *model.BaseTable, headerMargin float64) (float64, float64) {
	top := table.BBox.Y0 - headerMargin
	if table.HeaderRow >= 0 && len(table.Rows) > 0 {
		firstRowTop := math.MaxFloat64
		for _, cell := range table.Rows[0] {
			if !cell.BBox.IsEmpty() && cell.BBox.Y0 < firstRowTop {
				firstRowTop = cell.BBox.Y0
			}
		}
		if firstRowTop < math.MaxFloat64 {
			top = firstRowTop - headerMargin
		}
	}
	bottom := table.BBox.Y1
	if table.ClipY != nil && *table.ClipY < bottom {
		bottom = *table.ClipY
	}
	return top, bottom
}

// rebuildTable assembles the repaired table from the final bands and rows
func (f *Fixer) rebuildTable(orig *model.BaseTable, bands []model.ColumnBand, rows []fixedRow) *model.BaseTable {
	t := &model.BaseTable{
		Page:      orig.Page,
		Strategy:  orig.Strategy,
		HeaderRow: orig.HeaderRow,
		ClipY:     orig.ClipY,
		BBox:      orig.BBox,
	}
	for _, b := range bands {
		t.Header = append(t.Header, model.HeaderCell{Col: b.Index, Text: b.Header, Family: b.Family})
	}
	for _, fr := range rows {
		row := make([]model.Cell, len(bands))
		for col := range bands {
			row[col] = model.Cell{
				Col:    col,
				Family: bands[col].Family,
				BBox:   fr.cells[col].bbox,
				Text:   fr.cells[col].text(),
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellTextGrid(t *model.BaseTable) [][]string {
	var out [][]string
	for _, row := range t.Rows {
		texts := make([]string, len(row))
		for i, c := range row {
			texts[i] = c.Text
		}
		out = append(out, texts)
	}
	return out
}
