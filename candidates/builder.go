package candidates

import (
	"context"
	"time"

	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

// headerScanRows is how many leading grid rows are tried as the header row
const headerScanRows = 12

// Features is the per-candidate feature vector scored by the ranker
type Features struct {
	HeaderHits    float64 `json:"header_hits"`
	RegionOverlap float64 `json:"region_overlap"`
	NumericRows   float64 `json:"numeric_rows"`
	BodyRows      float64 `json:"body_rows"`
	TotalsBelow   float64 `json:"totals_below"`
}

// Candidate is one raw grid with a chosen header hypothesis, a stop
// decision, and a computed feature vector. Candidates are transient: the
// ranker selects one per page and the rest survive only in diagnostics.
type Candidate struct {
	Grid      RawGrid
	Strategy  string
	Source    string
	HeaderRow int // -1 on a headerless continuation page
	Header    []model.HeaderCell
	Stop      model.StopDecision
	Features  Features

	// Filled in by the ranker
	Score    float64
	Eligible bool
	Selected bool
}

// BodyRowCount returns the number of body rows between header and stop
func (c *Candidate) BodyRowCount() int {
	n := c.Stop.StopRow - (c.HeaderRow + 1)
	if n < 0 {
		return 0
	}
	return n
}

// ToBaseTable converts the candidate into the page's base table
func (c *Candidate) ToBaseTable(page int) *model.BaseTable {
	t := &model.BaseTable{
		Page:      page,
		Strategy:  c.Strategy,
		HeaderRow: c.HeaderRow,
		Header:    c.Header,
		ClipY:     c.Stop.ClipY,
	}
	famByCol := make(map[int]string, len(c.Header))
	for _, h := range c.Header {
		famByCol[h.Col] = h.Family
	}
	first := c.HeaderRow + 1
	box := model.BBox{}
	if c.HeaderRow >= 0 {
		box = c.Grid.RowBBox(c.HeaderRow)
	}
	for r := first; r < c.Stop.StopRow && r < len(c.Grid.Cells); r++ {
		row := make([]model.Cell, len(c.Grid.Cells[r]))
		for col, gc := range c.Grid.Cells[r] {
			row[col] = model.Cell{
				Col:    col,
				Family: famByCol[col],
				BBox:   gc.BBox,
				Text:   gc.Text,
			}
		}
		t.Rows = append(t.Rows, row)
		if box.IsEmpty() {
			box = c.Grid.RowBBox(r)
		} else {
			box = box.Union(c.Grid.RowBBox(r))
		}
	}
	t.BBox = box
	return t
}

// Builder turns raw engine grids into scored candidates for one page
type Builder struct {
	cfg     *config.Config
	cp      *config.Compiled
	engines []Engine
	timeout time.Duration
}

// NewBuilder creates a builder over the given engines. A zero timeout
// disables the per-call deadline guard.
func NewBuilder(cfg *config.Config, cp *config.Compiled, engines []Engine, timeout time.Duration) *Builder {
	return &Builder{cfg: cfg, cp: cp, engines: engines, timeout: timeout}
}

// BuildPage requests grids from every engine and produces one candidate per
// surviving grid. band may be nil when region detection failed;
// prevFamilies carries the previous page's column-family mapping for
// headerless continuation pages; segments is advisory metadata from the
// external segmenter.
func (b *Builder) BuildPage(ctx context.Context, page *model.TokenPage, band *region.Band, segments []model.Segment, prevFamilies map[int]string) []*Candidate {
	var roi *model.BBox
	if b.cfg.Ranking.UseRegion && band != nil {
		box := band.BBox
		roi = &box
	}

	grids := b.propose(ctx, page, roi)
	if len(grids) == 0 && roi != nil {
		// Region-constrained detection found nothing; retry over the page
		grids = b.propose(ctx, page, nil)
	}
	if len(grids) == 0 {
		return nil
	}

	lines := region.ClusterLines(page.Tokens, region.DefaultLineTolerance)

	var out []*Candidate
	for _, grid := range grids {
		if c := b.buildCandidate(grid, band, segments, prevFamilies, lines); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// propose queries every engine, treating per-engine failures as empty
// results for that strategy.
func (b *Builder) propose(ctx context.Context, page *model.TokenPage, roi *model.BBox) []RawGrid {
	var grids []RawGrid
	for _, eng := range b.engines {
		callCtx := ctx
		cancel := func() {}
		if b.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		}
		proposed, err := eng.Propose(callCtx, page, roi)
		cancel()
		if err != nil {
			continue
		}
		grids = append(grids, proposed...)
	}
	return grids
}

type hypothesis struct {
	headerRow int
	hits      int
	header    []model.HeaderCell
	stop      model.StopDecision
	bodyRows  int
}

// buildCandidate picks the best header-row hypothesis for a grid and
// assembles the candidate with its feature vector.
func (b *Builder) buildCandidate(grid RawGrid, band *region.Band, segments []model.Segment, prevFamilies map[int]string, lines []region.Line) *Candidate {
	if len(grid.Cells) == 0 {
		return nil
	}

	limit := len(grid.Cells)
	if limit > headerScanRows {
		limit = headerScanRows
	}

	var best, bestWithHit *hypothesis
	for h := 0; h < limit; h++ {
		hyp := b.evaluateHypothesis(grid, h, band, segments)
		if best == nil || betterHypothesis(hyp, best) {
			best = hyp
		}
		if hyp.hits >= 1 && (bestWithHit == nil || betterHypothesis(hyp, bestWithHit)) {
			bestWithHit = hyp
		}
	}

	switch {
	case best.hits == 0 && bestWithHit != nil:
		best = bestWithHit
	case best.hits == 0 && prevFamilies != nil:
		// Headerless continuation page: reuse the previous page's column
		// mapping and treat the first row as data.
		best = b.continuationHypothesis(grid, band, segments, prevFamilies)
	}

	c := &Candidate{
		Grid:      grid,
		Strategy:  grid.Strategy,
		Source:    grid.Source,
		HeaderRow: best.headerRow,
		Header:    best.header,
		Stop:      best.stop,
	}
	c.Features = b.features(c, band, lines)
	return c
}

// betterHypothesis orders hypotheses by (body rows, header hits)
func betterHypothesis(a, b *hypothesis) bool {
	if a.bodyRows != b.bodyRows {
		return a.bodyRows > b.bodyRows
	}
	return a.hits > b.hits
}

func (b *Builder) evaluateHypothesis(grid RawGrid, headerRow int, band *region.Band, segments []model.Segment) *hypothesis {
	row := grid.Cells[headerRow]
	header := make([]model.HeaderCell, len(row))
	families := make(map[int]string, len(row))
	distinct := make(map[string]bool)
	for col, cell := range row {
		header[col] = model.HeaderCell{Col: col, Text: cell.Text}
		if fam, ok := b.cp.Matcher.Resolve(cell.Text); ok {
			header[col].Family = fam
			families[col] = fam
			distinct[fam] = true
		}
	}
	stop := b.stopDecision(grid, headerRow, families, band, segments)
	hyp := &hypothesis{
		headerRow: headerRow,
		hits:      len(distinct),
		header:    header,
		stop:      stop,
	}
	hyp.bodyRows = stop.StopRow - (headerRow + 1)
	if hyp.bodyRows < 0 {
		hyp.bodyRows = 0
	}
	return hyp
}

func (b *Builder) continuationHypothesis(grid RawGrid, band *region.Band, segments []model.Segment, prevFamilies map[int]string) *hypothesis {
	cols := 0
	if len(grid.Cells) > 0 {
		cols = len(grid.Cells[0])
	}
	header := make([]model.HeaderCell, cols)
	for col := range header {
		header[col] = model.HeaderCell{Col: col, Family: prevFamilies[col]}
	}
	stop := b.stopDecision(grid, -1, prevFamilies, band, segments)
	hyp := &hypothesis{
		headerRow: -1,
		header:    header,
		stop:      stop,
	}
	hyp.bodyRows = stop.StopRow
	return hyp
}

// stopDecision runs the stop-rule priority chain for one header hypothesis:
// end anchor, then totals-segment guard, then the numeric fallback scan.
func (b *Builder) stopDecision(grid RawGrid, headerRow int, families map[int]string, band *region.Band, segments []model.Segment) model.StopDecision {
	firstData := headerRow + 1
	rows := len(grid.Cells)

	if band != nil && band.EndAnchorY != nil {
		clip := *band.EndAnchorY
		return model.StopDecision{
			Rule:    model.StopEndAnchor,
			StopRow: firstRowAt(grid, firstData, clip),
			ClipY:   &clip,
		}
	}

	headerBottom := grid.BBox.Y0
	if headerRow >= 0 {
		headerBottom = grid.RowBBox(headerRow).Y1
	}
	for _, seg := range segments {
		if seg.Kind != model.SegmentKindTotals {
			continue
		}
		if seg.BBox.Y0 >= headerBottom && seg.BBox.Y0 <= grid.BBox.Y1 {
			clip := seg.BBox.Y0
			return model.StopDecision{
				Rule:    model.StopTotalsGuard,
				StopRow: firstRowAt(grid, firstData, clip),
				ClipY:   &clip,
			}
		}
	}

	numericCols := b.numericColumns(families, grid)
	lastNumeric := -1
	for r := firstData; r < rows; r++ {
		if config.ContainsKeyword(grid.RowText(r), b.cfg.NoteKeywords) {
			return model.StopDecision{Rule: model.StopNumericFallbak, StopRow: r}
		}
		for _, col := range numericCols {
			if col < len(grid.Cells[r]) && model.HasDigit(grid.Cells[r][col].Text) {
				lastNumeric = r
				break
			}
		}
	}
	if lastNumeric >= 0 {
		return model.StopDecision{Rule: model.StopNumericFallbak, StopRow: lastNumeric + 1}
	}

	stop := firstData + b.cfg.Ranking.DefaultRowLimit
	if stop > rows {
		stop = rows
	}
	return model.StopDecision{Rule: model.StopNone, StopRow: stop}
}

// numericColumns returns the columns carrying numeric families, or every
// column when no numeric family is mapped.
func (b *Builder) numericColumns(families map[int]string, grid RawGrid) []int {
	var cols []int
	for col, fam := range families {
		if b.cp.IsNumericFamily(fam) {
			cols = append(cols, col)
		}
	}
	if len(cols) > 0 {
		return cols
	}
	n := 0
	if len(grid.Cells) > 0 {
		n = len(grid.Cells[0])
	}
	cols = make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}

// firstRowAt returns the index of the first row at or past firstData whose
// center lies at or below the clip line.
func firstRowAt(grid RawGrid, firstData int, clipY float64) int {
	for r := firstData; r < len(grid.Cells); r++ {
		if grid.RowBBox(r).CenterY() >= clipY {
			return r
		}
	}
	return len(grid.Cells)
}

// features computes the candidate's feature vector
func (b *Builder) features(c *Candidate, band *region.Band, lines []region.Line) Features {
	f := Features{
		HeaderHits: float64(countDistinctFamilies(c.Header)),
		BodyRows:   float64(c.BodyRowCount()),
	}
	if band != nil {
		f.RegionOverlap = c.Grid.BBox.VerticalOverlap(band.BBox)
	}
	f.NumericRows = b.numericRowFraction(c)
	for _, line := range lines {
		if line.BBox.CenterY() > c.Grid.BBox.Y1 &&
			config.ContainsKeyword(line.Text, b.cfg.TotalsKeywords) {
			f.TotalsBelow = 1
			break
		}
	}
	return f
}

func countDistinctFamilies(header []model.HeaderCell) int {
	distinct := make(map[string]bool)
	for _, h := range header {
		if h.Family != "" {
			distinct[h.Family] = true
		}
	}
	return len(distinct)
}

// numericRowFraction is the fraction of in-range body rows whose rightmost
// numeric-family cell (or rightmost cell when no numeric family is known)
// is a bare number.
func (b *Builder) numericRowFraction(c *Candidate) float64 {
	col := -1
	for _, h := range c.Header {
		if h.Family != "" && b.cp.IsNumericFamily(h.Family) && h.Col > col {
			col = h.Col
		}
	}
	first := c.HeaderRow + 1
	total := 0
	numeric := 0
	for r := first; r < c.Stop.StopRow && r < len(c.Grid.Cells); r++ {
		row := c.Grid.Cells[r]
		if len(row) == 0 {
			continue
		}
		target := col
		if target < 0 || target >= len(row) {
			target = len(row) - 1
		}
		total++
		if model.IsBareNumber(row[target].Text) {
			numeric++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(numeric) / float64(total)
}
