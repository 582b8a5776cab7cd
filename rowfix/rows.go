package rowfix

import (
	"math"
	"sort"

	"github.com/tablekit/itemfix/model"
)

// defaultHalfRow extends the first and last numeric anchor's band when no
// better row-height estimate is available (normalized units).
const defaultHalfRow = 0.012

type anchor struct {
	centerY float64
	y0, y1  float64
}

// buildRowBands rebuilds row bands from body tokens using the
// numeric-anchor strategy: bare-number tokens in the table's numeric zone
// act as row anchors, and every other token attaches to the anchor interval
// containing (or nearest to) its vertical center. Without any numeric
// anchor the fallback is plain top-to-bottom gap clustering.
func (f *Fixer) buildRowBands(bodyTokens []model.Token, tableBox model.BBox, bodyTop, bodyBottom, gapTol, halfRow float64) []model.RowBand {
	if len(bodyTokens) == 0 {
		return nil
	}

	anchors := f.numericAnchors(bodyTokens, tableBox, bodyTop, bodyBottom, gapTol, halfRow)
	if len(anchors) == 0 {
		return gapClusterRows(bodyTokens, gapTol)
	}

	rows := make([]model.RowBand, len(anchors))
	for i, a := range anchors {
		rows[i] = model.RowBand{Index: i, Y0: a.y0, Y1: a.y1, Columns: make(map[int][]model.Token)}
	}

	for _, tok := range bodyTokens {
		yc := tok.BBox.CenterY()
		idx := -1
		for i, a := range anchors {
			if yc >= a.y0 && yc < a.y1 {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Outside every interval: nearest anchor by distance
			best := math.MaxFloat64
			for i, a := range anchors {
				if d := math.Abs(yc - a.centerY); d < best {
					best = d
					idx = i
				}
			}
		}
		rows[idx].Tokens = append(rows[idx].Tokens, tok)
	}

	return compactRows(rows)
}

// numericAnchors clusters bare-number tokens right of the numeric-zone
// threshold into row anchors. Anchor bounds are the midpoints between
// consecutive anchor centers; the first and last extend by a half row
// height, clamped to the body extent.
func (f *Fixer) numericAnchors(bodyTokens []model.Token, tableBox model.BBox, bodyTop, bodyBottom, gapTol, halfRow float64) []anchor {
	minX := tableBox.X0 + f.cfg.RowFix.NumericColumnMinXFrac*tableBox.Width()

	var centers []float64
	for _, tok := range bodyTokens {
		if model.IsBareNumber(tok.Text) && tok.BBox.CenterX() >= minX {
			centers = append(centers, tok.BBox.CenterY())
		}
	}
	if len(centers) == 0 {
		return nil
	}
	sort.Float64s(centers)
	clustered := clusterScalars(centers, gapTol)

	if halfRow <= 0 {
		halfRow = defaultHalfRow
	}
	anchors := make([]anchor, len(clustered))
	for i, c := range clustered {
		a := anchor{centerY: c}
		if i == 0 {
			a.y0 = math.Max(bodyTop, c-halfRow)
		} else {
			a.y0 = (clustered[i-1] + c) / 2
		}
		if i == len(clustered)-1 {
			a.y1 = math.Min(bodyBottom, c+halfRow)
			if a.y1 <= a.y0 {
				a.y1 = c + halfRow
			}
		} else {
			a.y1 = (c + clustered[i+1]) / 2
		}
		anchors[i] = a
	}
	return anchors
}

// gapClusterRows is the anchorless fallback: sort tokens top to bottom and
// cut a new row wherever the vertical gap exceeds the threshold.
func gapClusterRows(tokens []model.Token, gapTol float64) []model.RowBand {
	sorted := make([]model.Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BBox.CenterY() < sorted[j].BBox.CenterY()
	})

	var rows []model.RowBand
	current := model.RowBand{
		Y0:      sorted[0].BBox.Y0,
		Y1:      sorted[0].BBox.Y1,
		Tokens:  []model.Token{sorted[0]},
		Columns: make(map[int][]model.Token),
	}
	for _, tok := range sorted[1:] {
		if tok.BBox.Y0-current.Y1 > gapTol {
			rows = append(rows, current)
			current = model.RowBand{
				Y0:      tok.BBox.Y0,
				Y1:      tok.BBox.Y1,
				Tokens:  []model.Token{tok},
				Columns: make(map[int][]model.Token),
			}
		} else {
			current.Tokens = append(current.Tokens, tok)
			if tok.BBox.Y1 > current.Y1 {
				current.Y1 = tok.BBox.Y1
			}
		}
	}
	rows = append(rows, current)
	return compactRows(rows)
}

// compactRows drops empty bands, sorts by Y0, and reindexes
func compactRows(rows []model.RowBand) []model.RowBand {
	var out []model.RowBand
	for _, r := range rows {
		if len(r.Tokens) > 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Y0 < out[j].Y0 })
	for i := range out {
		out[i].Index = i
	}
	return out
}

// assignRowColumns buckets each row's tokens into column bands and flags
// numeric content. Tokens in unlabeled placeholder bands fold into an
// adjacent numeric band.
func (f *Fixer) assignRowColumns(rows []model.RowBand, bands []model.ColumnBand) {
	bounds := columnBoundaries(bands)
	for i := range rows {
		rows[i].Columns = make(map[int][]model.Token)
		rows[i].HasNumeric = false
		for _, tok := range rows[i].Tokens {
			col := assignColumn(bounds, tok.BBox.CenterX())
			col = f.foldPlaceholder(bands, col)
			rows[i].Columns[col] = append(rows[i].Columns[col], tok)
			if bands[col].Family != "" && f.cp.IsNumericFamily(bands[col].Family) && model.HasDigit(tok.Text) {
				rows[i].HasNumeric = true
			}
		}
	}
}

// mergeContinuations walks rows top to bottom, folding text-only rows that
// sit within the continuation gap into the previous kept row and dropping
// repeated header rows. Returns the surviving rows and the fix events.
func (f *Fixer) mergeContinuations(rows []model.RowBand, bands []model.ColumnBand, gapTol float64) ([]model.RowBand, []Event) {
	var kept []model.RowBand
	var events []Event
	maxGap := f.cfg.RowFix.ContinuationGapFactor * gapTol

	for _, row := range rows {
		if f.isRepeatedHeader(row, bands) {
			events = append(events, Event{Kind: EventHeaderDropped, Row: row.Index})
			continue
		}
		if len(kept) > 0 && !row.HasNumeric && row.Y0-kept[len(kept)-1].Y1 <= maxGap {
			prev := &kept[len(kept)-1]
			for col, toks := range row.Columns {
				if bands[col].Family != "" && f.cp.IsNumericFamily(bands[col].Family) {
					continue
				}
				prev.Columns[col] = append(prev.Columns[col], toks...)
			}
			prev.Tokens = append(prev.Tokens, row.Tokens...)
			if row.Y1 > prev.Y1 {
				prev.Y1 = row.Y1
			}
			prev.MergedRows = append(prev.MergedRows, row.Index)
			events = append(events, Event{Kind: EventContinuationMerged, Row: row.Index})
			continue
		}
		kept = append(kept, row)
	}

	for i := range kept {
		kept[i].Index = i
	}
	return kept, events
}

// isRepeatedHeader reports whether a row looks like the table header
// reprinted mid-body: most of its non-empty cells start with known header
// aliases while its numeric cells carry no digits.
func (f *Fixer) isRepeatedHeader(row model.RowBand, bands []model.ColumnBand) bool {
	nonEmpty := 0
	headerLike := 0
	for col, toks := range row.Columns {
		if len(toks) == 0 {
			continue
		}
		nonEmpty++
		text := toks[0].Text
		if fam, ok := f.cp.Matcher.Resolve(text); ok && col < len(bands) && fam == bands[col].Family {
			headerLike++
		}
	}
	if nonEmpty < 2 || headerLike*2 < nonEmpty {
		return false
	}
	for col, toks := range row.Columns {
		if col >= len(bands) || bands[col].Family == "" || !f.cp.IsNumericFamily(bands[col].Family) {
			continue
		}
		for _, tok := range toks {
			if model.HasDigit(tok.Text) {
				return false
			}
		}
	}
	return true
}

// rowSpacingStats returns the median row height and median gap between
// consecutive rows, for the template cache.
func rowSpacingStats(rows []model.RowBand) (height, gap float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	heights := make([]float64, 0, len(rows))
	for _, r := range rows {
		heights = append(heights, r.Y1-r.Y0)
	}
	var gaps []float64
	for i := 1; i < len(rows); i++ {
		gaps = append(gaps, rows[i].Y0-rows[i-1].Y1)
	}
	return median(heights), median(gaps)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
