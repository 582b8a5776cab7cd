package rowfix

import (
	"sort"

	"github.com/tablekit/itemfix/cache"
	"github.com/tablekit/itemfix/family"
	"github.com/tablekit/itemfix/model"
)

// buildColumns seeds column bands from the winning table's header and body
// cell boxes: per column, the X span is the union of every cell box seen at
// that index.
func buildColumns(table *model.BaseTable) []model.ColumnBand {
	type span struct {
		x0, x1 float64
		seen   bool
	}
	cols := table.ColCount()
	spans := make([]span, cols)

	widen := func(col int, box model.BBox) {
		if col < 0 || col >= cols || box.IsEmpty() {
			return
		}
		if !spans[col].seen {
			spans[col] = span{x0: box.X0, x1: box.X1, seen: true}
			return
		}
		if box.X0 < spans[col].x0 {
			spans[col].x0 = box.X0
		}
		if box.X1 > spans[col].x1 {
			spans[col].x1 = box.X1
		}
	}
	for _, row := range table.Rows {
		for _, cell := range row {
			widen(cell.Col, cell.BBox)
		}
	}

	bands := make([]model.ColumnBand, 0, cols)
	for col := 0; col < cols; col++ {
		band := model.ColumnBand{Index: col, X0: spans[col].x0, X1: spans[col].x1}
		if col < len(table.Header) {
			band.Family = table.Header[col].Family
			band.Header = table.Header[col].Text
		}
		bands = append(bands, band)
	}
	model.SortColumnBands(bands)
	return bands
}

// applyCachedSpans overwrites band X spans with the cached layout for this
// header fingerprint, stabilizing geometry run to run. Spans are only
// applied when the cached column count matches.
func applyCachedSpans(bands []model.ColumnBand, entry cache.Entry) bool {
	if len(entry.Columns) != len(bands) {
		return false
	}
	for i := range bands {
		bands[i].X0 = entry.Columns[i].X0
		bands[i].X1 = entry.Columns[i].X1
	}
	model.SortColumnBands(bands)
	return true
}

// applyOverrides rewrites band family or header text per the configured
// column-override rules, matched by index or by header pattern.
func (f *Fixer) applyOverrides(bands []model.ColumnBand) {
	for i, ov := range f.cfg.RowFix.ColumnOverrides {
		for b := range bands {
			matched := false
			if ov.MatchIndex != nil && *ov.MatchIndex == bands[b].Index {
				matched = true
			}
			if !matched && f.cp.HeaderMatch[i] != nil && f.cp.HeaderMatch[i].MatchString(bands[b].Header) {
				matched = true
			}
			if !matched {
				continue
			}
			if ov.Family != "" {
				bands[b].Family = ov.Family
			}
			if ov.Header != "" {
				bands[b].Header = ov.Header
			}
		}
	}
}

// columnBoundaries returns len(bands)+1 X positions: band edges at the
// midpoints between adjacent band centers, outer edges extended slightly
// past the outer bands.
func columnBoundaries(bands []model.ColumnBand) []float64 {
	const outerPad = 0.01
	bounds := make([]float64, len(bands)+1)
	bounds[0] = bands[0].X0 - outerPad
	for i := 1; i < len(bands); i++ {
		bounds[i] = (bands[i-1].CenterX() + bands[i].CenterX()) / 2
	}
	bounds[len(bands)] = bands[len(bands)-1].X1 + outerPad
	return bounds
}

// assignColumn returns the band index whose boundary interval contains x
func assignColumn(bounds []float64, x float64) int {
	for i := 0; i < len(bounds)-1; i++ {
		if x >= bounds[i] && x < bounds[i+1] {
			return i
		}
	}
	if x < bounds[0] {
		return 0
	}
	return len(bounds) - 2
}

// foldPlaceholder redirects a token assigned to an unlabeled placeholder
// band into an adjacent numeric-family band, when one exists.
func (f *Fixer) foldPlaceholder(bands []model.ColumnBand, col int) int {
	if bands[col].Family != "" || bands[col].Header != "" {
		return col
	}
	if col > 0 && f.cp.IsNumericFamily(bands[col-1].Family) {
		return col - 1
	}
	if col+1 < len(bands) && f.cp.IsNumericFamily(bands[col+1].Family) {
		return col + 1
	}
	return col
}

// refineNumericColumns recomputes the right edge of each numeric-family
// band by clustering the right edges of bare-number tokens in the numeric
// zone. The refinement is applied only when the cluster count matches the
// numeric band count exactly; otherwise the evidence is ambiguous and the
// seeded spans stand.
func (f *Fixer) refineNumericColumns(bands []model.ColumnBand, bodyTokens []model.Token, tableBox model.BBox, xTol float64) bool {
	minX := tableBox.X0 + f.cfg.RowFix.NumericColumnMinXFrac*tableBox.Width()

	var numericIdx []int
	for i, b := range bands {
		if b.Family != "" && f.cp.IsNumericFamily(b.Family) && b.CenterX() >= minX {
			numericIdx = append(numericIdx, i)
		}
	}
	if len(numericIdx) == 0 {
		return false
	}

	var rights []float64
	for _, tok := range bodyTokens {
		if model.IsBareNumber(tok.Text) && tok.BBox.CenterX() >= minX {
			rights = append(rights, tok.BBox.X1)
		}
	}
	if len(rights) == 0 {
		return false
	}
	sort.Float64s(rights)
	clusters := clusterScalars(rights, xTol)
	if len(clusters) != len(numericIdx) {
		return false
	}
	for i, idx := range numericIdx {
		bands[idx].X1 = clusters[i]
	}
	model.SortColumnBands(bands)
	return true
}

// clusterScalars merges sorted values within tolerance, averaging each
// cluster to one representative.
func clusterScalars(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := []float64{values[0]}
	count := 1
	for _, v := range values[1:] {
		last := len(out) - 1
		if v-out[last] <= tol {
			out[last] = (out[last]*float64(count) + v) / float64(count+1)
			count++
		} else {
			out = append(out, v)
			count = 1
		}
	}
	return out
}

// fingerprintOf builds the cache key from band labels, preferring family
// names over raw header text.
func fingerprintOf(bands []model.ColumnBand) string {
	labels := make([]string, len(bands))
	for i, b := range bands {
		if b.Family != "" {
			labels[i] = b.Family
		} else {
			labels[i] = b.Header
		}
	}
	return family.Fingerprint(labels)
}
