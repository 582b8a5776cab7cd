package rowfix

import (
	"regexp"
	"strings"

	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

// Family-name conventions for the SKU/description split. Vendors may name
// columns differently; overrides can rewrite families to these.
var skuFamilies = map[string]bool{
	"SKU":        true,
	"ITEM_NO":    true,
	"PART_NO":    true,
	"ARTICLE_NO": true,
}

const descriptionFamily = "DESCRIPTION"

// composedCell is a cell mid-composition: sub-lines kept separate until the
// split and stitch passes are done.
type composedCell struct {
	sublines []string
	bbox     model.BBox
}

func (c *composedCell) text() string {
	return strings.Join(c.sublines, "\n")
}

func (c *composedCell) empty() bool {
	for _, s := range c.sublines {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// fixedRow pairs a row band with its composed cells, indexed by column
type fixedRow struct {
	band  model.RowBand
	cells []composedCell
}

var (
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:)])`)
	spaceAfterParen  = regexp.MustCompile(`\(\s+`)
	parenDigits      = regexp.MustCompile(`\(\s*(\d+)\s*\)`)
	numberWithUnit   = regexp.MustCompile(`^([+-]?[\d.,]+)(?:\s+\S{1,6})?$`)
)

// cleanText applies the generic punctuation-spacing cleanup: no space
// before closing punctuation, none after an opening parenthesis, and
// parenthesized digits tightened.
func cleanText(s string) string {
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = spaceAfterParen.ReplaceAllString(s, "(")
	s = parenDigits.ReplaceAllString(s, "($1)")
	return strings.TrimSpace(s)
}

// composeRow builds the composed cells of one row: per column, tokens are
// clustered into sub-lines by vertical proximity, ordered by X within each
// sub-line, joined with single spaces, and cleaned.
func (f *Fixer) composeRow(row model.RowBand, bands []model.ColumnBand, subTol float64) fixedRow {
	fr := fixedRow{band: row, cells: make([]composedCell, len(bands))}
	for col := range bands {
		toks := row.Columns[col]
		if len(toks) == 0 {
			continue
		}
		cell := &fr.cells[col]
		for _, line := range region.ClusterLines(toks, subTol) {
			cell.sublines = append(cell.sublines, cleanText(line.Text))
			if cell.bbox.IsEmpty() {
				cell.bbox = line.BBox
			} else {
				cell.bbox = cell.bbox.Union(line.BBox)
			}
		}
		f.stripAliasPrefix(cell, bands[col])
		if bands[col].Family != "" && f.cp.IsNumericFamily(bands[col].Family) {
			trimUnitSuffix(cell)
		}
	}
	return fr
}

// stripAliasPrefix removes a configured alias of the column's family from
// the start of the first sub-line, covering vendors that repeat the header
// label inside every cell.
func (f *Fixer) stripAliasPrefix(cell *composedCell, band model.ColumnBand) {
	if band.Family == "" || len(cell.sublines) == 0 {
		return
	}
	first := cell.sublines[0]
	lower := strings.ToLower(first)
	for _, alias := range f.cfg.HeaderAliases[band.Family] {
		a := strings.ToLower(alias)
		if a == "" || !strings.HasPrefix(lower, a) {
			continue
		}
		rest := strings.TrimLeft(first[len(a):], " :.")
		if rest != first {
			cell.sublines[0] = rest
			return
		}
	}
}

// trimUnitSuffix strips a trailing unit or currency token from a numeric
// cell, keeping only the bare number.
func trimUnitSuffix(cell *composedCell) {
	for i, s := range cell.sublines {
		m := numberWithUnit.FindStringSubmatch(s)
		if m != nil && model.IsBareNumber(m[1]) {
			cell.sublines[i] = m[1]
		}
	}
}

// splitPartNumber extracts a part number from the description into an empty
// SKU-like cell. When the description's last sub-line is exactly the part
// number, that sub-line is dropped rather than blanked.
func (f *Fixer) splitPartNumber(fr *fixedRow, bands []model.ColumnBand) bool {
	if len(f.cp.PartNumbers) == 0 {
		return false
	}
	skuCol, descCol := -1, -1
	for i, b := range bands {
		if skuFamilies[b.Family] {
			skuCol = i
		}
		if b.Family == descriptionFamily {
			descCol = i
		}
	}
	if skuCol < 0 || descCol < 0 {
		return false
	}
	sku := &fr.cells[skuCol]
	desc := &fr.cells[descCol]
	if !sku.empty() || desc.empty() {
		return false
	}

	for _, re := range f.cp.PartNumbers {
		for i, line := range desc.sublines {
			match := re.FindString(line)
			if match == "" {
				continue
			}
			sku.sublines = []string{match}
			if i == len(desc.sublines)-1 && strings.TrimSpace(line) == match {
				desc.sublines = desc.sublines[:i]
			} else {
				desc.sublines[i] = cleanText(strings.Replace(line, match, "", 1))
			}
			return true
		}
	}
	return false
}

// capsFragment reports whether text is a short, all-caps, digit-free
// fragment of the kind produced when a wrapped description crosses a row
// boundary.
func capsFragment(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 24 || model.HasDigit(s) {
		return false
	}
	if len(strings.Fields(s)) > 3 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if (r >= 'A' && r <= 'Z') || r > 127 {
			hasLetter = true
		}
	}
	return hasLetter
}

// stitchFragments moves stray description fragments across row boundaries:
// a short all-caps leading sub-line joins the previous row's description,
// and the symmetric trailing case joins the next row's.
func (f *Fixer) stitchFragments(rows []fixedRow, bands []model.ColumnBand) []Event {
	descCol := -1
	for i, b := range bands {
		if b.Family == descriptionFamily {
			descCol = i
		}
	}
	if descCol < 0 {
		return nil
	}

	var events []Event
	stitched := make(map[int]bool)
	for i := 1; i < len(rows); i++ {
		cur := &rows[i].cells[descCol]
		prev := &rows[i-1].cells[descCol]
		if len(cur.sublines) > 1 && capsFragment(cur.sublines[0]) && !prev.empty() {
			prev.sublines = append(prev.sublines, cur.sublines[0])
			cur.sublines = cur.sublines[1:]
			stitched[i-1] = true
			events = append(events, Event{Kind: EventFragmentStitched, Row: rows[i].band.Index})
		}
	}
	for i := 0; i+1 < len(rows); i++ {
		if stitched[i] {
			continue
		}
		cur := &rows[i].cells[descCol]
		next := &rows[i+1].cells[descCol]
		last := len(cur.sublines) - 1
		if last >= 1 && capsFragment(cur.sublines[last]) && !next.empty() {
			next.sublines = append([]string{cur.sublines[last]}, next.sublines...)
			cur.sublines = cur.sublines[:last]
			events = append(events, Event{Kind: EventFragmentStitched, Row: rows[i].band.Index})
		}
	}
	return events
}
