package model

import (
	"sort"
	"strings"
)

// ColumnBand is a resolved table column: a horizontal [X0,X1) span with the
// family name and original header text it was derived from. Bands for one
// table are sorted by X0 and mutually non-overlapping.
type ColumnBand struct {
	Index  int
	Family string // canonical column role, empty if unresolved
	Header string // original header text
	X0     float64
	X1     float64
}

// CenterX returns the horizontal center of the band
func (c ColumnBand) CenterX() float64 {
	return (c.X0 + c.X1) / 2
}

// SortColumnBands sorts bands by X0 and reassigns indices
func SortColumnBands(bands []ColumnBand) {
	sort.Slice(bands, func(i, j int) bool { return bands[i].X0 < bands[j].X0 })
	for i := range bands {
		bands[i].Index = i
	}
}

// RowBand is a reconstructed table row: a vertical [Y0,Y1) span with the
// tokens assigned to it and a per-column bucketing of those tokens.
type RowBand struct {
	Index      int
	Y0         float64
	Y1         float64
	Tokens     []Token
	Columns    map[int][]Token // column index -> tokens
	HasNumeric bool            // any digit in a numeric-family column
	MergedRows []int           // indices of continuation rows folded in
}

// CenterY returns the vertical center of the band
func (r RowBand) CenterY() float64 {
	return (r.Y0 + r.Y1) / 2
}

// StopRule identifies which rule of the stop chain decided where table body
// extraction ends.
type StopRule string

const (
	StopEndAnchor      StopRule = "end_anchor"
	StopTotalsGuard    StopRule = "totals_guard"
	StopNumericFallbak StopRule = "numeric_fallback"
	StopNone           StopRule = "none"
)

// StopDecision records the stop rule, the first row excluded from the table
// body, and an optional vertical clip line in normalized coordinates.
type StopDecision struct {
	Rule    StopRule
	StopRow int
	ClipY   *float64
}

// HeaderCell is one resolved header column of a table
type HeaderCell struct {
	Col    int    `json:"col"`
	Text   string `json:"text"`
	Family string `json:"name"`
}

// Cell is one body cell of a table
type Cell struct {
	Col    int    `json:"col"`
	Family string `json:"name"`
	BBox   BBox   `json:"bbox"`
	Text   string `json:"text"`
}

// BaseTable is the table selected for a page: the winning candidate's grid
// with headers mapped to families and the body clipped by the stop decision.
// The row fixer consumes it and may replace its rows entirely.
type BaseTable struct {
	Page      int
	Strategy  string // extraction strategy tag of the winning candidate
	HeaderRow int    // -1 on a headerless continuation page
	Header    []HeaderCell
	Rows      [][]Cell
	BBox      BBox
	ClipY     *float64 // stop-decision clip line, if any
}

// IsEmpty reports whether the table has no body rows
func (t *BaseTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColCount returns the number of columns, preferring the header width
func (t *BaseTable) ColCount() int {
	if len(t.Header) > 0 {
		return len(t.Header)
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// FamilyByCol returns the column index -> family mapping of the header
func (t *BaseTable) FamilyByCol() map[int]string {
	m := make(map[int]string, len(t.Header))
	for _, h := range t.Header {
		if h.Family != "" {
			m[h.Col] = h.Family
		}
	}
	return m
}

// ToMarkdown renders the table for diagnostics
func (t *BaseTable) ToMarkdown() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, h := range t.Header {
		sb.WriteString("| ")
		label := h.Family
		if label == "" {
			label = h.Text
		}
		sb.WriteString(strings.ReplaceAll(label, "\n", " "))
		sb.WriteString(" ")
	}
	if len(t.Header) > 0 {
		sb.WriteString("|\n")
		for range t.Header {
			sb.WriteString("|---")
		}
		sb.WriteString("|\n")
	}
	for _, row := range t.Rows {
		for _, cell := range row {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell.Text, "\n", " "))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
