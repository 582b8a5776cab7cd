package model

// Segment is a labeled page band produced by the external region/header
// segmenter. The engine only consumes it as advisory metadata; the
// "totals" kind guards the stop chain against running into a totals block.
type Segment struct {
	Kind string // e.g. "totals", "header", "footer"
	Page int
	BBox BBox
}

// SegmentKindTotals is the segment kind consulted by the stop chain
const SegmentKindTotals = "totals"
