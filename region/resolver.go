package region

import (
	"regexp"

	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/model"
)

// headerPad is the small upward extension above the start line's bottom
// edge, keeping the header's lower sliver inside the band.
const headerPad = 0.005

// minSpanX is the narrowest usable horizontal band; anything narrower falls
// back to the full page width.
const minSpanX = 0.1

// Band is the resolved items region. EndAnchorY is set when an end-anchor
// line bounded the band; the candidate builder's stop chain clips there.
type Band struct {
	BBox       model.BBox
	EndAnchorY *float64
}

// Resolver locates the items region of a page from anchor text patterns
type Resolver struct {
	cfg          config.ItemsRegion
	startAnchors []*regexp.Regexp
	endAnchors   []*regexp.Regexp
}

// NewResolver creates a resolver from the validated config and its compiled
// anchor patterns.
func NewResolver(cfg config.ItemsRegion, cp *config.Compiled) *Resolver {
	return &Resolver{
		cfg:          cfg,
		startAnchors: cp.StartAnchors,
		endAnchors:   cp.EndAnchors,
	}
}

// Resolve returns the items-region band for a page, or false when no line
// matches a start anchor.
func (r *Resolver) Resolve(tokens []model.Token) (Band, bool) {
	lines := ClusterLines(tokens, DefaultLineTolerance)
	if len(lines) == 0 {
		return Band{}, false
	}

	start, ok := r.findStartLine(lines)
	if !ok {
		return Band{}, false
	}

	top := start.BBox.Y1 - headerPad + r.cfg.Margins.Top

	var bottom float64
	var endY *float64
	if end, ok := r.findEndLine(lines, start); ok {
		bottom = end.BBox.Y0 - r.cfg.Margins.Bottom
		y := end.BBox.Y0
		endY = &y
	} else {
		bottom = start.BBox.Y1 + r.minHeight()
	}

	band := model.NewBBox(0, top, 1, bottom).Clamp01()
	if band.Height() < r.minHeight() {
		band.Y1 = clampTo1(band.Y0 + r.minHeight())
	}

	x0, x1 := r.horizontalSpan()
	band.X0 = x0
	band.X1 = x1

	return Band{BBox: band, EndAnchorY: endY}, true
}

// findStartLine prefers a line with at least two start hits, picking the
// lowest such line on the page; otherwise the line with the most hits,
// ties broken by the lowest position.
func (r *Resolver) findStartLine(lines []Line) (Line, bool) {
	best := -1
	bestHits := 0
	strong := -1
	for i, line := range lines {
		hits := countHits(line.Text, r.startAnchors)
		if hits >= 2 {
			strong = i // lines are top-to-bottom, keep the last
		}
		if hits >= 1 && hits >= bestHits {
			best = i // >= keeps the lowest line on ties
			bestHits = hits
		}
	}
	if strong >= 0 {
		return lines[strong], true
	}
	if best >= 0 {
		return lines[best], true
	}
	return Line{}, false
}

// findEndLine returns the first line below the start line with an end hit
func (r *Resolver) findEndLine(lines []Line, start Line) (Line, bool) {
	for _, line := range lines[start.Index+1:] {
		if line.BBox.Y0 < start.BBox.Y1 {
			continue
		}
		if countHits(line.Text, r.endAnchors) >= 1 {
			return line, true
		}
	}
	return Line{}, false
}

func (r *Resolver) horizontalSpan() (float64, float64) {
	if r.cfg.XPolicy == "margins" {
		x0 := r.cfg.Margins.Left
		x1 := 1 - r.cfg.Margins.Right
		if x1-x0 >= minSpanX {
			return x0, x1
		}
	}
	return 0, 1
}

func (r *Resolver) minHeight() float64 {
	if r.cfg.MinHeight > 0 {
		return r.cfg.MinHeight
	}
	return 0.05
}

func countHits(text string, patterns []*regexp.Regexp) int {
	hits := 0
	for _, re := range patterns {
		if re != nil && re.MatchString(text) {
			hits++
		}
	}
	return hits
}

func clampTo1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
