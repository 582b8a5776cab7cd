// Package region locates the vertical band of a page expected to hold the
// line-item table, using configured start and end anchor patterns.
package region

import (
	"sort"
	"strings"

	"github.com/tablekit/itemfix/model"
)

// DefaultLineTolerance is the fixed vertical proximity (normalized units)
// for grouping tokens into text lines.
const DefaultLineTolerance = 0.008

// Line is a cluster of tokens sharing a baseline, with assembled text
type Line struct {
	BBox   model.BBox
	Tokens []model.Token
	Text   string
	Index  int
}

// ClusterLines groups tokens into text lines by vertical proximity. Tokens
// whose vertical centers are within tol of the current line's center join
// it; lines are returned top to bottom with text assembled left to right.
func ClusterLines(tokens []model.Token, tol float64) []Line {
	if len(tokens) == 0 {
		return nil
	}
	if tol <= 0 {
		tol = DefaultLineTolerance
	}

	sorted := make([]model.Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BBox.CenterY() < sorted[j].BBox.CenterY()
	})

	var lines []Line
	current := Line{BBox: sorted[0].BBox, Tokens: []model.Token{sorted[0]}}
	center := sorted[0].BBox.CenterY()

	for _, tok := range sorted[1:] {
		if tok.BBox.CenterY()-center <= tol {
			current.Tokens = append(current.Tokens, tok)
			current.BBox = current.BBox.Union(tok.BBox)
			// Running average keeps slanted baselines in one line
			n := float64(len(current.Tokens))
			center = (center*(n-1) + tok.BBox.CenterY()) / n
		} else {
			lines = append(lines, finishLine(current))
			current = Line{BBox: tok.BBox, Tokens: []model.Token{tok}}
			center = tok.BBox.CenterY()
		}
	}
	lines = append(lines, finishLine(current))

	for i := range lines {
		lines[i].Index = i
	}
	return lines
}

func finishLine(l Line) Line {
	sort.Slice(l.Tokens, func(i, j int) bool {
		return l.Tokens[i].BBox.X0 < l.Tokens[j].BBox.X0
	})
	parts := make([]string, len(l.Tokens))
	for i, t := range l.Tokens {
		parts[i] = t.Text
	}
	l.Text = strings.Join(parts, " ")
	return l
}
