package region

import (
	"testing"

	"github.com/tablekit/itemfix/model"
)

func tok(text string, x0, y0, x1, y1 float64) model.Token {
	return model.Token{Page: 1, Text: text, BBox: model.NewBBox(x0, y0, x1, y1)}
}

func TestClusterLines_GroupsByBaseline(t *testing.T) {
	tokens := []model.Token{
		tok("Qty", 0.5, 0.20, 0.56, 0.22),
		tok("Description", 0.1, 0.20, 0.25, 0.22),
		tok("Widget", 0.1, 0.30, 0.2, 0.32),
	}

	lines := ClusterLines(tokens, DefaultLineTolerance)
	if len(lines) != 2 {
		t.Fatalf("ClusterLines() produced %d lines, want 2", len(lines))
	}

	// Text assembled left to right regardless of token order
	if lines[0].Text != "Description Qty" {
		t.Errorf("line 0 text = %q, want %q", lines[0].Text, "Description Qty")
	}
	if lines[1].Text != "Widget" {
		t.Errorf("line 1 text = %q", lines[1].Text)
	}
	if lines[0].Index != 0 || lines[1].Index != 1 {
		t.Error("line indices should follow top-to-bottom order")
	}
}

func TestClusterLines_ToleranceSplits(t *testing.T) {
	tokens := []model.Token{
		tok("a", 0.1, 0.100, 0.2, 0.110),
		tok("b", 0.3, 0.104, 0.4, 0.114), // within tolerance of a
		tok("c", 0.1, 0.150, 0.2, 0.160), // well below
	}
	lines := ClusterLines(tokens, 0.008)
	if len(lines) != 2 {
		t.Fatalf("ClusterLines() produced %d lines, want 2", len(lines))
	}
	if len(lines[0].Tokens) != 2 {
		t.Errorf("first line has %d tokens, want 2", len(lines[0].Tokens))
	}
}

func TestClusterLines_Empty(t *testing.T) {
	if lines := ClusterLines(nil, DefaultLineTolerance); lines != nil {
		t.Errorf("ClusterLines(nil) = %v, want nil", lines)
	}
}
