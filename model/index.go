package model

import "github.com/tidwall/rtree"

// TokenIndex is a spatial index over one page's tokens. It supports the
// region queries made by the candidate builder and the full-page scans made
// during subtotal validation without re-walking the whole token list.
type TokenIndex struct {
	tree   rtree.RTreeG[Token]
	tokens []Token
}

// NewTokenIndex builds an index over the given tokens
func NewTokenIndex(tokens []Token) *TokenIndex {
	idx := &TokenIndex{tokens: tokens}
	for _, tok := range tokens {
		idx.tree.Insert(
			[2]float64{tok.BBox.X0, tok.BBox.Y0},
			[2]float64{tok.BBox.X1, tok.BBox.Y1},
			tok,
		)
	}
	return idx
}

// Search returns all tokens whose boxes intersect the query box
func (idx *TokenIndex) Search(box BBox) []Token {
	var hits []Token
	idx.tree.Search(
		[2]float64{box.X0, box.Y0},
		[2]float64{box.X1, box.Y1},
		func(_, _ [2]float64, tok Token) bool {
			hits = append(hits, tok)
			return true
		},
	)
	return hits
}

// SearchCentered returns tokens whose center point lies inside the query box
func (idx *TokenIndex) SearchCentered(box BBox) []Token {
	var hits []Token
	for _, tok := range idx.Search(box) {
		if box.Contains(tok.BBox.Center()) {
			hits = append(hits, tok)
		}
	}
	return hits
}

// All returns every indexed token
func (idx *TokenIndex) All() []Token {
	return idx.tokens
}

// Len returns the number of indexed tokens
func (idx *TokenIndex) Len() int {
	return len(idx.tokens)
}
