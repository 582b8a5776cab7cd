package model

import "testing"

func makeToken(id string, x0, y0, x1, y1 float64) Token {
	return Token{ID: id, Page: 1, Text: id, BBox: NewBBox(x0, y0, x1, y1)}
}

func TestTokenIndex_Search(t *testing.T) {
	idx := NewTokenIndex([]Token{
		makeToken("a", 0.1, 0.1, 0.2, 0.15),
		makeToken("b", 0.5, 0.5, 0.6, 0.55),
		makeToken("c", 0.8, 0.8, 0.9, 0.85),
	})

	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}

	hits := idx.Search(NewBBox(0.4, 0.4, 0.7, 0.7))
	if len(hits) != 1 || hits[0].ID != "b" {
		t.Errorf("Search() = %v, want just b", hits)
	}

	hits = idx.Search(NewBBox(0, 0, 1, 1))
	if len(hits) != 3 {
		t.Errorf("full-page Search() found %d tokens, want 3", len(hits))
	}
}

func TestTokenIndex_SearchCentered(t *testing.T) {
	// Token straddles the box edge: it intersects but its center is outside
	idx := NewTokenIndex([]Token{
		makeToken("edge", 0.38, 0.1, 0.52, 0.15),
		makeToken("in", 0.1, 0.1, 0.2, 0.15),
	})

	box := NewBBox(0, 0, 0.4, 1)
	if hits := idx.Search(box); len(hits) != 2 {
		t.Errorf("Search() found %d tokens, want 2", len(hits))
	}
	hits := idx.SearchCentered(box)
	if len(hits) != 1 || hits[0].ID != "in" {
		t.Errorf("SearchCentered() = %v, want just in", hits)
	}
}

func TestTokenIndex_Empty(t *testing.T) {
	idx := NewTokenIndex(nil)
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
	if hits := idx.Search(NewBBox(0, 0, 1, 1)); hits != nil {
		t.Errorf("Search() on empty index = %v, want nil", hits)
	}
}
