package model

// Token is a single positioned word on a page, produced by an external
// tokenizer. Tokens are immutable once created; the page's token list owns
// them for the duration of a run.
type Token struct {
	ID     string
	Page   int // 1-indexed page number
	Text   string
	BBox   BBox   // normalized coordinates
	Source string // name of the extraction engine that produced it
}

// PageInfo carries the absolute page dimensions in points. Configured
// point-based tolerances are converted to normalized units through it.
type PageInfo struct {
	Page   int
	Width  float64
	Height float64
}

// NormY converts a vertical distance in points into normalized units
func (p PageInfo) NormY(pts float64) float64 {
	if p.Height <= 0 {
		return 0
	}
	return pts / p.Height
}

// NormX converts a horizontal distance in points into normalized units
func (p PageInfo) NormX(pts float64) float64 {
	if p.Width <= 0 {
		return 0
	}
	return pts / p.Width
}

// TokenPage bundles one page's tokens with its dimensions
type TokenPage struct {
	Info   PageInfo
	Tokens []Token
}
