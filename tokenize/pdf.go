// Package tokenize is a reference tokenizer: it turns a PDF's positioned
// text into the normalized token pages the engine consumes. The engine
// itself never depends on it; production deployments feed tokens from a
// dedicated extraction service, and this adapter exists so the CLI can run
// end to end on a bare PDF.
package tokenize

import (
	"fmt"
	"math"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/tablekit/itemfix/model"
)

// Letter-size fallback when a page carries no usable MediaBox
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// SourceTag marks tokens produced by this adapter
const SourceTag = "ledongthuc"

// FromPDF extracts token pages from a PDF file
func FromPDF(path string) ([]model.TokenPage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []model.TokenPage
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, tokenizePage(p, i))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tokenize %s: no readable pages", path)
	}
	return pages, nil
}

func tokenizePage(p pdf.Page, number int) model.TokenPage {
	width, height := pageSize(p)
	page := model.TokenPage{
		Info: model.PageInfo{Page: number, Width: width, Height: height},
	}

	for wi, word := range assembleWords(p.Content().Text) {
		// PDF coordinates grow upward; flip to top-left origin
		box := model.NewBBox(
			word.x0/width,
			(height-word.y1)/height,
			word.x1/width,
			(height-word.y0)/height,
		).Clamp01()
		page.Tokens = append(page.Tokens, model.Token{
			ID:     fmt.Sprintf("p%d-w%d", number, wi),
			Page:   number,
			Text:   word.text,
			BBox:   box,
			Source: SourceTag,
		})
	}
	return page
}

func pageSize(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return defaultPageWidth, defaultPageHeight
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return w, h
}

type word struct {
	text           string
	x0, y0, x1, y1 float64
}

// assembleWords merges the reader's per-run text fragments into words:
// fragments sharing a baseline join when the horizontal gap is small
// relative to the font size.
func assembleWords(texts []pdf.Text) []word {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.Slice(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > 0.5 {
			return sorted[i].Y > sorted[j].Y // higher on page first
		}
		return sorted[i].X < sorted[j].X
	})

	var words []word
	current := fragmentWord(sorted[0])
	for _, t := range sorted[1:] {
		sameLine := math.Abs((t.Y)-current.y0) <= 0.5
		gap := t.X - current.x1
		joinGap := t.FontSize * 0.3
		if joinGap <= 0 {
			joinGap = 1.5
		}
		if sameLine && gap >= -0.5 && gap <= joinGap && t.S != " " {
			current.text += t.S
			if t.X+t.W > current.x1 {
				current.x1 = t.X + t.W
			}
			if t.Y+t.FontSize > current.y1 {
				current.y1 = t.Y + t.FontSize
			}
			continue
		}
		if current.text != "" && current.text != " " {
			words = append(words, current)
		}
		current = fragmentWord(t)
	}
	if current.text != "" && current.text != " " {
		words = append(words, current)
	}
	return words
}

func fragmentWord(t pdf.Text) word {
	return word{
		text: t.S,
		x0:   t.X,
		y0:   t.Y,
		x1:   t.X + t.W,
		y1:   t.Y + t.FontSize,
	}
}
