package itemfix

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tablekit/itemfix/model"
)

// tokenRecord is the external tokenizer's per-word wire format
type tokenRecord struct {
	ID   string `json:"id"`
	Page int    `json:"page"`
	Text string `json:"text"`
	BBox struct {
		X0 float64 `json:"x0"`
		Y0 float64 `json:"y0"`
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
	} `json:"bbox"`
}

type pageRecord struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type segmentRecord struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
	BBox struct {
		X0 float64 `json:"x0"`
		Y0 float64 `json:"y0"`
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
	} `json:"bbox"`
}

// tokensFile is the tokenizer output: tokens either flat or grouped per
// extraction engine, plus the page-size list and optional segments.
type tokensFile struct {
	DocID    string                   `json:"doc_id"`
	Pages    []pageRecord             `json:"pages"`
	Tokens   []tokenRecord            `json:"tokens"`
	Engines  map[string][]tokenRecord `json:"engines"`
	Segments []segmentRecord          `json:"segments"`
}

// LoadDocument reads a token input file into a Document
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	return ParseDocument(raw)
}

// ParseDocument decodes tokenizer JSON into a Document. Pages are sorted by
// page number; tokens grouped per engine are flattened with their source
// tag preserved.
func ParseDocument(raw []byte) (*Document, error) {
	var file tokensFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	if len(file.Pages) == 0 {
		return nil, fmt.Errorf("decode tokens: no pages listed")
	}

	byPage := make(map[int][]model.Token)
	add := func(rec tokenRecord, source string) {
		byPage[rec.Page] = append(byPage[rec.Page], model.Token{
			ID:     rec.ID,
			Page:   rec.Page,
			Text:   rec.Text,
			BBox:   model.NewBBox(rec.BBox.X0, rec.BBox.Y0, rec.BBox.X1, rec.BBox.Y1),
			Source: source,
		})
	}
	for _, rec := range file.Tokens {
		add(rec, "")
	}
	for engine, recs := range file.Engines {
		for _, rec := range recs {
			add(rec, engine)
		}
	}

	doc := &Document{DocID: file.DocID}
	pages := make([]pageRecord, len(file.Pages))
	copy(pages, file.Pages)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	for _, p := range pages {
		doc.Pages = append(doc.Pages, model.TokenPage{
			Info:   model.PageInfo{Page: p.Page, Width: p.Width, Height: p.Height},
			Tokens: byPage[p.Page],
		})
	}
	for _, s := range file.Segments {
		doc.Segments = append(doc.Segments, model.Segment{
			Kind: s.Kind,
			Page: s.Page,
			BBox: model.NewBBox(s.BBox.X0, s.BBox.Y0, s.BBox.X1, s.BBox.Y1),
		})
	}
	return doc, nil
}
