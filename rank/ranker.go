// Package rank scores a page's table candidates with weighted features and
// selects a winner.
package rank

import (
	"github.com/tablekit/itemfix/candidates"
	"github.com/tablekit/itemfix/config"
)

// Entry is one candidate's scoring record in the diagnostics report
type Entry struct {
	Strategy  string              `json:"strategy"`
	Source    string              `json:"source"`
	HeaderRow int                 `json:"header_row"`
	Features  candidates.Features `json:"features"`
	Score     float64             `json:"score"`
	Eligible  bool                `json:"eligible"`
	Selected  bool                `json:"selected"`
}

// Report records every candidate considered for a page, selected or not
type Report struct {
	Page     int     `json:"page"`
	Entries  []Entry `json:"candidates"`
	Selected int     `json:"selected"` // index into Entries, -1 when none
}

// Ranker selects the winning candidate for a page
type Ranker struct {
	cfg config.Ranking
}

// NewRanker creates a ranker from the validated ranking config
func NewRanker(cfg config.Ranking) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank scores all candidates and returns the winner, or nil when no
// candidate is eligible. Candidates past the configured maximum are marked
// ineligible but still appear in the report.
//
// The region-overlap feature is zeroed for every candidate unless at least
// one eligible candidate's overlap reaches the configured threshold;
// otherwise a degenerate region detection would reward spurious overlap.
func (r *Ranker) Rank(page int, cands []*candidates.Candidate) (*candidates.Candidate, Report) {
	report := Report{Page: page, Selected: -1}
	if len(cands) == 0 {
		return nil, report
	}

	for i, c := range cands {
		c.Eligible = i < r.cfg.MaxCandidates
	}

	useOverlap := false
	for _, c := range cands {
		if c.Eligible && c.Features.RegionOverlap >= r.cfg.OverlapThreshold {
			useOverlap = true
			break
		}
	}

	var winner *candidates.Candidate
	for _, c := range cands {
		c.Score = r.score(c.Features, useOverlap)
		if !c.Eligible {
			continue
		}
		if winner == nil || better(c, winner) {
			winner = c
		}
	}
	if winner != nil {
		winner.Selected = true
	}

	for i, c := range cands {
		report.Entries = append(report.Entries, Entry{
			Strategy:  c.Strategy,
			Source:    c.Source,
			HeaderRow: c.HeaderRow,
			Features:  c.Features,
			Score:     c.Score,
			Eligible:  c.Eligible,
			Selected:  c.Selected,
		})
		if c.Selected {
			report.Selected = i
		}
	}
	return winner, report
}

func (r *Ranker) score(f candidates.Features, useOverlap bool) float64 {
	w := r.cfg.Weights
	score := w.HeaderHits*f.HeaderHits +
		w.NumericRows*f.NumericRows +
		w.BodyRows*f.BodyRows +
		w.TotalsBelow*f.TotalsBelow
	if useOverlap {
		score += w.RegionOverlap * f.RegionOverlap
	}
	return score
}

// better orders candidates by score, then header hits, then body rows
func better(a, b *candidates.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Features.HeaderHits != b.Features.HeaderHits {
		return a.Features.HeaderHits > b.Features.HeaderHits
	}
	return a.Features.BodyRows > b.Features.BodyRows
}
