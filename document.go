package itemfix

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablekit/itemfix/candidates"
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/rank"
	"github.com/tablekit/itemfix/region"
	"github.com/tablekit/itemfix/rowfix"
)

// Document is one invoice's token input: pages in reading order plus any
// advisory segments from the external segmenter.
type Document struct {
	DocID    string
	Pages    []model.TokenPage
	Segments []model.Segment
}

// Process runs the full pipeline over a document. Pages are processed
// strictly in order: a headerless continuation page reuses the previous
// page's column-family mapping. Per-page failures degrade to empty tables;
// only context cancellation aborts the run.
func (r *Runner) Process(ctx context.Context, doc *Document) (*Result, error) {
	res := &Result{
		DocID: doc.DocID,
		RunID: uuid.NewString(),
	}

	resolver := region.NewResolver(r.cfg.ItemsRegion, r.cp)
	builder := candidates.NewBuilder(r.cfg, r.cp, r.engines, r.timeout)
	ranker := rank.NewRanker(r.cfg.Ranking)
	fixer := rowfix.NewFixer(r.cfg, r.cp, r.store)

	var prevFamilies map[int]string

	for i := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := &doc.Pages[i]
		pageNum := page.Info.Page

		if page.Info.Width <= 0 || page.Info.Height <= 0 {
			res.Pages = append(res.Pages, emptyPageResult(pageNum))
			res.Diagnostics = append(res.Diagnostics, PageDiagnostics{
				Page: pageNum, Ranking: rank.Report{Page: pageNum, Selected: -1},
			})
			continue
		}

		var bandPtr *region.Band
		if band, ok := resolver.Resolve(page.Tokens); ok {
			bandPtr = &band
		}

		cands := builder.BuildPage(ctx, page, bandPtr, segmentsForPage(doc.Segments, pageNum), prevFamilies)
		winner, report := ranker.Rank(pageNum, cands)

		diag := PageDiagnostics{Page: pageNum, Ranking: report}
		if winner == nil {
			res.Pages = append(res.Pages, emptyPageResult(pageNum))
			res.Diagnostics = append(res.Diagnostics, diag)
			r.log.WithFields(logrus.Fields{
				"doc":        doc.DocID,
				"page":       pageNum,
				"candidates": len(cands),
			}).Debug("no eligible candidate")
			continue
		}

		fixRes := fixer.Fix(winner.ToBaseTable(pageNum), page)

		diag.Events = fixRes.Events
		diag.Arithmetic = fixRes.Arithmetic
		diag.Subtotal = fixRes.Subtotal
		diag.Fingerprint = fixRes.Fingerprint
		diag.Debug = fixRes.Debug

		res.Pages = append(res.Pages, pageResultFrom(fixRes.Table))
		res.Diagnostics = append(res.Diagnostics, diag)

		if fams := fixRes.Table.FamilyByCol(); len(fams) > 0 {
			prevFamilies = fams
		}

		r.log.WithFields(logrus.Fields{
			"doc":        doc.DocID,
			"page":       pageNum,
			"strategy":   fixRes.Table.Strategy,
			"candidates": len(cands),
			"rows":       len(fixRes.Table.Rows),
			"subtotal":   fixRes.Subtotal.Status,
		}).Debug("page processed")
	}

	return res, nil
}

func segmentsForPage(segments []model.Segment, page int) []model.Segment {
	var out []model.Segment
	for _, s := range segments {
		if s.Page == page {
			out = append(out, s)
		}
	}
	return out
}
