package itemfix

import (
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/rank"
	"github.com/tablekit/itemfix/rowfix"
)

// Result is the structured output of one document run, plus the per-page
// diagnostics side channel.
type Result struct {
	DocID       string            `json:"doc_id"`
	RunID       string            `json:"run_id"`
	Pages       []PageResult      `json:"pages"`
	Diagnostics []PageDiagnostics `json:"-"`
}

// PageResult is one page's reconstructed table
type PageResult struct {
	Page         int         `json:"page"`
	StrategyUsed string      `json:"strategy_used"`
	Table        TableOutput `json:"table"`
}

// TableOutput is the wire shape of a reconstructed table
type TableOutput struct {
	BBox           model.BBox         `json:"bbox"`
	HeaderRowIndex int                `json:"header_row_index"`
	HeaderCells    []model.HeaderCell `json:"header_cells"`
	Rows           []RowOutput        `json:"rows"`
}

// RowOutput is one table row in the output
type RowOutput struct {
	Row   int          `json:"row"`
	Cells []model.Cell `json:"cells"`
}

// PageDiagnostics is the per-page diagnostics bundle: the full candidate
// ranking report always, and fix events, validation results, and the
// before/after dump when debug mode is on.
type PageDiagnostics struct {
	Page        int                  `json:"page"`
	Ranking     rank.Report          `json:"ranking"`
	Events      []rowfix.Event       `json:"events,omitempty"`
	Arithmetic  []rowfix.RowCheck    `json:"arithmetic,omitempty"`
	Subtotal    rowfix.SubtotalCheck `json:"subtotal"`
	Fingerprint string               `json:"fingerprint,omitempty"`
	Debug       *rowfix.DebugBundle  `json:"debug,omitempty"`
}

func emptyPageResult(page int) PageResult {
	return PageResult{Page: page, Table: TableOutput{HeaderRowIndex: -1}}
}

func pageResultFrom(t *model.BaseTable) PageResult {
	pr := PageResult{
		Page:         t.Page,
		StrategyUsed: t.Strategy,
		Table: TableOutput{
			BBox:           t.BBox,
			HeaderRowIndex: t.HeaderRow,
			HeaderCells:    t.Header,
		},
	}
	for i, row := range t.Rows {
		pr.Table.Rows = append(pr.Table.Rows, RowOutput{Row: i, Cells: row})
	}
	return pr
}
