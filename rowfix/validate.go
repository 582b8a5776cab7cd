package rowfix

import (
	"github.com/shopspring/decimal"

	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/model"
	"github.com/tablekit/itemfix/region"
)

// Families consulted by the arithmetic check
const (
	FamilyQty       = "QTY"
	FamilyUnitPrice = "UNIT_PRICE"
	FamilyDiscount  = "DISCOUNT"
	FamilyAmount    = "AMOUNT"
)

// RowCheckStatus is the outcome of one row's arithmetic check
type RowCheckStatus string

const (
	RowCheckOK      RowCheckStatus = "ok"
	RowCheckFail    RowCheckStatus = "fail"
	RowCheckSkipped RowCheckStatus = "skipped"
)

// RowCheck reports one row's quantity x unit price - discount validation
type RowCheck struct {
	Row      int             `json:"row"`
	Status   RowCheckStatus  `json:"status"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
}

// SubtotalStatus is the outcome of the page-level subtotal check
type SubtotalStatus string

const (
	SubtotalOK       SubtotalStatus = "ok"
	SubtotalMismatch SubtotalStatus = "mismatch"
	SubtotalMissing  SubtotalStatus = "missing"
)

// SubtotalCheck compares the printed subtotal against the sum of validated
// row totals.
type SubtotalCheck struct {
	Status  SubtotalStatus  `json:"status"`
	Printed decimal.Decimal `json:"printed"`
	Sum     decimal.Decimal `json:"sum"`
}

// withinTolerance checks |actual - expected| <= max(abs, rel * |expected|)
func withinTolerance(actual, expected decimal.Decimal, tol config.Tolerance) bool {
	limit := decimal.NewFromFloat(tol.Abs)
	rel := decimal.NewFromFloat(tol.Rel).Mul(expected.Abs())
	if rel.GreaterThan(limit) {
		limit = rel
	}
	return actual.Sub(expected).Abs().LessThanOrEqual(limit)
}

// validateArithmetic checks total = qty x unit_price - discount for every
// row exposing the involved cells and accumulates the sum of validated
// totals. Rows missing quantity, unit price, or total are skipped; a
// missing discount column counts as zero discount.
func (f *Fixer) validateArithmetic(rows []fixedRow, bands []model.ColumnBand) ([]RowCheck, decimal.Decimal) {
	cols := make(map[string]int)
	for i, b := range bands {
		if b.Family != "" {
			cols[b.Family] = i
		}
	}
	qtyCol, hasQty := cols[FamilyQty]
	priceCol, hasPrice := cols[FamilyUnitPrice]
	discCol, hasDisc := cols[FamilyDiscount]
	totalCol, hasTotal := cols[FamilyAmount]

	sum := decimal.Zero
	checks := make([]RowCheck, 0, len(rows))
	for i, fr := range rows {
		check := RowCheck{Row: i, Status: RowCheckSkipped}
		if !hasQty || !hasPrice || !hasTotal {
			checks = append(checks, check)
			continue
		}
		qty, okQ := ParseAmount(fr.cells[qtyCol].text())
		price, okP := ParseAmount(fr.cells[priceCol].text())
		total, okT := ParseAmount(fr.cells[totalCol].text())

		discount := decimal.Zero
		okD := true
		if hasDisc && !fr.cells[discCol].empty() {
			discount, okD = ParseAmount(fr.cells[discCol].text())
		}

		if !okQ || !okP || !okT || !okD {
			checks = append(checks, check)
			continue
		}

		check.Expected = qty.Mul(price).Sub(discount)
		check.Actual = total
		if withinTolerance(total, check.Expected, f.cfg.RowFix.ArithmeticTolerance) {
			check.Status = RowCheckOK
			sum = sum.Add(total)
		} else {
			check.Status = RowCheckFail
		}
		checks = append(checks, check)
	}
	return checks, sum
}

// validateSubtotal searches the whole page for a line carrying a subtotal
// keyword, takes the largest parseable number on it as the printed
// subtotal, and compares it against the accumulated validated sum.
func (f *Fixer) validateSubtotal(pageLines []region.Line, sum decimal.Decimal) SubtotalCheck {
	check := SubtotalCheck{Status: SubtotalMissing, Sum: sum}
	for _, line := range pageLines {
		if !config.ContainsKeyword(line.Text, f.cfg.SubtotalKeywords) {
			continue
		}
		printed, found := largestAmount(line)
		if !found {
			continue
		}
		check.Printed = printed
		if withinTolerance(sum, printed, f.cfg.RowFix.SubtotalTolerance) {
			check.Status = SubtotalOK
		} else {
			check.Status = SubtotalMismatch
		}
		return check
	}
	return check
}

// largestAmount returns the greatest parseable number among a line's tokens
func largestAmount(line region.Line) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false
	for _, tok := range line.Tokens {
		if !model.HasDigit(tok.Text) {
			continue
		}
		if v, ok := ParseAmount(tok.Text); ok {
			if !found || v.GreaterThan(best) {
				best = v
				found = true
			}
		}
	}
	return best, found
}
