// Package derive computes the analytic columns of each cleaned transaction.
//
// Derivation is a pure function of the batch. Bucket breakpoints are fixed
// (see schema); the only data-dependent threshold, the high-value customer
// cut-off, needs customer-level totals and is resolved by the splitter.
package derive

import (
	"strings"
	"time"

	"salesmart/internal/schema"
)

// Stage is the stage name carried on rejections from this package.
const Stage = "derive"

// RuleMalformedDate tags records whose transaction_date does not parse.
const RuleMalformedDate = "malformed_date"

// DefaultDateLayouts are tried in order when no layouts are configured.
var DefaultDateLayouts = []string{
	schema.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Engine derives enriched records. The zero value uses DefaultDateLayouts.
type Engine struct {
	DateLayouts []string
}

// Derive enriches every record of clean. A record whose date cannot be parsed
// is excluded and reported with a *schema.MalformedDateError; the remaining
// records are still derived. The input batch is not modified.
func (e Engine) Derive(clean []schema.Transaction) ([]schema.Enriched, []schema.Rejection) {
	layouts := e.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	out := make([]schema.Enriched, 0, len(clean))
	var rejected []schema.Rejection
	for _, tx := range clean {
		d, ok := parseDate(tx.TransactionDate, layouts)
		if !ok {
			rejected = append(rejected, schema.Rejection{
				Line:          tx.Line,
				TransactionID: tx.TransactionID,
				Stage:         Stage,
				Rule:          RuleMalformedDate,
				Err:           &schema.MalformedDateError{Line: tx.Line, TransactionID: tx.TransactionID, Value: tx.TransactionDate},
			})
			continue
		}
		out = append(out, Record(tx, d))
	}
	return out, rejected
}

// Derive runs the zero-value Engine.
func Derive(clean []schema.Transaction) ([]schema.Enriched, []schema.Rejection) {
	return Engine{}.Derive(clean)
}

// Record computes the derived fields of one transaction dated d.
func Record(tx schema.Transaction, d time.Time) schema.Enriched {
	margin := Margin(tx.TotalAmount, tx.Quantity, tx.PricePerUnit)
	return schema.Enriched{
		Transaction:   tx,
		Date:          d,
		Margin:        margin,
		MarginPercent: MarginPercent(margin, tx.TotalAmount),
		AgeSegment:    schema.AgeSegmentOf(tx.Age),
		ProductTier:   schema.ProductTierOf(tx.PricePerUnit),
		OrderSize:     schema.OrderSizeOf(tx.TotalAmount),
		Year:          d.Year(),
		Month:         int(d.Month()),
		Quarter:       schema.QuarterOf(d.Month()),
		DayOfWeek:     schema.DayOfWeekOf(d.Weekday()),
	}
}

// Margin is the deviation of the recorded total from quantity × unit price.
func Margin(total float64, qty int, price float64) float64 {
	return total - float64(qty)*price
}

// MarginPercent is margin as a percentage of total, and 0 when total is 0.
func MarginPercent(margin, total float64) float64 {
	if total == 0 {
		return 0
	}
	return margin / total * 100
}

// parseDate returns the calendar date (UTC midnight) of s.
func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
