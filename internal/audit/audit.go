// Package audit cross-checks the outputs of every stage of a run. It reads
// immutable snapshots only and never fails: every finding is a Check in the
// returned Report, and the caller decides which failures are fatal.
package audit

import (
	"fmt"
	"math"
	"strings"

	"salesmart/internal/clean"
	"salesmart/internal/derive"
	"salesmart/internal/schema"
	"salesmart/internal/validate"
)

// DefaultTolerance is the relative tolerance for financial reconciliation.
const DefaultTolerance = 1e-6

// maxDetail caps the offending keys listed in a check detail.
const maxDetail = 5

// Check names.
const (
	CheckRowCount           = "row_count_conservation"
	CheckRawAccounting      = "raw_accounting"
	CheckUniqueTransactions = "unique_transaction_id"
	CheckUniqueCustomers    = "unique_customer_id"
	CheckUniqueProducts     = "unique_product_key"
	CheckReferential        = "referential_integrity"
	CheckFinancial          = "financial_reconciliation"
	CheckNonNegative        = "non_negativity"
	CheckTransactionCounts  = "transaction_count_consistency"
	CheckLifetimeValue      = "lifetime_value_reconciliation"
	CheckHighValueCustomers = "high_value_count"
)

// Severity ranks a failed check.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Check is the outcome of one audit rule.
type Check struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail,omitempty"`

	// Err is the typed finding behind a failed check, if any.
	Err error `json:"-"`
}

// Report is the ordered list of checks of one audit.
type Report struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed checks in report order.
func (r Report) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Errors returns the failed checks with error severity.
func (r Report) Errors() []Check {
	var out []Check
	for _, c := range r.Failures() {
		if c.Severity == SeverityError {
			out = append(out, c)
		}
	}
	return out
}

// Check returns the named check.
func (r Report) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Input is a snapshot of every stage's output for one run.
type Input struct {
	Raw []schema.Raw
	// Clean holds the records handed to derivation, after the validator.
	Clean []schema.Transaction
	// Rejected holds the rejections of every stage, tagged by Stage.
	Rejected  []schema.Rejection
	Enriched  []schema.Enriched
	Customers []schema.Customer
	Orders    []schema.Order
	Products  []schema.Product
	Summary   schema.Summary
}

func (in Input) rejectedBy(stages ...string) int {
	n := 0
	for _, r := range in.Rejected {
		for _, s := range stages {
			if r.Stage == s {
				n++
				break
			}
		}
	}
	return n
}

// Options tune an audit.
type Options struct {
	// Tolerance is relative; values <= 0 select DefaultTolerance.
	Tolerance float64
}

// Audit runs every check over in.
func Audit(in Input, opt Options) Report {
	tol := opt.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	a := auditor{in: in, tol: tol}
	return Report{Checks: []Check{
		a.rowCount(),
		a.rawAccounting(),
		a.uniqueTransactions(),
		a.uniqueCustomers(),
		a.uniqueProducts(),
		a.referential(),
		a.financial(),
		a.nonNegative(),
		a.transactionCounts(),
		a.lifetimeValue(),
		a.highValueCustomers(),
	}}
}

type auditor struct {
	in  Input
	tol float64
}

func pass(name string, sev Severity) Check {
	return Check{Name: name, Passed: true, Severity: sev}
}

func fail(name string, sev Severity, err error, format string, args ...any) Check {
	return Check{Name: name, Severity: sev, Detail: fmt.Sprintf(format, args...), Err: err}
}

func (a auditor) rowCount() Check {
	derived := len(a.in.Clean) - a.in.rejectedBy(derive.Stage)
	if derived == len(a.in.Enriched) && len(a.in.Enriched) == len(a.in.Orders) {
		return pass(CheckRowCount, SeverityError)
	}
	return fail(CheckRowCount, SeverityError, nil,
		"clean=%d (minus %d derive rejections) enriched=%d orders=%d",
		len(a.in.Clean), len(a.in.Clean)-derived, len(a.in.Enriched), len(a.in.Orders))
}

func (a auditor) rawAccounting() Check {
	rejected := a.in.rejectedBy(clean.Stage, validate.Stage)
	if len(a.in.Raw) == len(a.in.Clean)+rejected {
		return pass(CheckRawAccounting, SeverityError)
	}
	return fail(CheckRawAccounting, SeverityError, nil,
		"raw=%d clean=%d rejected=%d", len(a.in.Raw), len(a.in.Clean), rejected)
}

func (a auditor) uniqueTransactions() Check {
	keys := make([]string, len(a.in.Orders))
	for i, o := range a.in.Orders {
		keys[i] = fmt.Sprint(o.TransactionID)
	}
	return unique(CheckUniqueTransactions, schema.TableOrders, "transaction_id", keys)
}

func (a auditor) uniqueCustomers() Check {
	keys := make([]string, len(a.in.Customers))
	for i, c := range a.in.Customers {
		keys[i] = c.CustomerID
	}
	return unique(CheckUniqueCustomers, schema.TableCustomers, "customer_id", keys)
}

func (a auditor) uniqueProducts() Check {
	keys := make([]string, len(a.in.Products))
	for i, p := range a.in.Products {
		keys[i] = p.ProductCategory + "/" + p.ProductTier.String()
	}
	return unique(CheckUniqueProducts, schema.TableProducts, "product_category/product_tier", keys)
}

func unique(name, relation, column string, keys []string) Check {
	seen := make(map[string]struct{}, len(keys))
	var dups []string
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			dups = append(dups, k)
			continue
		}
		seen[k] = struct{}{}
	}
	if len(dups) == 0 {
		return pass(name, SeverityError)
	}
	err := &schema.DuplicateKeyError{Relation: relation, Key: column + "=" + dups[0]}
	return fail(name, SeverityError, err, "%d duplicate %s in %s: %s", len(dups), column, relation, listKeys(dups))
}

func (a auditor) referential() Check {
	known := make(map[string]struct{}, len(a.in.Customers))
	for _, c := range a.in.Customers {
		known[c.CustomerID] = struct{}{}
	}
	var missing []string
	var first error
	for _, o := range a.in.Orders {
		if _, ok := known[o.CustomerID]; ok {
			continue
		}
		if first == nil {
			first = &schema.ReferentialViolationError{TransactionID: o.TransactionID, CustomerID: o.CustomerID}
		}
		missing = append(missing, fmt.Sprintf("%d->%s", o.TransactionID, o.CustomerID))
	}
	if len(missing) == 0 {
		return pass(CheckReferential, SeverityError)
	}
	return fail(CheckReferential, SeverityError, first,
		"%d orders reference missing customers: %s", len(missing), listKeys(missing))
}

func (a auditor) financial() Check {
	var orders, products float64
	for _, o := range a.in.Orders {
		orders += o.TotalAmount
	}
	for _, p := range a.in.Products {
		products += p.TotalRevenue
	}
	summary, ok := a.in.Summary[schema.MetricTotalRevenue]
	if !ok {
		return fail(CheckFinancial, SeverityError, nil, "summary has no total_revenue")
	}
	return a.reconcile(CheckFinancial, "total_revenue", map[string]float64{
		"orders":   orders,
		"summary":  summary,
		"products": products,
	})
}

func (a auditor) lifetimeValue() Check {
	var ltv float64
	for _, c := range a.in.Customers {
		ltv += c.TotalLifetimeValue
	}
	var orders float64
	for _, o := range a.in.Orders {
		orders += o.TotalAmount
	}
	return a.reconcile(CheckLifetimeValue, "total_lifetime_value", map[string]float64{
		"customers": ltv,
		"orders":    orders,
	})
}

func (a auditor) reconcile(name, measure string, values map[string]float64) Check {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	if hi-lo <= a.tol*scale {
		return pass(name, SeverityError)
	}
	err := &schema.ReconciliationMismatchError{Measure: measure, Values: values, Tolerance: a.tol}
	return fail(name, SeverityError, err, "%s", err.Error())
}

func (a auditor) nonNegative() Check {
	var bad []string
	note := func(where string, v float64) {
		if v < 0 {
			bad = append(bad, fmt.Sprintf("%s=%g", where, v))
		}
	}
	for _, e := range a.in.Enriched {
		id := fmt.Sprintf("enriched[%d]", e.TransactionID)
		note(id+".age", float64(e.Age))
		note(id+".quantity", float64(e.Quantity))
		note(id+".price_per_unit", e.PricePerUnit)
		note(id+".total_amount", e.TotalAmount)
	}
	for _, c := range a.in.Customers {
		id := "customers[" + c.CustomerID + "]"
		note(id+".age", float64(c.Age))
		note(id+".total_lifetime_value", c.TotalLifetimeValue)
	}
	for _, o := range a.in.Orders {
		id := fmt.Sprintf("orders[%d]", o.TransactionID)
		note(id+".quantity", float64(o.Quantity))
		note(id+".price_per_unit", o.PricePerUnit)
		note(id+".total_amount", o.TotalAmount)
	}
	for _, p := range a.in.Products {
		id := "products[" + p.ProductCategory + "/" + p.ProductTier.String() + "]"
		note(id+".total_quantity_sold", float64(p.TotalQuantitySold))
		note(id+".total_revenue", p.TotalRevenue)
		note(id+".avg_price_per_unit", p.AvgPricePerUnit)
	}
	for _, k := range []string{schema.MetricTotalRevenue, schema.MetricTotalQuantity, schema.MetricAverageOrderValue} {
		if v, ok := a.in.Summary[k]; ok {
			note("summary."+k, v)
		}
	}
	if len(bad) == 0 {
		return pass(CheckNonNegative, SeverityError)
	}
	return fail(CheckNonNegative, SeverityError, nil, "%d negative values: %s", len(bad), listKeys(bad))
}

func (a auditor) transactionCounts() Check {
	var customers, products int
	for _, c := range a.in.Customers {
		customers += c.TotalTransactions
	}
	for _, p := range a.in.Products {
		products += p.TotalTransactions
	}
	if customers == len(a.in.Orders) && products == len(a.in.Orders) {
		return pass(CheckTransactionCounts, SeverityError)
	}
	return fail(CheckTransactionCounts, SeverityError, nil,
		"orders=%d customers=%d products=%d", len(a.in.Orders), customers, products)
}

func (a auditor) highValueCustomers() Check {
	n := 0
	for _, c := range a.in.Customers {
		if c.HighValueCustomer {
			n++
		}
	}
	reported, ok := a.in.Summary[schema.MetricHighValueCustomers]
	if !ok || int(reported) == n {
		return pass(CheckHighValueCustomers, SeverityWarning)
	}
	return fail(CheckHighValueCustomers, SeverityWarning, nil, "customers flagged=%d summary=%g", n, reported)
}

func listKeys(keys []string) string {
	if len(keys) > maxDetail {
		keys = append(append([]string(nil), keys[:maxDetail]...), fmt.Sprintf("... %d more", len(keys)-maxDetail))
	}
	return strings.Join(keys, ", ")
}
