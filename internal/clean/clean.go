// Package clean turns raw input rows into typed transactions. It applies three
// rules in order and keeps every dropped row, tagged with the rule that
// dropped it. Lines the CSV reader could not parse are dropped first under
// malformed_row and never take part in duplicate detection.
//
//  1. duplicate     : the row repeats an earlier row field for field
//  2. missing_field : a required field is absent, empty, or unparseable
//  3. out_of_range  : age <= 0, quantity <= 0, price_per_unit < 0 or total_amount < 0
//
// Duplicates are detected on an xxh3 fingerprint of the nine canonical fields
// and confirmed by comparing values, so a hash collision never drops a row.
// The first occurrence of a duplicate wins.
package clean

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"salesmart/internal/schema"
)

// Stage is the stage name carried on rejections from this package.
const Stage = "clean"

// Rule names, in application order.
const (
	RuleMalformedRow = "malformed_row"
	RuleDuplicate    = "duplicate"
	RuleMissingField = "missing_field"
	RuleOutOfRange   = "out_of_range"
)

// Rules lists the rule names in application order.
var Rules = []string{RuleMalformedRow, RuleDuplicate, RuleMissingField, RuleOutOfRange}

// Report counts rows per outcome.
type Report struct {
	Raw    int
	Clean  int
	ByRule map[string]int
}

// Rejected returns the total number of rejected rows.
func (r Report) Rejected() int {
	n := 0
	for _, c := range r.ByRule {
		n += c
	}
	return n
}

var (
	errNotPositive = errors.New("must be > 0")
	errNegative    = errors.New("must be >= 0")
)

// Clean applies the cleaning rules to raw. The input is not modified.
func Clean(raw []schema.Raw) ([]schema.Transaction, []schema.Rejection, Report) {
	report := Report{Raw: len(raw), ByRule: make(map[string]int, len(Rules))}
	for _, r := range Rules {
		report.ByRule[r] = 0
	}

	out := make([]schema.Transaction, 0, len(raw))
	var rejected []schema.Rejection

	reject := func(r schema.Raw, rule string, err error) {
		report.ByRule[rule]++
		rejected = append(rejected, schema.Rejection{
			Line:          r.Line,
			TransactionID: peekID(r),
			Stage:         Stage,
			Rule:          rule,
			Err:           err,
		})
	}

	// seen maps a fingerprint to the indexes (into raw) of rows kept with it.
	seen := make(map[uint64][]int, len(raw))

	for i, r := range raw {
		if r.Err != nil {
			reject(r, RuleMalformedRow, &schema.MalformedRecordError{Line: r.Line, Err: r.Err})
			continue
		}
		fp := fingerprint(r)
		if dupOf, ok := firstEqual(raw, seen[fp], r); ok {
			reject(r, RuleDuplicate, fmt.Errorf("line %d: duplicate of line %d", r.Line, raw[dupOf].Line))
			continue
		}
		seen[fp] = append(seen[fp], i)

		tx, err := parse(r)
		if err != nil {
			reject(r, RuleMissingField, err)
			continue
		}
		if err := checkRange(tx); err != nil {
			reject(r, RuleOutOfRange, err)
			continue
		}
		out = append(out, tx)
	}

	report.Clean = len(out)
	return out, rejected, report
}

// fingerprint hashes the canonical fields; absent fields hash as \x00 so that
// "missing" and "empty" collide (both are null) but differ from any value.
func fingerprint(r schema.Raw) uint64 {
	var b strings.Builder
	for i, f := range schema.RawFields {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if v, ok := r.Get(f); ok {
			b.WriteString(v)
		} else {
			b.WriteByte('\x00')
		}
	}
	return xxh3.HashString(b.String())
}

func firstEqual(raw []schema.Raw, candidates []int, r schema.Raw) (int, bool) {
	for _, idx := range candidates {
		if sameFields(raw[idx], r) {
			return idx, true
		}
	}
	return 0, false
}

func sameFields(a, b schema.Raw) bool {
	for _, f := range schema.RawFields {
		av, aok := a.Get(f)
		bv, bok := b.Get(f)
		if aok != bok || av != bv {
			return false
		}
	}
	return true
}

func parse(r schema.Raw) (schema.Transaction, error) {
	tx := schema.Transaction{Line: r.Line}
	p := fieldParser{raw: r}

	tx.TransactionID = p.integer(schema.FieldTransactionID)
	tx.TransactionDate = p.text(schema.FieldTransactionDate)
	tx.CustomerID = p.text(schema.FieldCustomerID)
	tx.Gender = p.text(schema.FieldGender)
	tx.Age = int(p.integer(schema.FieldAge))
	tx.ProductCategory = p.text(schema.FieldProductCategory)
	tx.Quantity = int(p.integer(schema.FieldQuantity))
	tx.PricePerUnit = p.number(schema.FieldPricePerUnit)
	tx.TotalAmount = p.number(schema.FieldTotalAmount)

	return tx, p.err
}

func checkRange(tx schema.Transaction) error {
	bad := func(field string, v any, err error) error {
		return &schema.MalformedRecordError{Line: tx.Line, Field: field, Value: fmt.Sprint(v), Err: err}
	}
	switch {
	case tx.Age <= 0:
		return bad(schema.FieldAge, tx.Age, errNotPositive)
	case tx.Quantity <= 0:
		return bad(schema.FieldQuantity, tx.Quantity, errNotPositive)
	case tx.PricePerUnit < 0:
		return bad(schema.FieldPricePerUnit, tx.PricePerUnit, errNegative)
	case tx.TotalAmount < 0:
		return bad(schema.FieldTotalAmount, tx.TotalAmount, errNegative)
	}
	return nil
}

// fieldParser reads typed fields from a raw row and keeps the first error.
type fieldParser struct {
	raw schema.Raw
	err error
}

func (p *fieldParser) get(field string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.raw.Get(field)
	if !ok {
		p.err = &schema.MalformedRecordError{Line: p.raw.Line, Field: field}
	}
	return v, ok
}

func (p *fieldParser) fail(field, v string, err error) {
	p.err = &schema.MalformedRecordError{Line: p.raw.Line, Field: field, Value: v, Err: err}
}

func (p *fieldParser) text(field string) string {
	v, _ := p.get(field)
	return v
}

func (p *fieldParser) integer(field string) int64 {
	v, ok := p.get(field)
	if !ok {
		return 0
	}
	n, err := parseInt(v)
	if err != nil {
		p.fail(field, v, err)
	}
	return n
}

func (p *fieldParser) number(field string) float64 {
	v, ok := p.get(field)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = errors.New("not a finite number")
	}
	if err != nil {
		p.fail(field, v, err)
	}
	return f
}

var errIntRange = errors.New("integer out of range")

// parseInt accepts plain integers and integral floats such as "34.0", which
// spreadsheet exports produce for integer columns. Values outside int64 fail.
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errIntRange
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errIntRange
	}
	return int64(f), nil
}

// peekID best-effort reads the transaction id for rejection reports.
func peekID(r schema.Raw) int64 {
	v, ok := r.Get(schema.FieldTransactionID)
	if !ok {
		return 0
	}
	n, err := parseInt(v)
	if err != nil {
		return 0
	}
	return n
}
