package schema

import (
	"fmt"
	"sort"
	"strings"
)

// MalformedRecordError reports a missing or unparseable field on one record.
// It is record-scoped: the record is rejected and the batch continues.
type MalformedRecordError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: missing required field %q", e.Line, e.Field)
	}
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %q value %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// MalformedDateError reports a transaction_date no configured layout accepts.
// Like MalformedRecordError it only excludes the offending record.
type MalformedDateError struct {
	Line          int
	TransactionID int64
	Value         string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("line %d: transaction %d: unparseable transaction_date %q", e.Line, e.TransactionID, e.Value)
}

// InconsistentDimensionError is raised when one dimension key maps to more
// than one value of an attribute that must be constant for that key. It
// aborts the split.
type InconsistentDimensionError struct {
	Dimension string
	Key       string
	Attribute string
	Values    []string
}

func (e *InconsistentDimensionError) Error() string {
	vals := append([]string(nil), e.Values...)
	sort.Strings(vals)
	return fmt.Sprintf("%s %q: inconsistent %s: [%s]", e.Dimension, e.Key, e.Attribute, strings.Join(vals, ", "))
}

// DuplicateKeyError is raised when a key that must be unique within a
// relation occurs more than once. It aborts the split.
type DuplicateKeyError struct {
	Relation string
	Key      string
	Lines    []int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: duplicate key %s (lines %v)", e.Relation, e.Key, e.Lines)
}

// ReferentialViolationError reports a fact row whose customer_id has no
// dimension row. The fact row is reported, not silently dropped.
type ReferentialViolationError struct {
	TransactionID int64
	CustomerID    string
}

func (e *ReferentialViolationError) Error() string {
	return fmt.Sprintf("order %d references unknown customer %q", e.TransactionID, e.CustomerID)
}

// ReconciliationMismatchError reports totals of one measure that disagree
// beyond tolerance. The auditor attaches it to the failing check.
type ReconciliationMismatchError struct {
	Measure   string
	Values    map[string]float64
	Tolerance float64
}

func (e *ReconciliationMismatchError) Error() string {
	names := make([]string, 0, len(e.Values))
	for k := range e.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%.6f", n, e.Values[n])
	}
	return fmt.Sprintf("%s does not reconcile (tolerance %g): %s", e.Measure, e.Tolerance, strings.Join(parts, " "))
}
