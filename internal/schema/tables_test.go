package schema

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValuesAlignWithColumns(t *testing.T) {
	t.Parallel()

	if got, want := len(Customer{}.Values()), len(CustomersTable.Columns); got != want {
		t.Fatalf("customer values = %d, columns = %d", got, want)
	}
	if got, want := len(Order{}.Values()), len(OrdersTable.Columns); got != want {
		t.Fatalf("order values = %d, columns = %d", got, want)
	}
	if got, want := len(Product{}.Values()), len(ProductsTable.Columns); got != want {
		t.Fatalf("product values = %d, columns = %d", got, want)
	}
}

func TestOrderValues_Encoding(t *testing.T) {
	t.Parallel()

	o := Order{
		TransactionID:   7,
		TransactionDate: time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC),
		CustomerID:      "C7",
		ProductTier:     Premium,
		OrderSize:       Large,
		AgeSegment:      Senior,
		DayOfWeek:       Saturday,
	}
	v := o.Values()
	if v[4] != "Premium" || v[10] != "Large" || v[11] != "Senior" || v[15] != 5 || v[16] != "Saturday" {
		t.Fatalf("unexpected encoding: %#v", v)
	}
}

func TestSummaryRows_Sorted(t *testing.T) {
	t.Parallel()

	s := Summary{"b": 2, "a": 1, "c": 3}
	want := [][]any{{"a", 1.0}, {"b", 2.0}, {"c", 3.0}}
	if got := s.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func TestTables_LoadOrder(t *testing.T) {
	t.Parallel()

	names := []string{}
	for _, td := range Tables() {
		names = append(names, td.FQN)
	}
	if got := strings.Join(names, ","); got != "customers,orders,products,summary_metrics" {
		t.Fatalf("order = %s", got)
	}
	pref := OrdersTable.WithPrefix("mart")
	if pref.FQN != "mart.orders" || pref.ForeignKeys[0].RefTable != "mart.customers" {
		t.Fatalf("prefix: %+v", pref)
	}
	if OrdersTable.ForeignKeys[0].RefTable != "customers" {
		t.Fatalf("WithPrefix mutated the original table definition")
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := &InconsistentDimensionError{Dimension: "customer", Key: "C1", Attribute: "age_segment", Values: []string{"Senior", "Adult"}}
	if got := err.Error(); got != `customer "C1": inconsistent age_segment: [Adult, Senior]` {
		t.Fatalf("got %q", got)
	}
	rec := &ReconciliationMismatchError{Measure: "revenue", Values: map[string]float64{"orders": 10, "products": 9}, Tolerance: 1e-6}
	if !strings.Contains(rec.Error(), "orders=10.000000 products=9.000000") {
		t.Fatalf("got %q", rec.Error())
	}
}
