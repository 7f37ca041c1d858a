package ingest

import (
	"reflect"
	"strings"
	"testing"

	"salesmart/internal/schema"
)

const sampleCSV = "\uFEFFTransaction ID,Date,Customer ID,Gender,Age,Product Category,Quantity,Price per Unit,Total Amount\n" +
	"1,2023-11-24,CUST001,Male,34,Beauty,3,50,150\n" +
	"2,2023-02-27, CUST002 ,Female,26,Clothing,2,500,1000\n" +
	"3,2023-01-13,CUST003,Male,50\n"

func TestReadCSV_DisplayHeaders(t *testing.T) {
	t.Parallel()

	rows, err := ReadCSV(strings.NewReader(sampleCSV), Options{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	first := rows[0]
	if first.Line != 2 {
		t.Fatalf("first line = %d, want 2", first.Line)
	}
	want := map[string]string{
		"transaction_id":   "1",
		"transaction_date": "2023-11-24",
		"customer_id":      "CUST001",
		"gender":           "Male",
		"age":              "34",
		"product_category": "Beauty",
		"quantity":         "3",
		"price_per_unit":   "50",
		"total_amount":     "150",
	}
	if !reflect.DeepEqual(first.Values, want) {
		t.Fatalf("values = %#v\nwant %#v", first.Values, want)
	}
	if got, _ := rows[1].Get(schema.FieldCustomerID); got != "CUST002" {
		t.Fatalf("trimmed customer id = %q", got)
	}

	// Short rows keep the fields they have; the rest read as missing.
	if _, ok := rows[2].Get(schema.FieldQuantity); ok {
		t.Fatalf("short row should not carry quantity")
	}
	if got, ok := rows[2].Get(schema.FieldAge); !ok || got != "50" {
		t.Fatalf("short row age = %q, %v", got, ok)
	}
}

func TestReadCSV_MissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("Transaction ID,Date\n1,2023-01-01\n"), Options{})
	if err == nil || !strings.Contains(err.Error(), "missing columns customer_id") {
		t.Fatalf("expected missing columns error, got %v", err)
	}
}

func TestReadCSV_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := ReadCSV(strings.NewReader(""), Options{}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestReadCSV_HeaderMapAndDelimiter(t *testing.T) {
	t.Parallel()

	in := "id;day;cust;gender;age;product_category;quantity;price_per_unit;total_amount\n" +
		"9;2023-03-01;C9;Female;41;Books;1;12.5;12.5\n"
	rows, err := ReadCSV(strings.NewReader(in), Options{
		Comma:     ';',
		HeaderMap: map[string]string{"id": "transaction_id", "day": "transaction_date", "cust": "customer_id"},
	})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got, _ := rows[0].Get(schema.FieldTransactionDate); got != "2023-03-01" {
		t.Fatalf("date = %q", got)
	}
}

func TestSnakeCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Price per Unit":   "price_per_unit",
		"  Total-Amount. ": "total_amount",
		"Krátký text":      "kratky_text",
		"Qty (units)":      "qty_units",
		"__x__":            "x",
	}
	for in, want := range tests {
		if got := SnakeCase(in); got != want {
			t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
