package duckdb

import (
	"context"
	"testing"
	"time"

	"salesmart/internal/schema"
	"salesmart/internal/storage"
)

func TestRepository_LoadMart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: "duckdb", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()

	if err := storage.EnsureTables(ctx, "duckdb", repo, schema.Tables()); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}

	c := schema.Customer{CustomerID: "C1", Gender: "Male", Age: 52, AgeSegment: schema.Senior, TotalLifetimeValue: 30, TotalTransactions: 1}
	o := schema.Order{
		TransactionID: 3, TransactionDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), CustomerID: "C1",
		ProductCategory: "Clothing", ProductTier: schema.Economy, Quantity: 1, PricePerUnit: 30, TotalAmount: 30,
		OrderSize: schema.Small, AgeSegment: schema.Senior, Year: 2023, Month: 1, Quarter: 1, DayOfWeek: schema.Monday,
	}
	if _, err := repo.CopyFrom(ctx, schema.TableCustomers, schema.CustomersTable.ColumnNames(), [][]any{c.Values()}); err != nil {
		t.Fatalf("CopyFrom customers: %v", err)
	}
	n, err := repo.CopyFrom(ctx, schema.TableOrders, schema.OrdersTable.ColumnNames(), [][]any{o.Values()})
	if err != nil || n != 1 {
		t.Fatalf("CopyFrom orders n=%d err=%v", n, err)
	}

	r := repo.(*wrappedRepo)
	var got string
	if err := r.db.QueryRowContext(ctx, `SELECT strftime(transaction_date, '%Y-%m-%d') FROM orders`).Scan(&got); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != "2023-01-02" {
		t.Fatalf("transaction_date = %q", got)
	}

	if _, err := repo.CopyFrom(ctx, schema.TableCustomers, schema.CustomersTable.ColumnNames(), [][]any{c.Values()}); err == nil {
		t.Fatal("duplicate customer_id accepted")
	}
}
