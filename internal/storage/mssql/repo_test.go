package mssql

import (
	"context"
	"strings"
	"testing"

	"salesmart/internal/ddl"
	"salesmart/internal/schema"
	"salesmart/internal/storage"
)

// TestMsIdent verifies that msIdent brackets SQL Server identifiers and
// escapes closing brackets.
func TestMsIdent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"simple", "[simple]"},
		{"dbo", "[dbo]"},
		{"brack]et", "[brack]]et]"},
		{`weird]]name`, `[weird]]]]name]`},
	}
	for _, tc := range cases {
		if got := msIdent(tc.in); got != tc.want {
			t.Fatalf("msIdent(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestMsFQN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"orders", "[orders]"},
		{"mart.orders", "[mart].[orders]"},
		{"db.mart.orders", "[db].[mart].[orders]"},
	}
	for _, tc := range cases {
		if got := msFQN(tc.in); got != tc.want {
			t.Fatalf("msFQN(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestDialect_ProductsTable(t *testing.T) {
	t.Parallel()

	sql, err := ddl.BuildCreateTableSQL(schema.ProductsTable.WithPrefix("mart"), Dialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"IF OBJECT_ID(N'[mart].[products]', N'U') IS NULL",
		"CREATE TABLE [mart].[products] (",
		"[product_category] NVARCHAR(255) NOT NULL",
		"[avg_price_per_unit] FLOAT NOT NULL",
		"PRIMARY KEY ([product_category], [product_tier])",
		"END",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("DDL missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "IF NOT EXISTS") {
		t.Errorf("T-SQL does not support IF NOT EXISTS:\n%s", sql)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host?connection+timeout=notanumber"}); err == nil {
		t.Fatal("malformed DSN accepted")
	}
}

// Not parallel: it swaps the package-level hook.
func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mssql", DSN: "sqlserver://example"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.DSN != "sqlserver://example" {
		t.Errorf("hook cfg.DSN = %q", gotCfg.DSN)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not call closeFn")
	}
	if _, ok := storage.DialectFor("mssql"); !ok {
		t.Fatal("mssql dialect not registered")
	}
}
