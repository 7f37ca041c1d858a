// Package duckdb provides a DuckDB-backed storage.Repository, for loading the
// mart into a local analytical database file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"salesmart/internal/ddl"
	"salesmart/internal/storage"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Config holds DuckDB repository configuration.
type Config struct {
	// DSN is a database path, optionally with settings, e.g.
	// "mart.duckdb?threads=4" or ":memory:".
	DSN string
}

// Repository inserts rows with a prepared statement inside one transaction.
type Repository struct {
	db *sql.DB
}

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// NewRepository opens the database and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return &Repository{db: db}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows into table. A failing row rolls back the batch.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("duckdb: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.DoubleQuote(c)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(table, ddl.DoubleQuote),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb: insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("duckdb: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec runs a statement or script.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("duckdb: exec: %w", err)
	}
	return nil
}

// Dialect renders mart DDL for DuckDB.
var Dialect = ddl.Dialect{
	Name:       "duckdb",
	QuoteIdent: ddl.DoubleQuote,
	MapType: func(k ddl.Kind) string {
		switch k {
		case ddl.KindBigInt:
			return "BIGINT"
		case ddl.KindInt:
			return "INTEGER"
		case ddl.KindFloat:
			return "DOUBLE"
		case ddl.KindBool:
			return "BOOLEAN"
		case ddl.KindDate:
			return "DATE"
		default:
			return "VARCHAR"
		}
	},
}

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("duckdb", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("duckdb", Dialect)
}
