package storage

import (
	"context"
	"fmt"
	"sync"

	"salesmart/internal/ddl"
)

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// RegisterDialect registers (or replaces) the DDL dialect for a storage kind.
// Backends call it from init next to Register.
func RegisterDialect(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, bool) {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// EnsureTables renders CREATE TABLE IF NOT EXISTS for each table with the
// dialect registered for kind and applies them in order through repo.Exec.
// Tables must be ordered so that referenced tables come first.
func EnsureTables(ctx context.Context, kind string, repo Repository, tables []ddl.TableDef) error {
	d, ok := DialectFor(kind)
	if !ok {
		return fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	for _, t := range tables {
		stmt, err := ddl.BuildCreateTableSQL(t, d)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", t.FQN, err)
		}
	}
	return nil
}

// ClearTables deletes every row of tables, in reverse order so that
// referencing tables are emptied before the tables they reference.
func ClearTables(ctx context.Context, kind string, repo Repository, tables []ddl.TableDef) error {
	d, ok := DialectFor(kind)
	if !ok {
		return fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	quote := d.QuoteIdent
	if quote == nil {
		quote = func(s string) string { return s }
	}
	for i := len(tables) - 1; i >= 0; i-- {
		fqn := tables[i].FQN
		if err := repo.Exec(ctx, "DELETE FROM "+ddl.QuoteFQN(fqn, quote)); err != nil {
			return fmt.Errorf("clear table %s: %w", fqn, err)
		}
	}
	return nil
}
